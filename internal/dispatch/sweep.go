package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/HapppyEnd/aibot/internal/model"
)

// SweepAndDispatch scans recent news items and enqueues generation for
// the eligible ones. Items that already have an active or published post
// are skipped before the filter runs. Enqueue delays are staggered so a
// large sweep does not hammer the generation provider all at once.
func (p *Pipeline) SweepAndDispatch(ctx context.Context, _ string) error {
	items, err := p.news.ListRecent(p.cfg.ProcessLimit)
	if err != nil {
		return fmt.Errorf("list recent news: %w", err)
	}

	dispatched := 0
	for i := range items {
		item := &items[i]

		active, published, err := p.posts.NewsState(item.ID)
		if err != nil {
			return fmt.Errorf("load post state for %s: %w", item.ID, err)
		}
		if active || published {
			continue
		}

		ok, reason, err := p.engine.ShouldGenerate(item, p.filterOpts)
		if err != nil {
			slog.Error("filter check failed", "news_id", item.ID, "error", err)
			if serr := p.news.SaveError(item.ID, err.Error(), "filter"); serr != nil {
				slog.Error("error recording filter failure", "news_id", item.ID, "error", serr)
			}
			continue
		}
		if !ok {
			slog.Debug("item filtered out", "news_id", item.ID, "reason", reason)
			continue
		}

		delay := p.cfg.GenerateDelayBase + time.Duration(dispatched)*p.cfg.GenerateDelayIncrement
		if err := p.queue.Enqueue(ctx, TaskGenerate, item.ID, delay); err != nil {
			return fmt.Errorf("enqueue generation for %s: %w", item.ID, err)
		}
		dispatched++
	}

	slog.Info("dispatch sweep complete", "scanned", len(items), "dispatched", dispatched)
	return nil
}

// RepublishStuck re-enqueues posts that generated but never published,
// spacing the batch so the publisher's cool-down is respected.
func (p *Pipeline) RepublishStuck(ctx context.Context, _ string) error {
	posts, err := p.posts.ListByStatus(model.StatusGenerated, p.cfg.PublishBatchLimit)
	if err != nil {
		return fmt.Errorf("list stuck posts: %w", err)
	}

	for i, post := range posts {
		payload := strconv.FormatInt(post.ID, 10)
		delay := time.Duration(i) * p.cfg.PublishBatchDelay
		if err := p.queue.Enqueue(ctx, TaskPublish, payload, delay); err != nil {
			return fmt.Errorf("enqueue publish for post %d: %w", post.ID, err)
		}
	}

	if len(posts) > 0 {
		slog.Info("republish sweep complete", "posts", len(posts))
	}
	return nil
}
