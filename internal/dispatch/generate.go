package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/HapppyEnd/aibot/pkg/llm"
)

// GenerateForItem produces post text for one news item. Redelivery is
// safe: a published item is a no-op and a repeated generation overwrites
// the active post in place, so at most one artifact row ever exists.
func (p *Pipeline) GenerateForItem(ctx context.Context, newsID string) error {
	item, err := p.news.GetByID(newsID)
	if err != nil {
		return fmt.Errorf("load news item %s: %w", newsID, err)
	}
	if item == nil {
		slog.Warn("dropping generation for unknown news item", "news_id", newsID)
		return nil
	}

	_, published, err := p.posts.NewsState(newsID)
	if err != nil {
		return fmt.Errorf("load post state for %s: %w", newsID, err)
	}
	if published {
		slog.Info("skipping generation, item already published", "news_id", newsID)
		return nil
	}

	text, err := p.generateText(ctx, llm.BuildNewsText(item))
	if err != nil {
		kind := "generation"
		var perr *llm.ProviderError
		if errors.As(err, &perr) {
			kind = string(perr.Kind)
		}
		if serr := p.news.SaveError(newsID, err.Error(), kind); serr != nil {
			slog.Error("error recording generation failure", "news_id", newsID, "error", serr)
		}
		return fmt.Errorf("generate text for %s: %w", newsID, err)
	}

	post, err := p.posts.UpsertGenerated(newsID, text)
	if err != nil {
		return fmt.Errorf("save generated post for %s: %w", newsID, err)
	}

	payload := strconv.FormatInt(post.ID, 10)
	if err := p.queue.Enqueue(ctx, TaskPublish, payload, p.cfg.PublishDelayAfterGen); err != nil {
		return fmt.Errorf("enqueue publish for post %d: %w", post.ID, err)
	}

	slog.Info("post generated", "news_id", newsID, "post_id", post.ID, "chars", len(text))
	return nil
}

// generateText calls the provider, honoring rate-limit waits in place.
// Rate limits that keep recurring past the retry budget, and every other
// failure kind, bubble up to the queue's retry policy.
func (p *Pipeline) generateText(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= p.cfg.GenerateMaxRetries; attempt++ {
		text, err := p.generator.Generate(ctx, prompt, p.genOpts)
		if err == nil {
			return text, nil
		}
		lastErr = err

		var perr *llm.ProviderError
		if !errors.As(err, &perr) || perr.Kind != llm.ErrRateLimit {
			return "", err
		}

		wait := perr.Wait
		if wait <= 0 {
			wait = p.cfg.GenerateRetryDelay
		}
		slog.Warn("generation rate limited", "wait", wait.String(), "attempt", attempt+1)
		if err := p.sleep(ctx, wait); err != nil {
			return "", err
		}
	}

	return "", lastErr
}
