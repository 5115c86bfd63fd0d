package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/HapppyEnd/aibot/internal/model"
	"github.com/HapppyEnd/aibot/pkg/telegram"
)

// PublishPost sends one generated post to the channel. An already
// published post is a successful no-op, so redelivered tasks never send
// twice. Flood waits are slept out up to the retry budget; every other
// send failure, and an exhausted budget, marks the post failed so it
// never cycles back through the republish sweep.
func (p *Pipeline) PublishPost(ctx context.Context, payload string) error {
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		slog.Error("dropping publish task with bad payload", "payload", payload)
		return nil
	}

	post, err := p.posts.GetByID(id)
	if err != nil {
		return fmt.Errorf("load post %d: %w", id, err)
	}
	if post == nil {
		slog.Warn("dropping publish for unknown post", "post_id", id)
		return nil
	}

	switch post.Status {
	case model.StatusPublished:
		slog.Info("post already published", "post_id", post.ID)
		return nil
	case model.StatusFailed:
		slog.Warn("skipping publish for failed post", "post_id", post.ID)
		return nil
	}

	text := p.composeMessage(post)

	for attempt := 0; ; attempt++ {
		messageID, err := p.publisher.Send(ctx, p.channel, text)
		if err == nil {
			ok, err := p.posts.MarkPublished(post.ID, p.now().UTC())
			if err != nil {
				return fmt.Errorf("mark post %d published: %w", post.ID, err)
			}
			if !ok {
				slog.Info("publish result discarded, post no longer active", "post_id", post.ID)
				return nil
			}
			slog.Info("post published", "post_id", post.ID, "message_id", messageID)
			return nil
		}

		var serr *telegram.SendError
		if !errors.As(err, &serr) {
			serr = &telegram.SendError{Kind: telegram.ErrTransient, Message: err.Error()}
		}

		if serr.Kind == telegram.ErrFloodWait {
			if attempt >= p.cfg.PublishMaxRetries {
				slog.Error("flood wait budget exhausted", "post_id", post.ID)
				return p.failPost(post, serr)
			}
			slog.Warn("flood wait from channel", "post_id", post.ID, "wait", serr.Wait.String())
			if err := p.sleep(ctx, serr.Wait); err != nil {
				return err
			}
			continue
		}

		// Anything but a flood wait is terminal for the post.
		slog.Error("publish failed", "post_id", post.ID, "kind", serr.Kind, "error", serr.Message)
		return p.failPost(post, serr)
	}
}

func (p *Pipeline) failPost(post *model.Post, cause *telegram.SendError) error {
	ok, err := p.posts.MarkFailed(post.ID)
	if err != nil {
		return fmt.Errorf("mark post %d failed: %w", post.ID, err)
	}
	if !ok {
		slog.Info("failure discarded, post no longer active", "post_id", post.ID)
		return nil
	}
	if serr := p.news.SaveError(post.NewsID, cause.Error(), string(cause.Kind)); serr != nil {
		slog.Error("error recording publish failure", "post_id", post.ID, "error", serr)
	}
	return nil
}

// composeMessage appends the source link when the news item has one.
func (p *Pipeline) composeMessage(post *model.Post) string {
	text := post.GeneratedText

	item, err := p.news.GetByID(post.NewsID)
	if err != nil {
		slog.Error("error loading news item for message", "news_id", post.NewsID, "error", err)
		return text
	}
	if item != nil && item.URL != "" {
		text += "\n\n" + item.URL
	}
	return text
}
