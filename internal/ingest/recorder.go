package ingest

import (
	"log/slog"
	"strings"
	"time"

	"github.com/HapppyEnd/aibot/internal/model"
	"github.com/HapppyEnd/aibot/pkg/feed"
)

// Store is the slice of persistence the recorder needs.
type Store interface {
	Insert(item *model.NewsItem) (bool, error)
}

// Recorder turns raw fetched items into deduplicated news items. The
// canonical id is a hash of the url (or title), so re-recording the same
// input is a no-op and first-seen fields always win.
type Recorder struct {
	store Store
}

func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record persists the batch for one source and returns the number of
// newly inserted items. A malformed or failing single item is logged and
// skipped; the rest of the batch proceeds.
func (r *Recorder) Record(source *model.Source, items []feed.Item) int {
	var saved, duplicated, errors int

	for _, raw := range items {
		title := strings.TrimSpace(raw.Title)
		if title == "" {
			slog.Warn("skipping item without title", "source", source.Name, "url", raw.URL)
			errors++
			continue
		}

		publishedAt := raw.PublishedAt
		if publishedAt.IsZero() {
			publishedAt = time.Now().UTC()
		} else {
			publishedAt = publishedAt.UTC()
		}

		item := model.NewsItem{
			ID:          model.NewsID(raw.URL, title),
			Title:       title,
			URL:         raw.URL,
			Summary:     raw.Summary,
			RawText:     raw.RawText,
			Source:      source.Name,
			SourceID:    source.ID,
			PublishedAt: publishedAt,
		}

		inserted, err := r.store.Insert(&item)
		if err != nil {
			slog.Error("error saving news item", "source", source.Name, "news_id", item.ID, "error", err)
			errors++
			continue
		}

		if !inserted {
			duplicated++
			continue
		}

		saved++
	}

	slog.Info("ingest complete",
		"source", source.Name, "saved", saved, "duplicated", duplicated, "errors", errors)
	return saved
}
