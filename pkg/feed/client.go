package feed

import (
	"context"
	"time"

	"github.com/HapppyEnd/aibot/internal/model"
)

// Item is one raw entry pulled from a source, before deduplication.
type Item struct {
	Title       string
	URL         string
	Summary     string
	RawText     string
	PublishedAt time.Time
}

// Fetcher pulls raw items for a configured source. Implementations
// absorb their own failures: they log and return an empty slice rather
// than propagating transport errors.
type Fetcher interface {
	Fetch(ctx context.Context, source *model.Source) []Item
}
