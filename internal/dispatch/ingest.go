package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
)

// IngestAll fans out one ingest-source task per enabled source.
func (p *Pipeline) IngestAll(ctx context.Context, _ string) error {
	sources, err := p.sources.ListEnabled()
	if err != nil {
		return fmt.Errorf("list enabled sources: %w", err)
	}

	for _, source := range sources {
		payload := strconv.FormatInt(source.ID, 10)
		if err := p.queue.Enqueue(ctx, TaskIngestSource, payload, 0); err != nil {
			return fmt.Errorf("enqueue ingest for source %d: %w", source.ID, err)
		}
	}

	slog.Info("ingest fan-out complete", "sources", len(sources))
	return nil
}

// IngestSource fetches one source and records the batch. Fetch failures
// are absorbed by the fetcher, so an unreachable source just records
// nothing this round.
func (p *Pipeline) IngestSource(ctx context.Context, payload string) error {
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		slog.Error("dropping ingest task with bad payload", "payload", payload)
		return nil
	}

	source, err := p.sources.GetByID(id)
	if err != nil {
		return fmt.Errorf("load source %d: %w", id, err)
	}
	if source == nil || !source.Enabled {
		slog.Warn("skipping missing or disabled source", "source_id", id)
		return nil
	}

	items := p.fetcher.Fetch(ctx, source)
	p.recorder.Record(source, items)
	return nil
}
