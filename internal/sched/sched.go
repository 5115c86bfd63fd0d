package sched

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Enqueuer is the slice of the task queue the scheduler needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, name, payload string, delay time.Duration) error
}

// Beat periodically enqueues one task type.
type Beat struct {
	Task     string
	Interval time.Duration
}

// Scheduler fires each beat once at startup and then on its interval.
type Scheduler struct {
	queue Enqueuer
	beats []Beat
}

func New(queue Enqueuer, beats []Beat) *Scheduler {
	return &Scheduler{queue: queue, beats: beats}
}

func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, beat := range s.beats {
		wg.Add(1)
		go func(b Beat) {
			defer wg.Done()
			s.run(ctx, b)
		}(beat)
	}
	wg.Wait()
}

func (s *Scheduler) run(ctx context.Context, b Beat) {
	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()

	s.fire(ctx, b)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx, b)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, b Beat) {
	if err := s.queue.Enqueue(ctx, b.Task, "", 0); err != nil {
		slog.Error("error enqueuing scheduled task", "task", b.Task, "error", err)
		return
	}
	slog.Info("scheduled task enqueued", "task", b.Task, "interval", b.Interval.String())
}
