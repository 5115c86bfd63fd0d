package sched

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

type fakeQueue struct {
	mu    sync.Mutex
	tasks []string
}

func (q *fakeQueue) Enqueue(_ context.Context, name, _ string, _ time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, name)
	return nil
}

func (q *fakeQueue) snapshot() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.tasks...)
}

// Each beat fires once right away; the interval only governs the
// repeats.
func TestScheduler_FiresAtStartup(t *testing.T) {
	q := &fakeQueue{}
	s := New(q, []Beat{
		{Task: "ingest-all-sources", Interval: time.Hour},
		{Task: "sweep-and-dispatch", Interval: time.Hour},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	tasks := q.snapshot()
	assert.Equal(t, 2, len(tasks))
}

func TestScheduler_RepeatsOnInterval(t *testing.T) {
	q := &fakeQueue{}
	s := New(q, []Beat{{Task: "sweep-and-dispatch", Interval: 20 * time.Millisecond}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	time.Sleep(70 * time.Millisecond)
	cancel()
	<-done

	if got := len(q.snapshot()); got < 2 {
		t.Fatalf("expected repeated beats, got %d", got)
	}
}
