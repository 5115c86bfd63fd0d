package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const (
	keyPrefix     = "aibot:queue:"
	delayedKey    = keyPrefix + "delayed"
	deadLetterKey = keyPrefix + "failed"

	moverInterval  = time.Second
	idleWait       = 500 * time.Millisecond
	defaultTimeout = 25 * time.Minute
)

// Task is the envelope that travels through redis.
type Task struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Payload    string    `json:"payload"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

type Handler func(ctx context.Context, payload string) error

// Descriptor declares a task type: its handler, retry policy and rate
// ceiling. Descriptors are registered into the queue at startup; there
// is no implicit global registry.
type Descriptor struct {
	Name       string
	Handler    Handler
	MaxRetries int
	RetryDelay time.Duration
	RatePerSec float64
	Timeout    time.Duration
}

type registration struct {
	Descriptor
	limiter *rate.Limiter
}

// Queue is a redis-backed task queue with at-least-once delivery. A
// popped task sits on a per-type processing list until acknowledged;
// unacknowledged tasks are redelivered when a worker restarts, so every
// handler must tolerate re-running.
type Queue struct {
	rdb *redis.Client

	mu    sync.Mutex
	tasks map[string]*registration
	order []string
}

func New(rdb *redis.Client) *Queue {
	return &Queue{
		rdb:   rdb,
		tasks: map[string]*registration{},
	}
}

func (q *Queue) Register(d Descriptor) error {
	if d.Name == "" || d.Handler == nil {
		return fmt.Errorf("queue: descriptor needs a name and a handler")
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.tasks[d.Name]; ok {
		return fmt.Errorf("queue: task %s already registered", d.Name)
	}

	reg := &registration{Descriptor: d}
	if d.RatePerSec > 0 {
		reg.limiter = rate.NewLimiter(rate.Limit(d.RatePerSec), 1)
	}
	if reg.Timeout <= 0 {
		reg.Timeout = defaultTimeout
	}

	q.tasks[d.Name] = reg
	q.order = append(q.order, d.Name)
	return nil
}

// Enqueue schedules a task, optionally delayed. Delayed tasks sit in a
// sorted set keyed by due time until the mover promotes them.
func (q *Queue) Enqueue(ctx context.Context, name, payload string, delay time.Duration) error {
	task := Task{
		ID:         uuid.NewString(),
		Name:       name,
		Payload:    payload,
		Attempt:    1,
		EnqueuedAt: time.Now().UTC(),
	}
	return q.push(ctx, &task, delay)
}

func (q *Queue) push(ctx context.Context, task *Task, delay time.Duration) error {
	raw, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}

	if delay > 0 {
		due := float64(time.Now().Add(delay).UnixMilli())
		return q.rdb.ZAdd(ctx, delayedKey, redis.Z{Score: due, Member: raw}).Err()
	}

	return q.rdb.LPush(ctx, readyKey(task.Name), raw).Err()
}

// Run reclaims any tasks left on processing lists by a previous crash,
// then serves tasks with the given number of workers until ctx ends.
func (q *Queue) Run(ctx context.Context, workers int) error {
	if err := q.reclaim(ctx); err != nil {
		return fmt.Errorf("reclaim processing tasks: %w", err)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		q.moveDelayed(ctx)
	}()

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.work(ctx)
		}()
	}

	wg.Wait()
	return nil
}

// reclaim pushes unacknowledged tasks back onto their ready lists. This
// is where at-least-once redelivery after a crash comes from.
func (q *Queue) reclaim(ctx context.Context) error {
	q.mu.Lock()
	names := append([]string(nil), q.order...)
	q.mu.Unlock()

	for _, name := range names {
		for {
			raw, err := q.rdb.RPopLPush(ctx, processingKey(name), readyKey(name)).Result()
			if err == redis.Nil {
				break
			}
			if err != nil {
				return err
			}
			slog.Warn("redelivering unacknowledged task", "task", name, "raw", raw)
		}
	}
	return nil
}

// moveDelayed promotes due tasks from the delayed set to ready lists.
func (q *Queue) moveDelayed(ctx context.Context) {
	ticker := time.NewTicker(moverInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		now := fmt.Sprintf("%d", time.Now().UnixMilli())
		members, err := q.rdb.ZRangeByScore(ctx, delayedKey, &redis.ZRangeBy{
			Min: "-inf", Max: now, Count: 100,
		}).Result()
		if err != nil {
			slog.Error("error reading delayed tasks", "error", err)
			continue
		}

		for _, raw := range members {
			removed, err := q.rdb.ZRem(ctx, delayedKey, raw).Result()
			if err != nil || removed == 0 {
				continue
			}

			var task Task
			if err := json.Unmarshal([]byte(raw), &task); err != nil {
				slog.Error("dropping malformed delayed task", "error", err)
				continue
			}

			if err := q.rdb.LPush(ctx, readyKey(task.Name), raw).Err(); err != nil {
				slog.Error("error promoting delayed task", "task", task.Name, "error", err)
			}
		}
	}
}

func (q *Queue) work(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		served := false
		q.mu.Lock()
		names := append([]string(nil), q.order...)
		q.mu.Unlock()

		for _, name := range names {
			raw, err := q.rdb.LMove(ctx, readyKey(name), processingKey(name), "RIGHT", "LEFT").Result()
			if err == redis.Nil {
				continue
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("error popping task", "task", name, "error", err)
				continue
			}

			served = true
			if q.handle(ctx, name, raw) {
				q.ack(ctx, name, raw)
			}
		}

		if !served {
			select {
			case <-ctx.Done():
				return
			case <-time.After(idleWait):
			}
		}
	}
}

// handle runs one popped task and reports whether it should be
// acknowledged. False means the raw entry stays on the processing list
// so a restart redelivers it.
func (q *Queue) handle(ctx context.Context, name, raw string) bool {
	var task Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		slog.Error("dropping malformed task", "task", name, "error", err)
		return true
	}

	q.mu.Lock()
	reg := q.tasks[name]
	q.mu.Unlock()
	if reg == nil {
		slog.Error("no handler registered for task", "task", name)
		return true
	}

	if reg.limiter != nil {
		if err := reg.limiter.Wait(ctx); err != nil {
			// Shutting down before the task ran; leave it
			// unacknowledged for redelivery on the next start.
			return false
		}
	}

	taskCtx, cancel := context.WithTimeout(ctx, reg.Timeout)
	err := reg.Handler(taskCtx, task.Payload)
	cancel()

	if err == nil {
		return true
	}

	slog.Error("task failed", "task", name, "task_id", task.ID, "attempt", task.Attempt, "error", err)

	if task.Attempt >= reg.MaxRetries+1 {
		if derr := q.rdb.LPush(ctx, deadLetterKey, raw).Err(); derr != nil {
			slog.Error("error moving task to dead letter", "task", name, "error", derr)
		}
		slog.Warn("task exhausted retries", "task", name, "task_id", task.ID)
		return true
	}

	retry := task
	retry.Attempt++
	if perr := q.push(ctx, &retry, reg.RetryDelay); perr != nil {
		slog.Error("error re-enqueuing task", "task", name, "error", perr)
	}
	return true
}

// ack survives worker shutdown: a finished task must leave the
// processing list even when the loop's context is already cancelled.
func (q *Queue) ack(ctx context.Context, name, raw string) {
	if err := q.rdb.LRem(context.WithoutCancel(ctx), processingKey(name), 1, raw).Err(); err != nil {
		slog.Error("error acknowledging task", "task", name, "error", err)
	}
}

func (q *Queue) Length(ctx context.Context, name string) (int64, error) {
	return q.rdb.LLen(ctx, readyKey(name)).Result()
}

func readyKey(name string) string {
	return keyPrefix + name
}

func processingKey(name string) string {
	return keyPrefix + name + ":processing"
}
