package queue

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func noop(context.Context, string) error { return nil }

func TestRegister(t *testing.T) {
	q := New(nil)

	err := q.Register(Descriptor{Name: "ingest", Handler: noop})
	assert.Equal(t, nil, err)

	err = q.Register(Descriptor{Name: "ingest", Handler: noop})
	assert.NotEqual(t, nil, err)
}

func TestRegister_RequiresNameAndHandler(t *testing.T) {
	q := New(nil)

	assert.NotEqual(t, nil, q.Register(Descriptor{Handler: noop}))
	assert.NotEqual(t, nil, q.Register(Descriptor{Name: "ingest"}))
}

func TestRegister_DefaultsAndLimiter(t *testing.T) {
	q := New(nil)

	err := q.Register(Descriptor{Name: "generate", Handler: noop, RatePerSec: 2})
	assert.Equal(t, nil, err)

	reg := q.tasks["generate"]
	assert.NotEqual(t, nil, reg.limiter)
	assert.Equal(t, defaultTimeout, reg.Timeout)

	q.Register(Descriptor{Name: "sweep", Handler: noop, Timeout: time.Minute})
	assert.Equal(t, time.Minute, q.tasks["sweep"].Timeout)
	if q.tasks["sweep"].limiter != nil {
		t.Fatalf("unrated task got a limiter")
	}
}

func TestHandle_SuccessAcks(t *testing.T) {
	q := New(nil)
	ran := 0
	q.Register(Descriptor{Name: "ingest", Handler: func(context.Context, string) error {
		ran++
		return nil
	}})

	raw := `{"id":"1","name":"ingest","payload":"","attempt":1}`
	ack := q.handle(context.Background(), "ingest", raw)

	assert.Equal(t, 1, ran)
	assert.Equal(t, true, ack)
}

// A worker cancelled while waiting on the rate limiter has not run the
// task, so the entry must stay on the processing list for redelivery.
func TestHandle_CancelledBeforeRunKeepsTask(t *testing.T) {
	q := New(nil)
	ran := 0
	q.Register(Descriptor{Name: "publish", Handler: func(context.Context, string) error {
		ran++
		return nil
	}, RatePerSec: 0.001})
	q.tasks["publish"].limiter.Allow() // drain the burst token

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ack := q.handle(ctx, "publish", `{"id":"1","name":"publish","payload":"","attempt":1}`)

	assert.Equal(t, 0, ran)
	assert.Equal(t, false, ack)
}

func TestHandle_MalformedTaskDropped(t *testing.T) {
	q := New(nil)
	q.Register(Descriptor{Name: "ingest", Handler: noop})

	ack := q.handle(context.Background(), "ingest", "{not json")

	assert.Equal(t, true, ack)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "aibot:queue:publish-post", readyKey("publish-post"))
	assert.Equal(t, "aibot:queue:publish-post:processing", processingKey("publish-post"))
}
