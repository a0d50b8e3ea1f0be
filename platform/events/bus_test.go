package events

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"dealflow_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
}

func (testEvent) EventName() string { return "test.event" }

func TestPublishSyncJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.NewWithWriter("test", io.Discard))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error { return errors.New("first") }))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error { return nil }))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent(time.Now())})
	if err == nil || err.Error() != "first" {
		t.Fatalf("expected joined error, got %v", err)
	}
}

func TestPublishRecoversFromPanics(t *testing.T) {
	bus := NewInMemoryBus(logger.NewWithWriter("test", io.Discard))
	var calls atomic.Int32
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error { panic("boom") }))
	bus.Subscribe("test.event", HandlerFunc(func(context.Context, Event) error {
		calls.Add(1)
		return nil
	}))

	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent(time.Now())})
	bus.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected healthy handler to run once, got %d", calls.Load())
	}
}

func TestPublishIgnoresUnknownEvents(t *testing.T) {
	bus := NewInMemoryBus(nil)
	if err := bus.PublishSync(context.Background(), testEvent{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
