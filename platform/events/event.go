// Package events is the in-process publish/subscribe bus modules use to react
// to each other without importing one another.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is implemented by every domain event.
type Event interface {
	// EventName is the routing key handlers subscribe to.
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent is embedded by domain events. ID lets handlers and logs correlate
// the deliveries of one publication.
type BaseEvent struct {
	ID        uuid.UUID `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps an event at the given time, so publishers driven by an
// injected clock produce reproducible timestamps.
func NewBaseEvent(at time.Time) BaseEvent {
	return BaseEvent{ID: uuid.New(), Timestamp: at.UTC()}
}

type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus routes events by name.
type Bus interface {
	// Publish delivers to every subscriber asynchronously; handler errors are
	// logged by the bus.
	Publish(ctx context.Context, event Event)

	// PublishSync delivers in the caller's goroutine and joins handler errors.
	PublishSync(ctx context.Context, event Event) error

	Subscribe(eventName string, handler Handler)
}
