// Package events provides the in-process event bus that carries results out of
// the search sessions to whoever hosts them.
// This is part of the platform layer and contains no business logic.
package events

import (
	"context"
	"time"
)

// Event is implemented by everything published on a Bus.
type Event interface {
	// EventName identifies the event type; subscriptions are keyed by it.
	EventName() string
	// OccurredAt is the time the event was created.
	OccurredAt() time.Time
}

// BaseEvent carries the timestamp shared by all events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps an event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler reacts to a published event.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain function act as a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes events to the handlers subscribed to their name.
type Bus interface {
	// Publish delivers the event to every handler without waiting for them.
	Publish(ctx context.Context, event Event)

	// PublishSync delivers the event and returns once every handler finished.
	// The first handler error is returned; the remaining handlers still run.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers handler for events whose EventName equals eventName.
	Subscribe(eventName string, handler Handler)
}
