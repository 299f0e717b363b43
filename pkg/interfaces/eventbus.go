package interfaces

import (
	"context"
	"time"
)

// Event is a notification published after a catalog mutation.
type Event interface {
	// EventType returns the type of the event, e.g. "title.added"
	EventType() string

	// OccurredAt returns when the event was raised
	OccurredAt() time.Time

	// AggregateID returns the natural key of the title the event concerns
	AggregateID() string
}

// EventHandler handles events of one or more types.
type EventHandler interface {
	// Handle processes an event
	Handle(ctx context.Context, event Event) error

	// Name identifies the handler in logs
	Name() string
}

// EventHandlerFunc adapts an ordinary function to EventHandler.
type EventHandlerFunc func(ctx context.Context, event Event) error

// Handle calls f(ctx, event).
func (f EventHandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Name returns a generic handler name.
func (f EventHandlerFunc) Name() string {
	return "func"
}

// EventBus provides synchronous pub/sub for catalog events.
type EventBus interface {
	// Publish delivers an event to every subscriber of its type
	Publish(ctx context.Context, event Event) error

	// Subscribe registers a handler and returns a function that removes it
	Subscribe(eventType string, handler EventHandler) (unsubscribe func())

	// Close drops all subscriptions
	Close() error
}
