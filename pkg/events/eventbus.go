package events

import (
	"context"
	"sync"

	"github.com/narwhalmedia/watchlist/pkg/interfaces"
)

// Wildcard subscribes a handler to every event type.
const Wildcard = "*"

type subscription struct {
	id      uint64
	handler interfaces.EventHandler
}

// InMemoryEventBus delivers events synchronously on the publishing goroutine.
type InMemoryEventBus struct {
	mu       sync.RWMutex
	handlers map[string][]subscription
	nextID   uint64
	logger   interfaces.Logger
}

var _ interfaces.EventBus = (*InMemoryEventBus)(nil)

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger interfaces.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		handlers: make(map[string][]subscription),
		logger:   logger,
	}
}

// Publish publishes an event to all subscribers. Handler failures are logged
// and do not stop delivery to the remaining handlers.
func (eb *InMemoryEventBus) Publish(ctx context.Context, event interfaces.Event) error {
	eb.mu.RLock()
	subs := make([]subscription, 0, len(eb.handlers[event.EventType()])+len(eb.handlers[Wildcard]))
	subs = append(subs, eb.handlers[event.EventType()]...)
	subs = append(subs, eb.handlers[Wildcard]...)
	eb.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.handler.Handle(ctx, event); err != nil {
			eb.logger.Error("Event handler failed",
				interfaces.String("event_type", event.EventType()),
				interfaces.String("handler", sub.handler.Name()),
				interfaces.Error(err))
		}
	}

	return nil
}

// Subscribe registers a handler for a specific event type, or Wildcard.
func (eb *InMemoryEventBus) Subscribe(eventType string, handler interfaces.EventHandler) func() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.nextID++
	id := eb.nextID
	eb.handlers[eventType] = append(eb.handlers[eventType], subscription{id: id, handler: handler})
	eb.logger.Debug("Event handler subscribed",
		interfaces.String("event_type", eventType),
		interfaces.String("handler", handler.Name()))

	return func() { eb.unsubscribe(eventType, id) }
}

func (eb *InMemoryEventBus) unsubscribe(eventType string, id uint64) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	subs := eb.handlers[eventType]
	for i, s := range subs {
		if s.id == id {
			eb.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
}

// Close removes all handlers.
func (eb *InMemoryEventBus) Close() error {
	eb.mu.Lock()
	eb.handlers = make(map[string][]subscription)
	eb.mu.Unlock()
	return nil
}
