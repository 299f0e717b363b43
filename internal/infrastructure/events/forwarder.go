// Package events forwards catalog change notifications from the in-process
// bus to external brokers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	pkgevents "github.com/narwhalmedia/watchlist/pkg/events"
	"github.com/narwhalmedia/watchlist/pkg/interfaces"
)

// Message is one outbound broker message.
type Message struct {
	Topic   string
	Key     string
	ID      string
	Data    []byte
	Headers map[string]string
}

// Broker is the transport a Forwarder writes to.
type Broker interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Router maps an event type to a topic or subject.
type Router func(eventType string) string

// FixedTopic routes every event to one topic.
func FixedTopic(topic string) Router {
	return func(string) string {
		return topic
	}
}

// SubjectPrefix routes "title.added" to "<prefix>.title.added".
func SubjectPrefix(prefix string) Router {
	prefix = strings.TrimSuffix(prefix, ".")
	return func(eventType string) string {
		if prefix == "" {
			return eventType
		}
		return prefix + "." + eventType
	}
}

// Forwarder is an event handler that relays every event it sees to a Broker.
type Forwarder struct {
	name   string
	broker Broker
	route  Router
	logger *zap.Logger
}

var _ interfaces.EventHandler = (*Forwarder)(nil)

// NewForwarder creates a forwarder named for logs.
func NewForwarder(name string, broker Broker, route Router, logger *zap.Logger) *Forwarder {
	return &Forwarder{
		name:   name,
		broker: broker,
		route:  route,
		logger: logger.Named(name),
	}
}

// Name returns the forwarder name.
func (f *Forwarder) Name() string {
	return f.name
}

// Handle publishes the event envelope as JSON.
func (f *Forwarder) Handle(ctx context.Context, event interfaces.Event) error {
	envelope := pkgevents.ToEnvelope(event)
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	msg := Message{
		Topic: f.route(event.EventType()),
		Key:   event.AggregateID(),
		ID:    envelope.ID,
		Data:  data,
		Headers: map[string]string{
			"event_type": event.EventType(),
		},
	}
	if err := f.broker.Publish(ctx, msg); err != nil {
		f.logger.Error("failed to forward event",
			zap.Error(err),
			zap.String("event_id", envelope.ID),
			zap.String("event_type", envelope.EventType),
			zap.String("topic", msg.Topic),
		)
		return fmt.Errorf("forward %s: %w", envelope.EventType, err)
	}

	f.logger.Debug("event forwarded",
		zap.String("event_id", envelope.ID),
		zap.String("event_type", envelope.EventType),
		zap.String("topic", msg.Topic),
	)
	return nil
}

// Attach subscribes the forwarder to every event on bus.
func (f *Forwarder) Attach(bus interfaces.EventBus) (detach func()) {
	return bus.Subscribe(pkgevents.Wildcard, f)
}

// Close closes the broker.
func (f *Forwarder) Close() error {
	return f.broker.Close()
}
