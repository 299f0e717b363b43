package events

import (
	"time"

	"github.com/google/uuid"
)

// BaseEvent is a basic implementation of the Event interface
type BaseEvent struct {
	ID    uuid.UUID              `json:"id"`
	Type  string                 `json:"type"`
	Time  time.Time              `json:"occurred_at"`
	AggID string                 `json:"aggregate_id"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// NewEvent creates a new event
func NewEvent(eventType string, aggregateID string, data map[string]interface{}) *BaseEvent {
	return &BaseEvent{
		ID:    uuid.New(),
		Type:  eventType,
		Time:  time.Now().UTC(),
		AggID: aggregateID,
		Data:  data,
	}
}

// EventType returns the type of the event
func (e *BaseEvent) EventType() string {
	return e.Type
}

// OccurredAt returns when the event occurred
func (e *BaseEvent) OccurredAt() time.Time {
	return e.Time
}

// AggregateID returns the ID of the aggregate that produced the event
func (e *BaseEvent) AggregateID() string {
	return e.AggID
}
