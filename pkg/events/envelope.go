package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/narwhalmedia/watchlist/pkg/interfaces"
)

// Envelope is the wire form of an event sent to a broker.
type Envelope struct {
	ID          string                 `json:"id"`
	EventType   string                 `json:"event_type"`
	AggregateID string                 `json:"aggregate_id"`
	OccurredAt  time.Time              `json:"occurred_at"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// ToEnvelope converts an event for transport. Events that are not a
// *BaseEvent get a fresh id and no payload.
func ToEnvelope(e interfaces.Event) Envelope {
	env := Envelope{
		EventType:   e.EventType(),
		AggregateID: e.AggregateID(),
		OccurredAt:  e.OccurredAt(),
	}
	if base, ok := e.(*BaseEvent); ok {
		env.ID = base.ID.String()
		env.Data = base.Data
	} else {
		env.ID = uuid.NewString()
	}
	return env
}
