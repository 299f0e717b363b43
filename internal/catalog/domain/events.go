package domain

import (
	"github.com/narwhalmedia/watchlist/pkg/events"
)

// Catalog event types.
const (
	EventTitleAdded   = "title.added"
	EventTitleUpdated = "title.updated"
	EventTitleDeleted = "title.deleted"
)

// NewTitleAddedEvent is published after a title has been persisted.
func NewTitleAddedEvent(t Title) *events.BaseEvent {
	return events.NewEvent(EventTitleAdded, t.Key().String(), titlePayload(t))
}

// NewTitleUpdatedEvent is published after a title has been replaced in place.
func NewTitleUpdatedEvent(t Title) *events.BaseEvent {
	return events.NewEvent(EventTitleUpdated, t.Key().String(), titlePayload(t))
}

// NewTitleDeletedEvent is published after every record for key was removed.
func NewTitleDeletedEvent(key Key) *events.BaseEvent {
	return events.NewEvent(EventTitleDeleted, key.String(), map[string]interface{}{
		"name":        key.Name,
		"releaseYear": key.Year,
	})
}

func titlePayload(t Title) map[string]interface{} {
	return map[string]interface{}{
		"name":        t.Name,
		"kind":        string(t.Kind),
		"releaseYear": t.ReleaseYear,
		"genre":       t.Genre,
		"userRating":  t.UserRating,
		"status":      string(t.Status),
		"progress":    t.Progress,
		"totalUnits":  t.TotalUnits,
	}
}
