// Package bus provides event bus implementations for broadcasting
// evaluation lifecycle events.
package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-uuid"
)

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for event bus implementations.
type Bus interface {
	// Publish publishes an event to a topic.
	Publish(ctx context.Context, topic string, event Event) error

	// Subscribe subscribes to events on a topic.
	Subscribe(ctx context.Context, topic string, handler Handler) error

	// Close closes the bus and releases resources.
	Close() error
}

// Event represents a bus event.
type Event struct {
	// ID is the unique event identifier.
	ID string `json:"id"`

	// Type is the event type (e.g. "eval.completed").
	Type string `json:"type"`

	// Source is the component that generated the event.
	Source string `json:"source"`

	// Timestamp is when the event was created.
	Timestamp int64 `json:"timestamp"`

	// Payload contains the event data.
	Payload any `json:"payload"`
}

// NewEvent creates an event of the given type stamped with the current
// time and a fresh identifier.
func NewEvent(eventType, source string, payload any) Event {
	id, err := uuid.GenerateUUID()
	if err != nil {
		id = fmt.Sprintf("%s-%d", eventType, time.Now().UnixNano())
	}
	return Event{
		ID:        id,
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UnixNano(),
		Payload:   payload,
	}
}

// Topics for evaluation lifecycle events.
const (
	TopicQrelsLoaded        = "qrels.loaded"
	TopicQrelsDeleted       = "qrels.deleted"
	TopicEvalCompleted      = "eval.completed"
	TopicLeaderboardUpdated = "leaderboard.updated"
)
