// Package storage is the SQLite audit journal of the elevator bank.
// It only records what happened; simulator state is never rebuilt from it.
package storage

import (
	"context"
	"encoding/json"
	"time"
)

// JournalEvent is the persisted form of an events.Event.
// The events package does not import this; JournalAdapter converts.
type JournalEvent struct {
	Seq       int64           `json:"seq" db:"seq"`
	ID        string          `json:"id" db:"id"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
	EventType string          `json:"event_type" db:"event_type"`
	ActorID   string          `json:"actor_id" db:"actor_id"`
	TargetID  string          `json:"target_id" db:"target_id"`
	Payload   json.RawMessage `json:"payload" db:"payload"`
}

// EventRepository defines the interface for journal persistence.
type EventRepository interface {
	// Append adds a new event to the journal.
	Append(ctx context.Context, event JournalEvent) error

	// GetByActorID retrieves all events performed by an actor, oldest first.
	GetByActorID(ctx context.Context, actorID string) ([]JournalEvent, error)

	// GetByEventType retrieves all events of a specific type, oldest first.
	GetByEventType(ctx context.Context, eventType string) ([]JournalEvent, error)

	// Recent returns at most limit of the newest events, oldest first.
	Recent(ctx context.Context, limit int) ([]JournalEvent, error)
}
