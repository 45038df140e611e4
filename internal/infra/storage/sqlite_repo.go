package storage

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
)

const selectColumns = `SELECT seq, id, timestamp, event_type, actor_id, target_id, payload FROM events`

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event JournalEvent) error {
	payload := string(event.Payload)
	if payload == "" {
		payload = "null"
	}

	query := `
		INSERT INTO events (id, timestamp, event_type, actor_id, target_id, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.Timestamp, event.EventType, event.ActorID, event.TargetID, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]JournalEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []JournalEvent
	for rows.Next() {
		var e JournalEvent
		var payload string
		err := rows.Scan(&e.Seq, &e.ID, &e.Timestamp, &e.EventType, &e.ActorID, &e.TargetID, &payload)
		if err != nil {
			return nil, err
		}
		e.Payload = []byte(payload)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) GetByActorID(ctx context.Context, actorID string) ([]JournalEvent, error) {
	return r.getMany(ctx, selectColumns+` WHERE actor_id = ? ORDER BY seq ASC`, actorID)
}

func (r *SQLiteEventRepository) GetByEventType(ctx context.Context, eventType string) ([]JournalEvent, error) {
	return r.getMany(ctx, selectColumns+` WHERE event_type = ? ORDER BY seq ASC`, eventType)
}

func (r *SQLiteEventRepository) Recent(ctx context.Context, limit int) ([]JournalEvent, error) {
	if limit <= 0 {
		return nil, nil
	}
	events, err := r.getMany(ctx, selectColumns+` ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	slices.Reverse(events)
	return events, nil
}
