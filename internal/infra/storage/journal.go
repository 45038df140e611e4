package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MRamiBalles/ElevatorBank/internal/events"
	"github.com/MRamiBalles/ElevatorBank/internal/platform/metrics"
)

const journalWriteTimeout = 5 * time.Second

// JournalAdapter translates domain events to journal rows. It implements
// events.EventPersister.
type JournalAdapter struct {
	repo    EventRepository
	metrics *metrics.Collector
}

// NewJournalAdapter wires repo behind the events.EventPersister interface.
// m may be nil.
func NewJournalAdapter(repo EventRepository, m *metrics.Collector) *JournalAdapter {
	return &JournalAdapter{repo: repo, metrics: m}
}

func (a *JournalAdapter) Append(event events.Event) (err error) {
	start := time.Now()
	if a.metrics != nil {
		defer func() { a.metrics.RecordJournalWrite(time.Since(start), err) }()
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for event %s: %w", event.ID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
	defer cancel()
	return a.repo.Append(ctx, JournalEvent{
		ID:        event.ID,
		Timestamp: event.Timestamp,
		EventType: string(event.Type),
		ActorID:   event.ActorID,
		TargetID:  event.TargetID,
		Payload:   payload,
	})
}
