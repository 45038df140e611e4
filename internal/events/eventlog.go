// Package events provides the append-only journal of everything the elevator bank does.
// Dispatcher decisions, car movement and door cycles are all recorded here and
// fanned out to the WebSocket hub and the SQLite journal.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of an elevator bank event.
type EventType string

const (
	EventTypeInitialized         EventType = "ELEVATOR_INITIALIZED"
	EventTypeDispatched          EventType = "ELEVATOR_DISPATCHED"
	EventTypeFloorPassed         EventType = "ELEVATOR_FLOOR_PASSED"
	EventTypeArrived             EventType = "ELEVATOR_ARRIVED"
	EventTypeDoorsOpened         EventType = "DOORS_OPENED"
	EventTypeDoorsClosed         EventType = "DOORS_CLOSED"
	EventTypePassengersLoaded    EventType = "PASSENGERS_LOADED"
	EventTypePassengersUnloaded  EventType = "PASSENGERS_UNLOADED"
	EventTypePeopleAdded         EventType = "PEOPLE_ADDED"
	EventTypePeopleRemoved       EventType = "PEOPLE_REMOVED"
	EventTypeNoElevatorAvailable EventType = "NO_ELEVATOR_AVAILABLE"
	EventTypeBulkCallCompleted   EventType = "BULK_CALL_COMPLETED"
	EventTypeFloorAdded          EventType = "FLOOR_ADDED"
	EventTypeFloorRemoved        EventType = "FLOOR_REMOVED"
	EventTypeElevatorAdded       EventType = "ELEVATOR_ADDED"
	EventTypeElevatorRemoved     EventType = "ELEVATOR_REMOVED"
	EventTypeOperationRejected   EventType = "OPERATION_REJECTED"
)

// Event represents an immutable record of something that happened in the building.
type Event struct {
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`  // Who acted, e.g. "ELEVATOR_2" or "DISPATCHER"
	TargetID  string      `json:"target_id"` // What was affected (optional)
	Payload   interface{} `json:"payload"`
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event Event) error
}

// EventLog is the in-memory append-only log of elevator bank events.
// When a persister is attached, events are written through in append order
// by a single background writer.
type EventLog struct {
	mu     sync.RWMutex
	events []Event
	// trimmed counts events dropped from the front; offsets stay absolute.
	trimmed int
	retain  int

	persister EventPersister
	queue     chan Event
	closed    bool
	done      chan struct{}
	closeOnce sync.Once
	onError   func(Event, error)
}

const persistQueueSize = 1024

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister) *EventLog {
	el := &EventLog{
		events:    make([]Event, 0),
		persister: persister,
	}
	if persister != nil {
		el.queue = make(chan Event, persistQueueSize)
		el.done = make(chan struct{})
		go el.writeLoop()
	}
	return el
}

// SetRetention bounds the in-memory history to roughly the last n events.
// Older events are dropped in batches once the log holds twice that many;
// the persister still sees every event. n <= 0 keeps everything.
func (el *EventLog) SetRetention(n int) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.retain = max(n, 0)
	el.trim()
}

func (el *EventLog) trim() {
	if el.retain == 0 || len(el.events) < 2*el.retain {
		return
	}
	drop := len(el.events) - el.retain
	el.events = append(make([]Event, 0, 2*el.retain), el.events[drop:]...)
	el.trimmed += drop
}

// OnPersistError registers a callback for failed write-throughs.
// Must be called before the first Append.
func (el *EventLog) OnPersistError(fn func(Event, error)) {
	el.onError = fn
}

// Append adds a new event to the log, filling in ID and Timestamp when empty.
// Events are immutable once appended.
func (el *EventLog) Append(event Event) Event {
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	el.mu.Lock()
	el.events = append(el.events, event)
	el.trim()
	if el.queue != nil && !el.closed {
		el.queue <- event
	}
	el.mu.Unlock()

	return event
}

func (el *EventLog) writeLoop() {
	defer close(el.done)
	for e := range el.queue {
		if err := el.persister.Append(e); err != nil && el.onError != nil {
			el.onError(e, err)
		}
	}
}

// Close flushes pending write-throughs and stops the writer.
// Events appended after Close are kept in memory only.
func (el *EventLog) Close() {
	if el.queue == nil {
		return
	}
	el.closeOnce.Do(func() {
		el.mu.Lock()
		el.closed = true
		close(el.queue)
		el.mu.Unlock()
		<-el.done
	})
}

// GetByActor returns all events performed by a specific actor.
func (el *EventLog) GetByActor(actorID string) []Event {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []Event
	for _, e := range el.events {
		if e.ActorID == actorID {
			result = append(result, e)
		}
	}
	return result
}

// GetByType returns all events of the given type.
func (el *EventLog) GetByType(t EventType) []Event {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []Event
	for _, e := range el.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// Since returns a copy of the events appended after the first offset events.
// Offsets count every event ever appended, so a reader that fell behind the
// retention window resumes at the oldest event still held.
func (el *EventLog) Since(offset int) []Event {
	out, _ := el.Tail(offset)
	return out
}

// Tail is Since plus the offset to pass on the next call.
func (el *EventLog) Tail(offset int) ([]Event, int) {
	el.mu.RLock()
	defer el.mu.RUnlock()

	next := el.trimmed + len(el.events)
	offset -= el.trimmed
	if offset < 0 {
		offset = 0
	}
	if offset >= len(el.events) {
		return nil, next
	}
	out := make([]Event, len(el.events)-offset)
	copy(out, el.events[offset:])
	return out, next
}

// Replay returns every event still held in memory.
func (el *EventLog) Replay() []Event {
	return el.Since(0)
}

// Len returns the number of events appended so far, including trimmed ones.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.trimmed + len(el.events)
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
