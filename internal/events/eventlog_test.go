package events

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

type memPersister struct {
	mu     sync.Mutex
	stored []Event
	fail   bool
}

func (m *memPersister) Append(e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("disk full")
	}
	m.stored = append(m.stored, e)
	return nil
}

func TestAppendFillsIDAndTimestamp(t *testing.T) {
	el := NewEventLog(nil)
	e := el.Append(Event{Type: EventTypeDispatched, ActorID: "ELEVATOR_1"})

	if e.ID == "" {
		t.Errorf("expected generated ID")
	}
	if e.Timestamp.IsZero() {
		t.Errorf("expected timestamp")
	}
	if el.Len() != 1 {
		t.Errorf("expected 1 event, got %d", el.Len())
	}
}

func TestQueries(t *testing.T) {
	el := NewEventLog(nil)
	el.Append(Event{Type: EventTypeDispatched, ActorID: "ELEVATOR_1"})
	el.Append(Event{Type: EventTypeArrived, ActorID: "ELEVATOR_1"})
	el.Append(Event{Type: EventTypeDispatched, ActorID: "ELEVATOR_2"})

	if got := len(el.GetByActor("ELEVATOR_1")); got != 2 {
		t.Errorf("expected 2 events for ELEVATOR_1, got %d", got)
	}
	if got := len(el.GetByType(EventTypeDispatched)); got != 2 {
		t.Errorf("expected 2 dispatch events, got %d", got)
	}
	since := el.Since(1)
	if len(since) != 2 || since[0].Type != EventTypeArrived {
		t.Errorf("unexpected Since(1) result %+v", since)
	}
	if el.Since(3) != nil || el.Since(10) != nil {
		t.Errorf("expected nil past the end")
	}
}

func TestWriteThroughPreservesOrder(t *testing.T) {
	p := &memPersister{}
	el := NewEventLog(p)
	for i := 0; i < 50; i++ {
		el.Append(Event{Type: EventTypeFloorPassed, Payload: i})
	}
	el.Close()

	if len(p.stored) != 50 {
		t.Fatalf("expected 50 persisted events, got %d", len(p.stored))
	}
	for i, e := range p.stored {
		if e.Payload.(int) != i {
			t.Fatalf("event %d persisted out of order: %v", i, e.Payload)
		}
	}
}

func TestPersistErrorsAreReported(t *testing.T) {
	p := &memPersister{fail: true}
	el := NewEventLog(p)

	var mu sync.Mutex
	failures := 0
	el.OnPersistError(func(Event, error) {
		mu.Lock()
		failures++
		mu.Unlock()
	})

	el.Append(Event{Type: EventTypeArrived})
	el.Append(Event{Type: EventTypeArrived})
	el.Close()

	if failures != 2 {
		t.Errorf("expected 2 reported failures, got %d", failures)
	}
	if el.Len() != 2 {
		t.Errorf("in-memory log should keep events despite persist failures")
	}
}

func TestConcurrentAppend(t *testing.T) {
	el := NewEventLog(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				el.Append(Event{Type: EventTypeFloorPassed})
			}
		}()
	}
	wg.Wait()
	if el.Len() != 800 {
		t.Errorf("expected 800 events, got %d", el.Len())
	}
}

func TestAppendAfterCloseStaysInMemory(t *testing.T) {
	p := &memPersister{}
	el := NewEventLog(p)
	el.Append(Event{Type: EventTypeArrived})
	el.Close()
	el.Close()

	el.Append(Event{Type: EventTypeDoorsOpened})
	if el.Len() != 2 {
		t.Errorf("expected 2 events in memory, got %d", el.Len())
	}
	if len(p.stored) != 1 {
		t.Errorf("expected only the first event persisted, got %d", len(p.stored))
	}
}

func TestRetentionKeepsOffsetsAbsolute(t *testing.T) {
	p := &memPersister{}
	el := NewEventLog(p)
	el.SetRetention(10)

	for i := 0; i < 25; i++ {
		el.Append(Event{Type: EventTypeFloorPassed, TargetID: fmt.Sprint(i)})
	}
	el.Close()

	if el.Len() != 25 {
		t.Errorf("Len should count every append, got %d", el.Len())
	}
	held := el.Replay()
	if len(held) < 10 || len(held) >= 20 {
		t.Fatalf("expected between 10 and 19 events held, got %d", len(held))
	}
	if held[len(held)-1].TargetID != "24" {
		t.Errorf("newest event missing, got %s", held[len(held)-1].TargetID)
	}

	tail := el.Since(22)
	if len(tail) != 3 || tail[0].TargetID != "22" {
		t.Errorf("Since(22) = %+v", tail)
	}
	if got := el.Since(0); len(got) != len(held) || got[0].TargetID != held[0].TargetID {
		t.Errorf("a stale offset should resume at the oldest held event")
	}
	if len(p.stored) != 25 {
		t.Errorf("persister should see every event, got %d", len(p.stored))
	}
}

func TestTailReportsNextOffset(t *testing.T) {
	el := NewEventLog(nil)
	el.SetRetention(2)
	for i := 0; i < 5; i++ {
		el.Append(Event{Type: EventTypeArrived})
	}

	batch, next := el.Tail(0)
	if next != 5 || len(batch) != el.Len()-el.trimmed {
		t.Errorf("Tail(0) = %d events, next %d", len(batch), next)
	}
	if batch, next = el.Tail(next); batch != nil || next != 5 {
		t.Errorf("caught-up Tail = %v, %d", batch, next)
	}
}
