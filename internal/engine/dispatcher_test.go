package engine

import (
	"errors"
	"testing"

	"github.com/MRamiBalles/ElevatorBank/internal/domain/elevator"
	"github.com/MRamiBalles/ElevatorBank/internal/domain/floor"
	"github.com/MRamiBalles/ElevatorBank/internal/events"
	"github.com/MRamiBalles/ElevatorBank/internal/platform/logger"
)

func newTestDispatcher(t *testing.T, elevators, floors, capacity int) *Dispatcher {
	t.Helper()
	d := NewDispatcher(events.NewEventLog(nil), logger.Discard(), nil)
	if err := d.Initialize(elevators, floors, capacity); err != nil {
		t.Fatalf("Initialize(%d, %d, %d) failed: %v", elevators, floors, capacity, err)
	}
	return d
}

func TestInitializeRejectsBadConfiguration(t *testing.T) {
	cases := []struct {
		name                        string
		elevators, floors, capacity int
	}{
		{"no elevators", 0, 5, 4},
		{"one floor", 2, 1, 4},
		{"zero capacity", 2, 5, 0},
	}
	for _, tc := range cases {
		d := NewDispatcher(nil, nil, nil)
		err := d.Initialize(tc.elevators, tc.floors, tc.capacity)
		if !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("%s: expected ErrInvalidConfiguration, got %v", tc.name, err)
		}
		if !IsSetupError(err) {
			t.Errorf("%s: expected setup error", tc.name)
		}
		if d.Initialized() {
			t.Errorf("%s: dispatcher should stay uninitialized", tc.name)
		}
		if _, err := d.RequestNearestElevator(1); !errors.Is(err, ErrNotInitialized) {
			t.Errorf("%s: expected ErrNotInitialized, got %v", tc.name, err)
		}
	}
}

func TestFailedReinitializeKeepsState(t *testing.T) {
	d := newTestDispatcher(t, 2, 5, 4)
	_, _ = d.RequestNearestElevator(4)

	if err := d.Initialize(0, 5, 4); err == nil {
		t.Fatal("expected error")
	}
	statuses, err := d.ReportAllStatuses()
	if err != nil {
		t.Fatalf("ReportAllStatuses failed: %v", err)
	}
	if len(statuses) != 2 || statuses[0].Floor != 4 {
		t.Errorf("state was disturbed by failed Initialize: %+v", statuses)
	}
}

func TestInitializeCreatesCollections(t *testing.T) {
	d := newTestDispatcher(t, 3, 6, 5)

	statuses, _ := d.ReportAllStatuses()
	if len(statuses) != 3 {
		t.Fatalf("expected 3 elevators, got %d", len(statuses))
	}
	for i, s := range statuses {
		if s.ID != i+1 || s.Floor != 1 || s.Direction != elevator.DirectionIdle || s.Load != 0 || s.Capacity != 5 {
			t.Errorf("unexpected initial status %+v", s)
		}
	}
	floors, _ := d.Floors()
	if len(floors) != 6 || floors[0].Number != 1 || floors[5].Number != 6 {
		t.Errorf("unexpected floors %+v", floors)
	}
}

func TestOperationsBeforeInitialize(t *testing.T) {
	d := NewDispatcher(nil, nil, nil)
	checks := map[string]error{}
	_, checks["request"] = d.RequestNearestElevator(1)
	_, checks["move"] = d.MoveElevatorToFloor(1, 2)
	_, checks["add people"] = d.AddPeopleToFloor(1, 1)
	_, checks["remove people"] = d.RemovePeopleFromFloor(1, 1)
	_, checks["load"] = d.LoadPeopleIntoElevator(1, 1)
	_, checks["unload"] = d.UnloadPeopleOutOfElevator(1, 1)
	_, checks["status"] = d.ReportAllStatuses()
	_, checks["call"] = d.CallElevator(1, 1)
	checks["add floor"] = d.AddFloor(3)
	checks["remove elevator"] = d.RemoveElevator(1)

	for op, err := range checks {
		if !errors.Is(err, ErrNotInitialized) {
			t.Errorf("%s: expected ErrNotInitialized, got %v", op, err)
		}
	}
}

func TestRequestNearestScenario(t *testing.T) {
	d := newTestDispatcher(t, 2, 5, 4)

	// Both cars start on floor 1; the first in order wins the tie.
	s, err := d.RequestNearestElevator(3)
	if err != nil {
		t.Fatalf("RequestNearestElevator(3) failed: %v", err)
	}
	if s.ID != 1 || s.Floor != 3 || s.Direction != elevator.DirectionIdle {
		t.Errorf("expected elevator 1 idle at floor 3, got %+v", s)
	}

	// Elevator 1 is now at distance 0.
	s, err = d.RequestNearestElevator(3)
	if err != nil {
		t.Fatalf("second RequestNearestElevator(3) failed: %v", err)
	}
	if s.ID != 1 {
		t.Errorf("expected elevator 1 again, got %d", s.ID)
	}

	// Elevator 2 on floor 1 is closer to floor 1.
	s, _ = d.RequestNearestElevator(1)
	if s.ID != 2 {
		t.Errorf("expected elevator 2 for floor 1, got %d", s.ID)
	}
}

func TestRequestNearestPicksMinimumDistance(t *testing.T) {
	d := newTestDispatcher(t, 3, 10, 4)
	_ = d.AddElevator(4, 4)

	// Spread cars: 1 on 9, 2 on 5, 3 on 2, 4 on the ground floor.
	d.mu.Lock()
	d.elevators[0].MoveTo(9)
	d.elevators[1].MoveTo(5)
	d.elevators[2].MoveTo(2)
	d.mu.Unlock()

	cases := []struct{ floor, want int }{
		{10, 1},
		{6, 2},
		{3, 3}, // car 3 on 2 (dist 1) beats car 4 on 1 (dist 2)
		{1, 4},
	}
	for _, tc := range cases {
		s, err := d.RequestNearestElevator(tc.floor)
		if err != nil {
			t.Fatalf("RequestNearestElevator(%d) failed: %v", tc.floor, err)
		}
		if s.ID != tc.want {
			t.Errorf("floor %d: expected elevator %d, got %d", tc.floor, tc.want, s.ID)
		}
	}
}

func TestSelectNearestTieGoesToFirst(t *testing.T) {
	a, _ := elevator.New(1, 4)
	b, _ := elevator.New(2, 4)
	a.MoveTo(2)
	b.MoveTo(4)

	got := selectNearest([]*elevator.Elevator{a, b}, 3, (*elevator.Elevator).IsIdle)
	if got != a {
		t.Errorf("expected first car on tie, got %d", got.ID())
	}
	got = selectNearest([]*elevator.Elevator{b, a}, 3, (*elevator.Elevator).IsIdle)
	if got != b {
		t.Errorf("expected first car on tie, got %d", got.ID())
	}
}

func TestNoElevatorAvailableWhenNoneIdle(t *testing.T) {
	a, _ := elevator.New(1, 4)
	b, _ := elevator.New(2, 4)
	none := func(*elevator.Elevator) bool { return false }

	if got := selectNearest([]*elevator.Elevator{a, b}, 1, none); got != nil {
		t.Errorf("expected no selection, got %d", got.ID())
	}

	d := newTestDispatcher(t, 1, 3, 4)
	_ = d.RemoveElevator(1)
	_, err := d.RequestNearestElevator(2)
	if !errors.Is(err, ErrNoElevatorAvailable) {
		t.Errorf("expected ErrNoElevatorAvailable, got %v", err)
	}
	if len(d.EventLog().GetByType(events.EventTypeNoElevatorAvailable)) != 1 {
		t.Errorf("expected NO_ELEVATOR_AVAILABLE to be journaled")
	}
}

func TestRequestUnknownFloor(t *testing.T) {
	d := newTestDispatcher(t, 2, 5, 4)
	for _, f := range []int{0, 6, -1} {
		if _, err := d.RequestNearestElevator(f); !errors.Is(err, ErrUnknownFloor) {
			t.Errorf("floor %d: expected ErrUnknownFloor, got %v", f, err)
		}
	}
	statuses, _ := d.ReportAllStatuses()
	for _, s := range statuses {
		if s.Floor != 1 {
			t.Errorf("no car should have moved, got %+v", s)
		}
	}
}

func TestMoveElevatorToFloor(t *testing.T) {
	d := newTestDispatcher(t, 2, 8, 4)

	s, err := d.MoveElevatorToFloor(3, 7)
	if err != nil {
		t.Fatalf("MoveElevatorToFloor failed: %v", err)
	}
	if s.ID != 1 || s.Floor != 7 || s.Direction != elevator.DirectionIdle {
		t.Errorf("expected elevator 1 idle on 7, got %+v", s)
	}

	if _, err := d.MoveElevatorToFloor(3, 9); !errors.Is(err, ErrUnknownFloor) {
		t.Errorf("expected ErrUnknownFloor for destination, got %v", err)
	}
	if _, err := d.MoveElevatorToFloor(0, 2); !errors.Is(err, ErrUnknownFloor) {
		t.Errorf("expected ErrUnknownFloor for origin, got %v", err)
	}
	statuses, _ := d.ReportAllStatuses()
	if statuses[0].Floor != 7 || statuses[1].Floor != 1 {
		t.Errorf("invalid moves must not move cars: %+v", statuses)
	}
}

func TestMoveSkipsDestinationWithoutElevator(t *testing.T) {
	d := newTestDispatcher(t, 1, 4, 4)
	_ = d.RemoveElevator(1)

	if _, err := d.MoveElevatorToFloor(2, 4); !errors.Is(err, ErrNoElevatorAvailable) {
		t.Errorf("expected ErrNoElevatorAvailable, got %v", err)
	}
	if len(d.EventLog().GetByType(events.EventTypeDispatched)) != 0 {
		t.Errorf("nothing should have been dispatched")
	}
}

func TestFloorPeople(t *testing.T) {
	d := newTestDispatcher(t, 1, 3, 4)

	s, err := d.AddPeopleToFloor(2, 5)
	if err != nil || s.Waiting != 5 {
		t.Fatalf("AddPeopleToFloor: got %+v, %v", s, err)
	}
	_, err = d.RemovePeopleFromFloor(2, 6)
	if !errors.Is(err, floor.ErrInsufficientPeople) {
		t.Errorf("expected ErrInsufficientPeople, got %v", err)
	}
	if !IsBusinessRule(err) {
		t.Errorf("expected business rule classification for %v", err)
	}
	s, err = d.RemovePeopleFromFloor(2, 2)
	if err != nil || s.Waiting != 3 {
		t.Errorf("RemovePeopleFromFloor: got %+v, %v", s, err)
	}
	if _, err := d.AddPeopleToFloor(9, 1); !errors.Is(err, ErrUnknownFloor) {
		t.Errorf("expected ErrUnknownFloor, got %v", err)
	}
	if _, err := d.RemovePeopleFromFloor(9, 1); !IsLookupMiss(err) {
		t.Errorf("expected lookup miss, got %v", err)
	}
}

func TestLoadAndUnload(t *testing.T) {
	d := newTestDispatcher(t, 2, 3, 4)

	s, err := d.LoadPeopleIntoElevator(2, 3)
	if err != nil || s.Load != 3 {
		t.Fatalf("LoadPeopleIntoElevator: got %+v, %v", s, err)
	}
	_, err = d.LoadPeopleIntoElevator(2, 2)
	if !errors.Is(err, elevator.ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded, got %v", err)
	}
	if !IsBusinessRule(err) {
		t.Errorf("capacity errors are business rule violations")
	}
	if _, err := d.UnloadPeopleOutOfElevator(2, 4); !errors.Is(err, elevator.ErrInsufficientLoad) {
		t.Errorf("expected ErrInsufficientLoad, got %v", err)
	}
	s, err = d.UnloadPeopleOutOfElevator(2, 3)
	if err != nil || s.Load != 0 {
		t.Errorf("UnloadPeopleOutOfElevator: got %+v, %v", s, err)
	}
	if _, err := d.LoadPeopleIntoElevator(7, 1); !errors.Is(err, ErrUnknownElevator) {
		t.Errorf("expected ErrUnknownElevator, got %v", err)
	}
}

func TestAddAndRemoveFloors(t *testing.T) {
	d := newTestDispatcher(t, 1, 3, 4)

	if err := d.AddFloor(4); err != nil {
		t.Fatalf("AddFloor(4) failed: %v", err)
	}
	if err := d.AddFloor(4); !errors.Is(err, ErrDuplicateFloor) {
		t.Errorf("expected ErrDuplicateFloor, got %v", err)
	}
	if _, err := d.RequestNearestElevator(4); err != nil {
		t.Errorf("new floor should be servable: %v", err)
	}
	if err := d.RemoveFloor(4); !errors.Is(err, ErrFloorOccupied) {
		t.Errorf("expected ErrFloorOccupied, got %v", err)
	}
	if _, err := d.RequestNearestElevator(1); err != nil {
		t.Fatalf("RequestNearestElevator(1) failed: %v", err)
	}
	if err := d.RemoveFloor(4); err != nil {
		t.Errorf("RemoveFloor(4) failed: %v", err)
	}
	if err := d.RemoveFloor(4); !errors.Is(err, ErrUnknownFloor) {
		t.Errorf("expected ErrUnknownFloor, got %v", err)
	}
	if _, err := d.RequestNearestElevator(4); !errors.Is(err, ErrUnknownFloor) {
		t.Errorf("removed floor should be unknown, got %v", err)
	}
}

func TestFloorsStayContiguous(t *testing.T) {
	d := newTestDispatcher(t, 1, 3, 4)

	if err := d.AddFloor(10); !errors.Is(err, ErrFloorGap) {
		t.Fatalf("expected ErrFloorGap, got %v", err)
	}
	if _, err := d.RequestNearestElevator(10); !errors.Is(err, ErrUnknownFloor) {
		t.Errorf("rejected floor must stay unknown, got %v", err)
	}
	if err := d.RemoveFloor(2); !errors.Is(err, ErrFloorGap) {
		t.Errorf("removing a middle floor: expected ErrFloorGap, got %v", err)
	}
	if err := d.AddFloor(4); err != nil {
		t.Fatalf("AddFloor(4) failed: %v", err)
	}

	before := len(d.EventLog().GetByType(events.EventTypeFloorPassed))
	if _, err := d.RequestNearestElevator(4); err != nil {
		t.Fatalf("RequestNearestElevator(4) failed: %v", err)
	}
	passed := d.EventLog().GetByType(events.EventTypeFloorPassed)[before:]
	if len(passed) != 2 || passed[0].TargetID != "FLOOR_2" || passed[1].TargetID != "FLOOR_3" {
		t.Errorf("expected to pass floors 2 and 3, got %+v", passed)
	}

	floors, _ := d.Floors()
	for i, f := range floors {
		if f.Number != i+1 {
			t.Fatalf("floors are not contiguous: %+v", floors)
		}
	}
}

func TestAddAndRemoveElevators(t *testing.T) {
	d := newTestDispatcher(t, 1, 3, 4)

	if err := d.AddElevator(5, 10); err != nil {
		t.Fatalf("AddElevator failed: %v", err)
	}
	if err := d.AddElevator(5, 10); !errors.Is(err, ErrDuplicateElevator) {
		t.Errorf("expected ErrDuplicateElevator, got %v", err)
	}
	if err := d.AddElevator(6, 0); !errors.Is(err, elevator.ErrInvalidCapacity) {
		t.Errorf("expected ErrInvalidCapacity, got %v", err)
	}
	statuses, _ := d.ReportAllStatuses()
	if len(statuses) != 2 || statuses[1].ID != 5 || statuses[1].Capacity != 10 {
		t.Errorf("unexpected statuses %+v", statuses)
	}
	if err := d.RemoveElevator(1); err != nil {
		t.Errorf("RemoveElevator(1) failed: %v", err)
	}
	if err := d.RemoveElevator(1); !errors.Is(err, ErrUnknownElevator) {
		t.Errorf("expected ErrUnknownElevator, got %v", err)
	}
	s, _ := d.RequestNearestElevator(3)
	if s.ID != 5 {
		t.Errorf("expected the remaining elevator 5, got %d", s.ID)
	}
}

func TestMovementIsJournaled(t *testing.T) {
	d := newTestDispatcher(t, 1, 5, 4)
	_, _ = d.RequestNearestElevator(4)

	el := d.EventLog()
	if got := len(el.GetByType(events.EventTypeFloorPassed)); got != 2 {
		t.Errorf("expected 2 floor-passed events, got %d", got)
	}
	if got := len(el.GetByType(events.EventTypeArrived)); got != 1 {
		t.Errorf("expected 1 arrival, got %d", got)
	}
	if got := len(el.GetByType(events.EventTypeDoorsOpened)); got != 1 {
		t.Errorf("expected doors to open once, got %d", got)
	}
	dispatched := el.GetByType(events.EventTypeDispatched)
	if len(dispatched) != 1 || dispatched[0].ActorID != "ELEVATOR_1" || dispatched[0].TargetID != "FLOOR_4" {
		t.Errorf("unexpected dispatch events %+v", dispatched)
	}
}

func TestSnapshot(t *testing.T) {
	d := NewDispatcher(nil, nil, nil)
	snap, err := d.Snapshot()
	if err != nil || snap.Initialized || len(snap.Elevators) != 0 {
		t.Errorf("unexpected snapshot before init: %+v, %v", snap, err)
	}

	_ = d.Initialize(2, 4, 4)
	_, _ = d.AddPeopleToFloor(3, 2)
	snap, _ = d.Snapshot()
	if !snap.Initialized || len(snap.Elevators) != 2 || snap.Floors[2].Waiting != 2 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if snap.LastCall != nil {
		t.Errorf("expected no bulk call yet")
	}
}
