// Package engine contains the dispatcher that owns every car and floor in the bank.
// Shells (console, HTTP, WebSocket) only ever talk to the Dispatcher.
package engine

import (
	"fmt"
	"sync"

	"github.com/MRamiBalles/ElevatorBank/internal/domain/elevator"
	"github.com/MRamiBalles/ElevatorBank/internal/domain/floor"
	"github.com/MRamiBalles/ElevatorBank/internal/events"
	"github.com/MRamiBalles/ElevatorBank/internal/platform/logger"
	"github.com/MRamiBalles/ElevatorBank/internal/platform/metrics"
)

const dispatcherActor = "DISPATCHER"

// Dispatcher is the central coordinator. It exclusively owns the elevator and
// floor collections; entities are only reachable through id/number lookup.
//
// Every public method holds mu for its whole duration, so concurrent shells
// see one operation at a time. CallElevator fans out internally while holding it.
type Dispatcher struct {
	mu sync.Mutex

	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector

	initialized bool
	elevators   []*elevator.Elevator
	floors      []*floor.Floor
	lastCall    *CallResult
}

// NewDispatcher creates an uninitialized dispatcher. metrics may be nil.
func NewDispatcher(eventLog *events.EventLog, log *logger.Logger, m *metrics.Collector) *Dispatcher {
	if eventLog == nil {
		eventLog = events.NewEventLog(nil)
	}
	if log == nil {
		log = logger.Discard()
	}
	if m == nil {
		m = metrics.NewCollector()
	}
	return &Dispatcher{
		eventLog: eventLog,
		logger:   log,
		metrics:  m,
	}
}

// EventLog exposes the journal the dispatcher writes to.
func (d *Dispatcher) EventLog() *events.EventLog {
	return d.eventLog
}

// Initialize (re)creates elevators 1..elevatorCount and floors 1..floorCount.
// On error the previous state, initialized or not, is left untouched.
func (d *Dispatcher) Initialize(elevatorCount, floorCount, capacity int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if elevatorCount < 1 {
		return d.reject("initialize", fmt.Errorf("%w: at least one elevator is required", ErrInvalidConfiguration))
	}
	if floorCount < 2 {
		return d.reject("initialize", fmt.Errorf("%w: at least two floors are required", ErrInvalidConfiguration))
	}
	if capacity < 1 {
		return d.reject("initialize", fmt.Errorf("%w: %w", ErrInvalidConfiguration, elevator.ErrInvalidCapacity))
	}

	elevators := make([]*elevator.Elevator, 0, elevatorCount)
	for id := 1; id <= elevatorCount; id++ {
		e, err := elevator.New(id, capacity)
		if err != nil {
			return d.reject("initialize", fmt.Errorf("%w: %w", ErrInvalidConfiguration, err))
		}
		e.SetObserver(d.observer())
		elevators = append(elevators, e)
	}

	floors := make([]*floor.Floor, 0, floorCount)
	for n := 1; n <= floorCount; n++ {
		f, err := floor.New(n)
		if err != nil {
			return d.reject("initialize", fmt.Errorf("%w: %w", ErrInvalidConfiguration, err))
		}
		floors = append(floors, f)
	}

	d.elevators = elevators
	d.floors = floors
	d.lastCall = nil
	d.initialized = true

	d.emit(events.EventTypeInitialized, dispatcherActor, "", map[string]int{
		"elevators": elevatorCount,
		"floors":    floorCount,
		"capacity":  capacity,
	})
	d.logger.Infof("Elevator bank initialized: %d elevators, %d floors, capacity %d",
		elevatorCount, floorCount, capacity)
	return nil
}

// Initialized reports whether Initialize has succeeded at least once.
func (d *Dispatcher) Initialized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized
}

// RequestNearestElevator sends the closest idle car to floorNumber and returns
// its status after arrival. Ties go to the car listed first.
func (d *Dispatcher) RequestNearestElevator(floorNumber int) (elevator.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkInitialized(); err != nil {
		return elevator.Status{}, d.reject("request", err)
	}
	if _, err := d.findFloor(floorNumber); err != nil {
		return elevator.Status{}, d.reject("request", err)
	}

	e, err := d.requestNearest(floorNumber)
	if err != nil {
		return elevator.Status{}, err
	}
	return e.Status(), nil
}

// MoveElevatorToFloor fetches the nearest idle car to fromFloor, then rides it
// to toFloor. When no car is free the destination leg is skipped.
func (d *Dispatcher) MoveElevatorToFloor(fromFloor, toFloor int) (elevator.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkInitialized(); err != nil {
		return elevator.Status{}, d.reject("move", err)
	}
	if _, err := d.findFloor(fromFloor); err != nil {
		return elevator.Status{}, d.reject("move", err)
	}
	if _, err := d.findFloor(toFloor); err != nil {
		return elevator.Status{}, d.reject("move", err)
	}

	e, err := d.requestNearest(fromFloor)
	if err != nil {
		return elevator.Status{}, err
	}

	d.metrics.RecordTravel(toFloor - e.Floor())
	e.MoveTo(toFloor)
	return e.Status(), nil
}

// requestNearest runs the nearest-idle selection. Caller holds mu and has
// validated floorNumber.
func (d *Dispatcher) requestNearest(floorNumber int) (*elevator.Elevator, error) {
	d.metrics.RecordRequest()

	nearest := selectNearest(d.elevators, floorNumber, (*elevator.Elevator).IsIdle)
	if nearest == nil {
		d.metrics.RecordNoElevator()
		d.emit(events.EventTypeNoElevatorAvailable, dispatcherActor, floorActor(floorNumber), nil)
		d.logger.Warnf("No available elevators for floor %d", floorNumber)
		return nil, fmt.Errorf("floor %d: %w", floorNumber, ErrNoElevatorAvailable)
	}

	distance := abs(nearest.Floor() - floorNumber)
	d.emit(events.EventTypeDispatched, elevatorActor(nearest.ID()), floorActor(floorNumber), map[string]int{
		"from":     nearest.Floor(),
		"to":       floorNumber,
		"distance": distance,
	})
	d.logger.Event(string(events.EventTypeDispatched), elevatorActor(nearest.ID()),
		fmt.Sprintf("moving from floor %d to floor %d", nearest.Floor(), floorNumber))
	d.metrics.RecordDispatch(distance)

	nearest.MoveTo(floorNumber)
	return nearest, nil
}

// selectNearest returns the eligible car with the smallest distance to target.
// Only a strictly smaller distance replaces the current pick, so the first car
// in collection order wins ties.
func selectNearest(cars []*elevator.Elevator, target int, eligible func(*elevator.Elevator) bool) *elevator.Elevator {
	var nearest *elevator.Elevator
	best := 0
	for _, e := range cars {
		if !eligible(e) {
			continue
		}
		dist := abs(e.Floor() - target)
		if nearest == nil || dist < best {
			nearest = e
			best = dist
		}
	}
	return nearest
}

// AddPeopleToFloor adds n people waiting on floorNumber.
func (d *Dispatcher) AddPeopleToFloor(floorNumber, n int) (floor.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, err := d.lookupFloor(floorNumber)
	if err != nil {
		return floor.Status{}, d.reject("add people", err)
	}
	if err := f.AddPeople(n); err != nil {
		return f.Status(), d.reject("add people", fmt.Errorf("floor %d: %w", floorNumber, err))
	}

	d.emit(events.EventTypePeopleAdded, dispatcherActor, floorActor(floorNumber), map[string]int{
		"count":   n,
		"waiting": f.Waiting(),
	})
	d.logger.Infof("%d people added to Floor %d.", n, floorNumber)
	return f.Status(), nil
}

// RemovePeopleFromFloor removes n people waiting on floorNumber.
func (d *Dispatcher) RemovePeopleFromFloor(floorNumber, n int) (floor.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	f, err := d.lookupFloor(floorNumber)
	if err != nil {
		return floor.Status{}, d.reject("remove people", err)
	}
	if err := f.RemovePeople(n); err != nil {
		return f.Status(), d.reject("remove people", err)
	}

	d.emit(events.EventTypePeopleRemoved, dispatcherActor, floorActor(floorNumber), map[string]int{
		"count":   n,
		"waiting": f.Waiting(),
	})
	d.logger.Infof("%d people removed from Floor %d.", n, floorNumber)
	return f.Status(), nil
}

// LoadPeopleIntoElevator boards n people into car id.
func (d *Dispatcher) LoadPeopleIntoElevator(id, n int) (elevator.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, err := d.lookupElevator(id)
	if err != nil {
		return elevator.Status{}, d.reject("load", err)
	}
	if err := e.Load(n); err != nil {
		return e.Status(), d.reject("load", err)
	}
	d.recordLoad(e, n)
	return e.Status(), nil
}

// UnloadPeopleOutOfElevator lets n people off car id.
func (d *Dispatcher) UnloadPeopleOutOfElevator(id, n int) (elevator.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, err := d.lookupElevator(id)
	if err != nil {
		return elevator.Status{}, d.reject("unload", err)
	}
	if err := e.Unload(n); err != nil {
		return e.Status(), d.reject("unload", err)
	}

	d.metrics.RecordPassengers(-n)
	d.emit(events.EventTypePassengersUnloaded, elevatorActor(id), floorActor(e.Floor()), map[string]int{
		"count": n,
		"load":  e.CurrentLoad(),
	})
	d.logger.Infof("%d people unloaded from Elevator %d.", n, id)
	return e.Status(), nil
}

func (d *Dispatcher) recordLoad(e *elevator.Elevator, n int) {
	d.metrics.RecordPassengers(n)
	d.emit(events.EventTypePassengersLoaded, elevatorActor(e.ID()), floorActor(e.Floor()), map[string]int{
		"count": n,
		"load":  e.CurrentLoad(),
	})
	d.logger.Infof("%d people loaded into Elevator %d.", n, e.ID())
}

// AddFloor puts a new floor on top of the building. Only the floor right
// above the current top is accepted so cars never pass through missing floors.
func (d *Dispatcher) AddFloor(number int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkInitialized(); err != nil {
		return d.reject("add floor", err)
	}
	if _, err := d.findFloor(number); err == nil {
		return d.reject("add floor", fmt.Errorf("floor %d: %w", number, ErrDuplicateFloor))
	}
	if top := d.topFloor(); number != top+1 {
		return d.reject("add floor", fmt.Errorf("floor %d, top is %d: %w", number, top, ErrFloorGap))
	}
	f, err := floor.New(number)
	if err != nil {
		return d.reject("add floor", err)
	}

	d.floors = append(d.floors, f)
	d.emit(events.EventTypeFloorAdded, dispatcherActor, floorActor(number), nil)
	d.logger.Infof("Floor %d added.", number)
	return nil
}

// RemoveFloor drops the top floor. A floor with a car standing on it cannot be
// removed, and the ground floor always stays.
func (d *Dispatcher) RemoveFloor(number int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkInitialized(); err != nil {
		return d.reject("remove floor", err)
	}
	idx, err := d.findFloor(number)
	if err != nil {
		return d.reject("remove floor", err)
	}
	if top := d.topFloor(); number != top || number == elevator.GroundFloor {
		return d.reject("remove floor", fmt.Errorf("floor %d, top is %d: %w", number, top, ErrFloorGap))
	}
	for _, e := range d.elevators {
		if e.Floor() == number {
			return d.reject("remove floor", fmt.Errorf("floor %d, elevator %d: %w", number, e.ID(), ErrFloorOccupied))
		}
	}

	d.floors = append(d.floors[:idx], d.floors[idx+1:]...)
	d.emit(events.EventTypeFloorRemoved, dispatcherActor, floorActor(number), nil)
	d.logger.Infof("Floor %d removed.", number)
	return nil
}

// AddElevator puts a new empty car on the ground floor.
func (d *Dispatcher) AddElevator(id, capacity int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkInitialized(); err != nil {
		return d.reject("add elevator", err)
	}
	if _, err := d.findElevator(id); err == nil {
		return d.reject("add elevator", fmt.Errorf("elevator %d: %w", id, ErrDuplicateElevator))
	}
	if _, err := d.findFloor(elevator.GroundFloor); err != nil {
		return d.reject("add elevator", err)
	}
	e, err := elevator.New(id, capacity)
	if err != nil {
		return d.reject("add elevator", fmt.Errorf("%w: %w", ErrInvalidConfiguration, err))
	}

	e.SetObserver(d.observer())
	d.elevators = append(d.elevators, e)
	d.emit(events.EventTypeElevatorAdded, elevatorActor(id), "", map[string]int{"capacity": capacity})
	d.logger.Infof("Elevator %d added with capacity %d.", id, capacity)
	return nil
}

// RemoveElevator takes a car out of service.
func (d *Dispatcher) RemoveElevator(id int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkInitialized(); err != nil {
		return d.reject("remove elevator", err)
	}
	idx, err := d.findElevator(id)
	if err != nil {
		return d.reject("remove elevator", err)
	}

	d.elevators[idx].SetObserver(nil)
	d.elevators = append(d.elevators[:idx], d.elevators[idx+1:]...)
	d.emit(events.EventTypeElevatorRemoved, elevatorActor(id), "", nil)
	d.logger.Infof("Elevator %d removed.", id)
	return nil
}

func (d *Dispatcher) checkInitialized() error {
	if !d.initialized {
		return ErrNotInitialized
	}
	return nil
}

func (d *Dispatcher) findFloor(number int) (int, error) {
	for i, f := range d.floors {
		if f.Number() == number {
			return i, nil
		}
	}
	return -1, fmt.Errorf("floor %d: %w", number, ErrUnknownFloor)
}

func (d *Dispatcher) topFloor() int {
	top := 0
	for _, f := range d.floors {
		top = max(top, f.Number())
	}
	return top
}

func (d *Dispatcher) findElevator(id int) (int, error) {
	for i, e := range d.elevators {
		if e.ID() == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("elevator %d: %w", id, ErrUnknownElevator)
}

func (d *Dispatcher) lookupFloor(number int) (*floor.Floor, error) {
	if err := d.checkInitialized(); err != nil {
		return nil, err
	}
	idx, err := d.findFloor(number)
	if err != nil {
		return nil, err
	}
	return d.floors[idx], nil
}

func (d *Dispatcher) lookupElevator(id int) (*elevator.Elevator, error) {
	if err := d.checkInitialized(); err != nil {
		return nil, err
	}
	idx, err := d.findElevator(id)
	if err != nil {
		return nil, err
	}
	return d.elevators[idx], nil
}

// reject journals a failed operation and hands err back unchanged.
func (d *Dispatcher) reject(op string, err error) error {
	d.metrics.RecordRejection()
	d.emit(events.EventTypeOperationRejected, dispatcherActor, "", map[string]string{
		"operation": op,
		"reason":    err.Error(),
	})
	d.logger.Warnf("%s rejected: %v", op, err)
	return err
}

func (d *Dispatcher) emit(t events.EventType, actor, target string, payload interface{}) {
	d.eventLog.Append(events.Event{
		Type:     t,
		ActorID:  actor,
		TargetID: target,
		Payload:  payload,
	})
}

func elevatorActor(id int) string { return fmt.Sprintf("ELEVATOR_%d", id) }
func floorActor(n int) string     { return fmt.Sprintf("FLOOR_%d", n) }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
