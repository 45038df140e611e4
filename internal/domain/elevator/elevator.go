// Package elevator defines the domain entity for a single elevator car.
// This package is PURE and must NOT import any infrastructure packages.
package elevator

import (
	"errors"
	"fmt"
)

// Direction is the travel state of a car.
type Direction string

const (
	DirectionUp   Direction = "Up"
	DirectionDown Direction = "Down"
	DirectionIdle Direction = "Idle"
)

// GroundFloor is where every car starts.
const GroundFloor = 1

var (
	ErrInvalidCapacity  = errors.New("capacity must be greater than zero")
	ErrCapacityExceeded = errors.New("exceeds capacity")
	ErrInsufficientLoad = errors.New("cannot unload more people than currently inside")
	ErrNegativeCount    = errors.New("number of people must not be negative")
)

// Observer receives movement and door signals from a car.
// All methods are called synchronously from the goroutine that drives the car.
type Observer interface {
	FloorPassed(id, floor int, dir Direction)
	Arrived(id, floor int)
	DoorsOpened(id, floor int)
	DoorsClosed(id, floor int)
}

// Status is a read-only view of a car.
type Status struct {
	ID        int       `json:"id"`
	Floor     int       `json:"floor"`
	Direction Direction `json:"direction"`
	Load      int       `json:"load"`
	Capacity  int       `json:"capacity"`
}

// String renders the status line shown to operators.
func (s Status) String() string {
	return fmt.Sprintf("Elevator %d on floor %d, %s direction, %d/%d people.",
		s.ID, s.Floor, s.Direction, s.Load, s.Capacity)
}

// Elevator is a single car. Floor and direction only change through MoveTo,
// load only through Load and Unload.
type Elevator struct {
	id        int
	floor     int
	direction Direction
	capacity  int
	load      int
	observer  Observer
}

// New creates an idle, empty car on the ground floor.
func New(id, capacity int) (*Elevator, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("elevator %d: %w", id, ErrInvalidCapacity)
	}
	return &Elevator{
		id:        id,
		floor:     GroundFloor,
		direction: DirectionIdle,
		capacity:  capacity,
	}, nil
}

// SetObserver attaches the sink for movement and door signals. nil disables them.
func (e *Elevator) SetObserver(o Observer) {
	e.observer = o
}

func (e *Elevator) ID() int              { return e.id }
func (e *Elevator) Floor() int           { return e.floor }
func (e *Elevator) Direction() Direction { return e.direction }
func (e *Elevator) Capacity() int        { return e.capacity }
func (e *Elevator) CurrentLoad() int     { return e.load }

// IsIdle reports whether the car is not mid-movement.
func (e *Elevator) IsIdle() bool {
	return e.direction == DirectionIdle
}

// HasSpareCapacity reports whether at least one more person fits.
func (e *Elevator) HasSpareCapacity() bool {
	return e.load < e.capacity
}

// SpareCapacity is how many more people fit.
func (e *Elevator) SpareCapacity() int {
	return e.capacity - e.load
}

// MoveTo travels one floor at a time to target, then opens the doors.
// Moving to the current floor only opens the doors.
func (e *Elevator) MoveTo(target int) {
	switch {
	case target > e.floor:
		e.direction = DirectionUp
	case target < e.floor:
		e.direction = DirectionDown
	default:
		e.direction = DirectionIdle
	}

	for e.floor != target {
		if e.direction == DirectionUp {
			e.floor++
		} else {
			e.floor--
		}
		if e.observer != nil && e.floor != target {
			e.observer.FloorPassed(e.id, e.floor, e.direction)
		}
	}

	e.direction = DirectionIdle
	if e.observer != nil {
		e.observer.Arrived(e.id, e.floor)
	}
	e.openDoors()
}

// Load boards n people. The load is left untouched when the car would overflow.
func (e *Elevator) Load(n int) error {
	if n < 0 {
		return ErrNegativeCount
	}
	if e.load+n > e.capacity {
		return fmt.Errorf("elevator %d cannot load %d people (%d/%d): %w",
			e.id, n, e.load, e.capacity, ErrCapacityExceeded)
	}
	e.load += n
	e.openDoors()
	e.closeDoors()
	return nil
}

// Unload lets n people off.
func (e *Elevator) Unload(n int) error {
	if n < 0 {
		return ErrNegativeCount
	}
	if n > e.load {
		return fmt.Errorf("elevator %d cannot unload %d people (%d inside): %w",
			e.id, n, e.load, ErrInsufficientLoad)
	}
	e.load -= n
	e.openDoors()
	e.closeDoors()
	return nil
}

// Status returns a snapshot without mutating the car.
func (e *Elevator) Status() Status {
	return Status{
		ID:        e.id,
		Floor:     e.floor,
		Direction: e.direction,
		Load:      e.load,
		Capacity:  e.capacity,
	}
}

func (e *Elevator) openDoors() {
	if e.observer != nil {
		e.observer.DoorsOpened(e.id, e.floor)
	}
}

func (e *Elevator) closeDoors() {
	if e.observer != nil {
		e.observer.DoorsClosed(e.id, e.floor)
	}
}
