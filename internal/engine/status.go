package engine

import (
	"fmt"
	"time"

	"github.com/tiendc/go-deepcopy"

	"github.com/MRamiBalles/ElevatorBank/internal/domain/elevator"
	"github.com/MRamiBalles/ElevatorBank/internal/domain/floor"
)

// BuildingSnapshot is a point-in-time copy of the whole bank, safe to hand to
// other goroutines and to serialize.
type BuildingSnapshot struct {
	Initialized bool              `json:"initialized"`
	Elevators   []elevator.Status `json:"elevators"`
	Floors      []floor.Status    `json:"floors"`
	LastCall    *CallResult       `json:"last_call,omitempty"`
	TakenAt     time.Time         `json:"taken_at"`
}

// ReportAllStatuses returns every car's status in collection order.
func (d *Dispatcher) ReportAllStatuses() ([]elevator.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkInitialized(); err != nil {
		return nil, d.reject("status", err)
	}
	return d.elevatorStatuses(), nil
}

// Floors returns every floor's status in collection order.
func (d *Dispatcher) Floors() ([]floor.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkInitialized(); err != nil {
		return nil, d.reject("floors", err)
	}
	return d.floorStatuses(), nil
}

// LastCall returns a copy of the most recent bulk call result, or nil.
func (d *Dispatcher) LastCall() (*CallResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.copyLastCall()
}

// Snapshot copies the full state. It never fails on an uninitialized bank;
// Initialized is false and the collections are empty instead.
func (d *Dispatcher) Snapshot() (BuildingSnapshot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	last, err := d.copyLastCall()
	if err != nil {
		return BuildingSnapshot{}, err
	}
	return BuildingSnapshot{
		Initialized: d.initialized,
		Elevators:   d.elevatorStatuses(),
		Floors:      d.floorStatuses(),
		LastCall:    last,
		TakenAt:     time.Now(),
	}, nil
}

func (d *Dispatcher) copyLastCall() (*CallResult, error) {
	if d.lastCall == nil {
		return nil, nil
	}
	out := *d.lastCall
	out.Assignments = nil
	if err := deepcopy.Copy(&out.Assignments, d.lastCall.Assignments); err != nil {
		return nil, fmt.Errorf("failed to copy last call: %w", err)
	}
	return &out, nil
}

func (d *Dispatcher) elevatorStatuses() []elevator.Status {
	out := make([]elevator.Status, 0, len(d.elevators))
	for _, e := range d.elevators {
		out = append(out, e.Status())
	}
	return out
}

func (d *Dispatcher) floorStatuses() []floor.Status {
	out := make([]floor.Status, 0, len(d.floors))
	for _, f := range d.floors {
		out = append(out, f.Status())
	}
	return out
}
