package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MRamiBalles/ElevatorBank/internal/domain/elevator"
	"github.com/MRamiBalles/ElevatorBank/internal/events"
)

// ErrNegativePassengers is returned by CallElevator for a negative head count.
var ErrNegativePassengers = errors.New("number of passengers must not be negative")

// Assignment is one car's share of a bulk call.
type Assignment struct {
	ElevatorID int    `json:"elevator_id"`
	Passengers int    `json:"passengers"`
	Loaded     bool   `json:"loaded"`
	Error      string `json:"error,omitempty"`
}

// CallResult summarises a completed bulk call.
type CallResult struct {
	Floor       int          `json:"floor"`
	Requested   int          `json:"requested"`
	Transported int          `json:"transported"`
	Assignments []Assignment `json:"assignments"`
	CompletedAt time.Time    `json:"completed_at"`
}

// splitEvenly divides total across n cars: everyone gets the quotient and the
// first total%n cars get one more.
func splitEvenly(total, n int) []int {
	shares := make([]int, n)
	if n == 0 {
		return shares
	}
	quotient, remainder := total/n, total%n
	for i := range shares {
		shares[i] = quotient
		if i < remainder {
			shares[i]++
		}
	}
	return shares
}

// CallElevator sends every available car (idle with spare room) to floorNumber
// and boards an even share of totalPassengers into each. Each car runs on its
// own goroutine; the call returns once all of them have finished.
//
// A car with a zero share still answers the call but does not board anyone.
// A car whose share exceeds its spare room leaves its load unchanged and
// contributes nothing. In that case the full result is still returned together
// with an error wrapping ErrBulkCallIncomplete.
func (d *Dispatcher) CallElevator(floorNumber, totalPassengers int) (CallResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkInitialized(); err != nil {
		return CallResult{}, d.reject("call", err)
	}
	if _, err := d.findFloor(floorNumber); err != nil {
		return CallResult{}, d.reject("call", err)
	}
	if totalPassengers < 0 {
		return CallResult{}, d.reject("call", fmt.Errorf("%d: %w", totalPassengers, ErrNegativePassengers))
	}

	var available []*elevator.Elevator
	for _, e := range d.elevators {
		if e.IsIdle() && e.HasSpareCapacity() {
			available = append(available, e)
		}
	}
	d.metrics.RecordRequest()
	if len(available) == 0 {
		d.metrics.RecordNoElevator()
		d.emit(events.EventTypeNoElevatorAvailable, dispatcherActor, floorActor(floorNumber), nil)
		d.logger.Warnf("No available elevators for bulk call at floor %d", floorNumber)
		return CallResult{}, fmt.Errorf("floor %d: %w", floorNumber, ErrNoElevatorAvailable)
	}

	shares := splitEvenly(totalPassengers, len(available))
	result := CallResult{
		Floor:       floorNumber,
		Requested:   totalPassengers,
		Assignments: make([]Assignment, len(available)),
	}

	// transported is the only state shared between the goroutines below.
	// Each goroutine owns exactly one car and one Assignments slot.
	var (
		totalMu     sync.Mutex
		transported int
		g           errgroup.Group
	)
	for i, e := range available {
		share := shares[i]
		result.Assignments[i] = Assignment{ElevatorID: e.ID(), Passengers: share}

		d.metrics.RecordDispatch(abs(e.Floor() - floorNumber))
		g.Go(func() error {
			e.MoveTo(floorNumber)
			if share == 0 {
				result.Assignments[i].Loaded = true
				return nil
			}
			if err := e.Load(share); err != nil {
				result.Assignments[i].Error = err.Error()
				return err
			}
			result.Assignments[i].Loaded = true
			d.recordLoad(e, share)

			totalMu.Lock()
			transported += share
			totalMu.Unlock()
			return nil
		})
	}
	waitErr := g.Wait()

	result.Transported = transported
	result.CompletedAt = time.Now()
	d.lastCall = &result

	d.metrics.RecordBulkCall(transported)
	d.emit(events.EventTypeBulkCallCompleted, dispatcherActor, floorActor(floorNumber), map[string]int{
		"requested":   totalPassengers,
		"transported": transported,
		"elevators":   len(available),
	})
	d.logger.Infof("Bulk call at floor %d finished: %d/%d passengers transported by %d elevators",
		floorNumber, transported, totalPassengers, len(available))

	if waitErr != nil {
		d.logger.Warnf("Bulk call at floor %d incomplete: %v", floorNumber, waitErr)
		return result, fmt.Errorf("%w: %w", ErrBulkCallIncomplete, waitErr)
	}
	return result, nil
}
