// Package test holds the soak harness run by cmd/test-runner. It hammers a
// Dispatcher from many goroutines and checks the bank's invariants afterwards.
package test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/MRamiBalles/ElevatorBank/internal/domain/elevator"
	"github.com/MRamiBalles/ElevatorBank/internal/engine"
	"github.com/MRamiBalles/ElevatorBank/internal/events"
	"github.com/MRamiBalles/ElevatorBank/internal/platform/logger"
	"github.com/MRamiBalles/ElevatorBank/internal/platform/metrics"
)

// SoakConfig sizes a soak run.
type SoakConfig struct {
	Elevators  int
	Floors     int
	Capacity   int
	Workers    int
	Operations int // per worker
	BulkRounds int
	Seed       int64
}

// DefaultSoakConfig is what cmd/test-runner uses without flags.
func DefaultSoakConfig() SoakConfig {
	return SoakConfig{
		Elevators:  4,
		Floors:     20,
		Capacity:   8,
		Workers:    16,
		Operations: 500,
		BulkRounds: 100,
		Seed:       1,
	}
}

// TestResult captures the outcome of one scenario.
type TestResult struct {
	ScenarioName string
	Passed       bool
	Reason       string
}

// SoakTest runs the soak scenarios against fresh dispatchers.
type SoakTest struct {
	cfg     SoakConfig
	logger  *logger.Logger
	metrics *metrics.Collector
	results []TestResult
}

// NewSoakTest creates the harness. log may be nil.
func NewSoakTest(cfg SoakConfig, log *logger.Logger) *SoakTest {
	if log == nil {
		log = logger.Discard()
	}
	return &SoakTest{cfg: cfg, logger: log, metrics: metrics.NewCollector()}
}

// RunTest executes every scenario in order.
func (t *SoakTest) RunTest(ctx context.Context) {
	scenarios := []struct {
		name string
		run  func(context.Context) error
	}{
		{"Concurrent operations", t.concurrentOperations},
		{"Bulk call conservation", t.bulkConservation},
		{"Journal ordering", t.journalOrdering},
	}
	for _, s := range scenarios {
		if ctx.Err() != nil {
			t.record(s.name, ctx.Err())
			continue
		}
		t.logger.Infof("Running scenario: %s", s.name)
		t.record(s.name, s.run(ctx))
	}
}

// GetResults returns all scenario results.
func (t *SoakTest) GetResults() []TestResult {
	return t.results
}

// Metrics exposes the counters gathered across every scenario.
func (t *SoakTest) Metrics() *metrics.Collector {
	return t.metrics
}

func (t *SoakTest) record(name string, err error) {
	r := TestResult{ScenarioName: name, Passed: err == nil, Reason: "ok"}
	if err != nil {
		r.Reason = err.Error()
	}
	t.results = append(t.results, r)
}

func (t *SoakTest) newDispatcher() (*engine.Dispatcher, error) {
	d := engine.NewDispatcher(events.NewEventLog(nil), t.logger, t.metrics)
	return d, d.Initialize(t.cfg.Elevators, t.cfg.Floors, t.cfg.Capacity)
}

// concurrentOperations fires random operations from many workers and then
// checks that every car is idle, in range and within capacity.
func (t *SoakTest) concurrentOperations(ctx context.Context) error {
	d, err := t.newDispatcher()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < t.cfg.Workers; w++ {
		rng := rand.New(rand.NewSource(t.cfg.Seed + int64(w)))
		g.Go(func() error {
			for i := 0; i < t.cfg.Operations; i++ {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if err := t.randomOperation(d, rng); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	statuses, err := d.ReportAllStatuses()
	if err != nil {
		return err
	}
	for _, s := range statuses {
		if s.Direction != elevator.DirectionIdle {
			return fmt.Errorf("elevator %d left %s", s.ID, s.Direction)
		}
		if s.Floor < 1 || s.Floor > t.cfg.Floors {
			return fmt.Errorf("elevator %d on impossible floor %d", s.ID, s.Floor)
		}
		if s.Load < 0 || s.Load > s.Capacity {
			return fmt.Errorf("elevator %d holds %d/%d", s.ID, s.Load, s.Capacity)
		}
	}
	return nil
}

// randomOperation runs one operation. Expected rejections are swallowed;
// anything else is a failure.
func (t *SoakTest) randomOperation(d *engine.Dispatcher, rng *rand.Rand) error {
	floorNumber := rng.Intn(t.cfg.Floors) + 1
	id := rng.Intn(t.cfg.Elevators) + 1
	n := rng.Intn(t.cfg.Capacity) + 1

	var err error
	switch rng.Intn(7) {
	case 0:
		_, err = d.RequestNearestElevator(floorNumber)
	case 1:
		_, err = d.MoveElevatorToFloor(floorNumber, rng.Intn(t.cfg.Floors)+1)
	case 2:
		_, err = d.LoadPeopleIntoElevator(id, n)
	case 3:
		_, err = d.UnloadPeopleOutOfElevator(id, n)
	case 4:
		_, err = d.AddPeopleToFloor(floorNumber, n)
	case 5:
		_, err = d.RemovePeopleFromFloor(floorNumber, n)
	case 6:
		_, err = d.CallElevator(floorNumber, n)
	}
	if err == nil || engine.IsBusinessRule(err) ||
		errors.Is(err, engine.ErrNoElevatorAvailable) ||
		errors.Is(err, engine.ErrBulkCallIncomplete) {
		return nil
	}
	return err
}

// bulkConservation checks that a bulk call never loses or invents passengers.
func (t *SoakTest) bulkConservation(ctx context.Context) error {
	rng := rand.New(rand.NewSource(t.cfg.Seed))
	for round := 0; round < t.cfg.BulkRounds; round++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d, err := t.newDispatcher()
		if err != nil {
			return err
		}

		total := rng.Intn(t.cfg.Elevators*t.cfg.Capacity) + 1
		result, err := d.CallElevator(rng.Intn(t.cfg.Floors)+1, total)
		if err != nil {
			return fmt.Errorf("round %d: %w", round, err)
		}

		statuses, _ := d.ReportAllStatuses()
		aboard := 0
		for _, s := range statuses {
			aboard += s.Load
		}
		if result.Transported != total || aboard != total {
			return fmt.Errorf("round %d: requested %d, transported %d, aboard %d",
				round, total, result.Transported, aboard)
		}
	}
	return nil
}

// journalOrdering checks that every car's journal is a clean run of
// arrival followed by door-open, one pair per served request.
func (t *SoakTest) journalOrdering(ctx context.Context) error {
	d, err := t.newDispatcher()
	if err != nil {
		return err
	}

	var (
		wg     sync.WaitGroup
		served atomic.Int64
	)
	for w := 0; w < t.cfg.Workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(t.cfg.Seed + int64(w)))
			for i := 0; i < t.cfg.Operations/10 && ctx.Err() == nil; i++ {
				if _, err := d.RequestNearestElevator(rng.Intn(t.cfg.Floors) + 1); err == nil {
					served.Add(1)
				}
			}
		}(w)
	}
	wg.Wait()

	arrivals := 0
	for id := 1; id <= t.cfg.Elevators; id++ {
		var b strings.Builder
		for _, e := range d.EventLog().GetByActor(fmt.Sprintf("ELEVATOR_%d", id)) {
			switch e.Type {
			case events.EventTypeArrived:
				b.WriteByte('A')
			case events.EventTypeDoorsOpened:
				b.WriteByte('O')
			case events.EventTypeDoorsClosed:
				b.WriteByte('C')
			}
		}
		journey := b.String()
		if journey != strings.Repeat("AO", len(journey)/2) {
			return fmt.Errorf("elevator %d has a broken journal: %s", id, journey)
		}
		arrivals += len(journey) / 2
	}
	if int64(arrivals) != served.Load() {
		return fmt.Errorf("%d requests served but %d arrivals journaled", served.Load(), arrivals)
	}
	return nil
}
