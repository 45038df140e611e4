// Package metrics provides observability for the elevator bank.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers dispatch and transport counters.
type Collector struct {
	// Dispatch metrics
	Requests         int64
	Dispatches       int64
	NoElevator       int64
	Rejections       int64
	FloorsTravelled  int64
	PassengersLoaded int64
	PassengersOff    int64

	// Bulk call metrics
	BulkCalls       int64
	BulkTransported int64

	// Journal metrics
	JournalWrites int64
	JournalLatSum int64 // nanoseconds
	JournalLatMax int64
	JournalErrors int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// System
	StartTime    time.Time
	LastDispatch time.Time
	mu           sync.RWMutex
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{StartTime: time.Now()}
}

// RecordRequest counts an incoming dispatch request.
func (c *Collector) RecordRequest() {
	atomic.AddInt64(&c.Requests, 1)
}

// RecordDispatch records a car being sent and how many floors it covered.
func (c *Collector) RecordDispatch(floors int) {
	atomic.AddInt64(&c.Dispatches, 1)
	c.RecordTravel(floors)

	c.mu.Lock()
	c.LastDispatch = time.Now()
	c.mu.Unlock()
}

// RecordTravel adds floors covered outside a dispatch, e.g. the second leg of a move.
func (c *Collector) RecordTravel(floors int) {
	if floors < 0 {
		floors = -floors
	}
	atomic.AddInt64(&c.FloorsTravelled, int64(floors))
}

// RecordNoElevator counts a request nothing could serve.
func (c *Collector) RecordNoElevator() {
	atomic.AddInt64(&c.NoElevator, 1)
}

// RecordRejection counts a business-rule or lookup failure.
func (c *Collector) RecordRejection() {
	atomic.AddInt64(&c.Rejections, 1)
}

// RecordPassengers records boarding (positive) or alighting (negative) people.
func (c *Collector) RecordPassengers(delta int) {
	if delta >= 0 {
		atomic.AddInt64(&c.PassengersLoaded, int64(delta))
	} else {
		atomic.AddInt64(&c.PassengersOff, int64(-delta))
	}
}

// RecordBulkCall records a completed CallElevator fan-out.
func (c *Collector) RecordBulkCall(transported int) {
	atomic.AddInt64(&c.BulkCalls, 1)
	atomic.AddInt64(&c.BulkTransported, int64(transported))
}

// RecordJournalWrite records an event write to the database.
func (c *Collector) RecordJournalWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.JournalWrites, 1)
	atomic.AddInt64(&c.JournalLatSum, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.JournalLatMax) {
		atomic.StoreInt64(&c.JournalLatMax, int64(latency))
	}

	if err != nil {
		atomic.AddInt64(&c.JournalErrors, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	writes := atomic.LoadInt64(&c.JournalWrites)
	var journalAvg float64
	if writes > 0 {
		journalAvg = float64(atomic.LoadInt64(&c.JournalLatSum)) / float64(writes) / 1e6 // ms
	}

	lastDispatch := ""
	if !c.LastDispatch.IsZero() {
		lastDispatch = c.LastDispatch.Format(time.RFC3339)
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"dispatch": map[string]interface{}{
			"requests":          atomic.LoadInt64(&c.Requests),
			"dispatches":        atomic.LoadInt64(&c.Dispatches),
			"no_elevator":       atomic.LoadInt64(&c.NoElevator),
			"rejections":        atomic.LoadInt64(&c.Rejections),
			"floors_travelled":  atomic.LoadInt64(&c.FloorsTravelled),
			"passengers_loaded": atomic.LoadInt64(&c.PassengersLoaded),
			"passengers_off":    atomic.LoadInt64(&c.PassengersOff),
			"last_dispatch":     lastDispatch,
		},

		"bulk": map[string]interface{}{
			"calls":       atomic.LoadInt64(&c.BulkCalls),
			"transported": atomic.LoadInt64(&c.BulkTransported),
		},

		"journal": map[string]interface{}{
			"written":          writes,
			"avg_write_lat_ms": journalAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.JournalLatMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.JournalErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus text format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		counter := func(name, help string, v int64) {
			fmt.Fprintf(w, "# HELP %s %s\n", name, help)
			fmt.Fprintf(w, "# TYPE %s counter\n", name)
			fmt.Fprintf(w, "%s %d\n\n", name, v)
		}

		counter("elevator_requests_total", "Total dispatch requests", atomic.LoadInt64(&c.Requests))
		counter("elevator_dispatches_total", "Total cars dispatched", atomic.LoadInt64(&c.Dispatches))
		counter("elevator_no_elevator_total", "Requests with no idle car", atomic.LoadInt64(&c.NoElevator))
		counter("elevator_rejections_total", "Rejected operations", atomic.LoadInt64(&c.Rejections))
		counter("elevator_floors_travelled_total", "Floors travelled by all cars", atomic.LoadInt64(&c.FloorsTravelled))
		counter("elevator_bulk_calls_total", "Completed bulk calls", atomic.LoadInt64(&c.BulkCalls))
		counter("elevator_journal_errors_total", "Journal write errors", atomic.LoadInt64(&c.JournalErrors))

		fmt.Fprintf(w, "# HELP elevator_passengers_total Passengers moved through doors\n")
		fmt.Fprintf(w, "# TYPE elevator_passengers_total counter\n")
		fmt.Fprintf(w, "elevator_passengers_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.PassengersLoaded))
		fmt.Fprintf(w, "elevator_passengers_total{direction=\"out\"} %d\n\n", atomic.LoadInt64(&c.PassengersOff))

		fmt.Fprintf(w, "# HELP elevator_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE elevator_ws_connections gauge\n")
		fmt.Fprintf(w, "elevator_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP elevator_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE elevator_ws_messages_total counter\n")
		fmt.Fprintf(w, "elevator_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "elevator_ws_messages_total{direction=\"out\"} %d\n", atomic.LoadInt64(&c.WSMessagesOut))
	}
}
