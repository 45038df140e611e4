package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/MRamiBalles/ElevatorBank/internal/engine"
	"github.com/MRamiBalles/ElevatorBank/internal/infra/storage"
	"github.com/MRamiBalles/ElevatorBank/internal/platform/logger"
	"github.com/MRamiBalles/ElevatorBank/internal/platform/metrics"
)

const (
	defaultJournalLimit = 50
	maxJournalLimit     = 1000
)

var (
	errBadBody   = errors.New("invalid payload")
	errBadAction = errors.New("unknown action")
)

// JournalReader is the read side of the audit journal used by /api/journal.
type JournalReader interface {
	Recent(ctx context.Context, limit int) ([]storage.JournalEvent, error)
}

// StatusCode maps a dispatcher error to the HTTP status returned for it.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, engine.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case engine.IsLookupMiss(err):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidConfiguration),
		errors.Is(err, engine.ErrNegativePassengers),
		errors.Is(err, ErrUnknownCommand),
		errors.Is(err, errBadBody),
		errors.Is(err, errBadAction):
		return http.StatusBadRequest
	case engine.IsBusinessRule(err),
		errors.Is(err, engine.ErrNoElevatorAvailable),
		errors.Is(err, engine.ErrBulkCallIncomplete),
		errors.Is(err, engine.ErrDuplicateFloor),
		errors.Is(err, engine.ErrDuplicateElevator),
		errors.Is(err, engine.ErrFloorOccupied),
		errors.Is(err, engine.ErrFloorGap):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// API serves the JSON control surface of the elevator bank.
type API struct {
	dispatcher *engine.Dispatcher
	hub        *Hub
	journal    JournalReader
	metrics    *metrics.Collector
	logger     *logger.Logger
}

// NewAPI builds the HTTP surface. hub and journal may be nil, in which case
// /ws and /api/journal are not served.
func NewAPI(d *engine.Dispatcher, hub *Hub, journal JournalReader, m *metrics.Collector, log *logger.Logger) *API {
	if log == nil {
		log = logger.Discard()
	}
	if m == nil {
		m = metrics.NewCollector()
	}
	return &API{dispatcher: d, hub: hub, journal: journal, metrics: m, logger: log}
}

// Routes registers every endpoint on a new mux.
func (a *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", a.handleStatus)
	mux.HandleFunc("POST /api/initialize", a.handleInitialize)
	mux.HandleFunc("POST /api/request", a.handleRequest)
	mux.HandleFunc("POST /api/move", a.handleMove)
	mux.HandleFunc("POST /api/floors/people", a.handleFloorPeople)
	mux.HandleFunc("POST /api/elevators/passengers", a.handlePassengers)
	mux.HandleFunc("POST /api/call", a.handleCall)
	if a.journal != nil {
		mux.HandleFunc("GET /api/journal", a.handleJournal)
	}
	if a.hub != nil {
		mux.HandleFunc("GET /ws", a.hub.ServeWS)
	}
	mux.Handle("GET /metrics", a.metrics.Handler())
	mux.Handle("GET /metrics/prometheus", a.metrics.PrometheusHandler())
	return mux
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap, err := a.dispatcher.Snapshot()
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *API) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Elevators int `json:"elevators"`
		Floors    int `json:"floors"`
		Capacity  int `json:"capacity"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.dispatcher.Initialize(req.Elevators, req.Floors, req.Capacity); err != nil {
		a.writeError(w, err)
		return
	}
	statuses, err := a.dispatcher.ReportAllStatuses()
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statuses)
}

func (a *API) handleRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Floor int `json:"floor"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	status, err := a.dispatcher.RequestNearestElevator(req.Floor)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (a *API) handleMove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From int `json:"from"`
		To   int `json:"to"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	status, err := a.dispatcher.MoveElevatorToFloor(req.From, req.To)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (a *API) handleFloorPeople(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Floor  int    `json:"floor"`
		Count  int    `json:"count"`
		Action string `json:"action"`
	}
	if !a.decode(w, r, &req) {
		return
	}

	var cmd Command
	switch req.Action {
	case "add":
		cmd = Command{Type: CommandAddPeople, Floor: req.Floor, Count: req.Count}
	case "remove":
		cmd = Command{Type: CommandRemovePeople, Floor: req.Floor, Count: req.Count}
	default:
		a.writeError(w, fmt.Errorf("%q: %w", req.Action, errBadAction))
		return
	}
	a.writeResult(w, Execute(a.dispatcher, cmd))
}

func (a *API) handlePassengers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Elevator int    `json:"elevator"`
		Count    int    `json:"count"`
		Action   string `json:"action"`
	}
	if !a.decode(w, r, &req) {
		return
	}

	var cmd Command
	switch req.Action {
	case "load":
		cmd = Command{Type: CommandLoad, Elevator: req.Elevator, Count: req.Count}
	case "unload":
		cmd = Command{Type: CommandUnload, Elevator: req.Elevator, Count: req.Count}
	default:
		a.writeError(w, fmt.Errorf("%q: %w", req.Action, errBadAction))
		return
	}
	a.writeResult(w, Execute(a.dispatcher, cmd))
}

func (a *API) handleCall(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Floor      int `json:"floor"`
		Passengers int `json:"passengers"`
	}
	if !a.decode(w, r, &req) {
		return
	}
	result, err := a.dispatcher.CallElevator(req.Floor, req.Passengers)
	if err != nil {
		body := map[string]interface{}{"error": err.Error()}
		if len(result.Assignments) > 0 {
			body["result"] = result
		}
		writeJSON(w, StatusCode(err), body)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleJournal(w http.ResponseWriter, r *http.Request) {
	limit := defaultJournalLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			a.writeError(w, fmt.Errorf("limit %q: %w", raw, errBadBody))
			return
		}
		limit = min(n, maxJournalLimit)
	}

	entries, err := a.journal.Recent(r.Context(), limit)
	if err != nil {
		a.logger.Errorf("Journal query failed: %v", err)
		a.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []storage.JournalEvent{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// writeResult turns a CommandResult from Execute into an HTTP response.
func (a *API) writeResult(w http.ResponseWriter, res CommandResult) {
	if !res.OK {
		writeJSON(w, res.Code, map[string]string{"error": res.Error})
		return
	}
	switch {
	case res.Elevator != nil:
		writeJSON(w, http.StatusOK, res.Elevator)
	case res.Floor != nil:
		writeJSON(w, http.StatusOK, res.Floor)
	default:
		writeJSON(w, http.StatusOK, res)
	}
}

func (a *API) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		a.writeError(w, fmt.Errorf("%w: %v", errBadBody, err))
		return false
	}
	return true
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusCode(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
