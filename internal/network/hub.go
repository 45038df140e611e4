package network

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/MRamiBalles/ElevatorBank/internal/engine"
	"github.com/MRamiBalles/ElevatorBank/internal/events"
	"github.com/MRamiBalles/ElevatorBank/internal/platform/config"
	"github.com/MRamiBalles/ElevatorBank/internal/platform/logger"
	"github.com/MRamiBalles/ElevatorBank/internal/platform/metrics"
)

// Message kinds pushed to WebSocket clients.
const (
	KindEvent  = "EVENT"
	KindResult = "RESULT"
)

// Envelope is the only frame shape the server writes. Exactly one of Event
// and Result is set, matching Kind.
type Envelope struct {
	Kind   string         `json:"kind"`
	Event  *events.Event  `json:"event,omitempty"`
	Result *CommandResult `json:"result,omitempty"`
}

// Hub maintains the set of active clients and broadcasts journal events to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex

	dispatcher *engine.Dispatcher
	logger     *logger.Logger
	metrics    *metrics.Collector
	cfg        config.HubConfig
}

// NewHub initializes a new WebSocket Hub routing client commands to d.
func NewHub(d *engine.Dispatcher, log *logger.Logger, m *metrics.Collector, cfg config.HubConfig) *Hub {
	if log == nil {
		log = logger.Discard()
	}
	if m == nil {
		m = metrics.NewCollector()
	}
	if cfg.ClientSendBuffer <= 0 {
		cfg.ClientSendBuffer = 64
	}
	if cfg.BroadcastBuffer <= 0 {
		cfg.BroadcastBuffer = 256
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 200 * time.Millisecond
	}
	return &Hub{
		broadcast:  make(chan []byte, cfg.BroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		dispatcher: d,
		logger:     log,
		metrics:    m,
		cfg:        cfg,
	}
}

// Run starts the Hub's main loop to handle client connections and broadcasts.
// It must be called at most once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.RecordWSConnection(1)
			h.logger.Info("New WebSocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.metrics.RecordWSConnection(-1)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
					h.metrics.RecordWSMessage(false)
				default:
					// Slow consumer: drop it rather than stall every other client.
					close(client.send)
					delete(h.clients, client)
					h.metrics.RecordWSConnection(-1)
					h.metrics.RecordWSError()
					h.logger.Warn("Dropped slow WebSocket client")
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) add(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// BroadcastEvent serializes event and queues it for every connected client.
func (h *Hub) BroadcastEvent(ctx context.Context, event events.Event) {
	payload, err := json.Marshal(Envelope{Kind: KindEvent, Event: &event})
	if err != nil {
		h.logger.Errorf("Failed to serialize event %s for WebSocket broadcast: %v", event.ID, err)
		return
	}
	select {
	case h.broadcast <- payload:
	case <-ctx.Done():
	case <-h.done:
	}
}

// StartEventPoller spawns a goroutine that tails the EventLog and pushes new
// events to the Hub, so dispatch never blocks on slow sockets.
func (h *Hub) StartEventPoller(ctx context.Context, eventLog *events.EventLog) {
	go func() {
		ticker := time.NewTicker(h.cfg.PollInterval)
		defer ticker.Stop()

		offset := eventLog.Len()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				var batch []events.Event
				batch, offset = eventLog.Tail(offset)
				for _, event := range batch {
					h.BroadcastEvent(ctx, event)
				}
			}
		}
	}()
}
