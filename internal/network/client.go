package network

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

// Client is a middleman between one WebSocket connection and the hub.
// Broadcast frames arrive on send (owned and closed by the hub); command
// results arrive on results (owned by the client).
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	results chan []byte
}

// NewClient creates a new WebSocket client and returns it.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, hub.cfg.ClientSendBuffer),
		results: make(chan []byte, hub.cfg.ClientSendBuffer),
	}
}

// Register adds the client to the hub. It reports false once the hub has stopped.
func (c *Client) Register() bool {
	return c.hub.add(c)
}

// ReadPump reads commands from the connection, executes them against the
// dispatcher and queues a result frame for each one.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.metrics.RecordWSError()
				c.hub.logger.Warnf("WebSocket read error: %v", err)
			}
			break
		}
		c.hub.metrics.RecordWSMessage(true)

		var result CommandResult
		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.logger.Warn("Failed to parse Command from WebSocket. err: " + err.Error())
			bad := fmt.Errorf("malformed command: %w: %w", errBadBody, err)
			result = CommandResult{Error: bad.Error(), Code: StatusCode(bad)}
		} else {
			result = Execute(c.hub.dispatcher, cmd)
		}
		c.reply(result)
	}
}

func (c *Client) reply(result CommandResult) {
	frame, err := json.Marshal(Envelope{Kind: KindResult, Result: &result})
	if err != nil {
		c.hub.logger.Errorf("Failed to serialize command result: %v", err)
		return
	}
	select {
	case c.results <- frame:
	default:
		c.hub.metrics.RecordWSError()
		c.hub.logger.Warn("Result queue full, dropping command result")
	}
}

// WritePump pumps broadcast frames and command results to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case message := <-c.results:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
			c.hub.metrics.RecordWSMessage(false)
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
