package network

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboards are served from other origins
	},
}

// ServeWS upgrades the request and attaches a new client to h.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.metrics.RecordWSError()
		h.logger.Error("Failed to upgrade websocket connection: " + err.Error())
		return
	}

	client := NewClient(h, conn)
	if !client.Register() {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
