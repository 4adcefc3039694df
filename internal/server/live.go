package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/natya/internal/game"
)

var upgrader = websocket.Upgrader{
	// The server only listens on loopback.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveHandler pushes per-frame score updates to WebSocket clients. Updates
// arrive from the game loop via Publish; there is no polling.
type LiveHandler struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
}

// NewLiveHandler creates a LiveHandler with no clients.
func NewLiveHandler() *LiveHandler {
	return &LiveHandler{clients: make(map[*websocket.Conn]bool)}
}

// ServeHTTP upgrades the connection and keeps it registered until the
// client goes away.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Drain client messages to detect disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Publish sends one update to every connected client. Safe to call with
// no clients connected.
func (h *LiveHandler) Publish(u game.Update) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	for conn := range h.clients {
		if err := conn.WriteJSON(u); err != nil {
			logrus.WithError(err).Debug("dropping live update for client")
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *LiveHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
