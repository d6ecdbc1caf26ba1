package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// EventsWebSocketHandler streams session progress events over WebSocket
type EventsWebSocketHandler struct {
	session      SessionController
	logger       *zap.Logger
	pingInterval time.Duration

	mu      sync.Mutex
	clients int
}

// NewEventsWebSocketHandler creates a new WebSocket handler
func NewEventsWebSocketHandler(session SessionController, log *zap.Logger) *EventsWebSocketHandler {
	return &EventsWebSocketHandler{
		session:      session,
		logger:       log,
		pingInterval: 30 * time.Second,
	}
}

// Clients returns the number of connected clients
func (h *EventsWebSocketHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clients
}

// HandleWebSocket handles GET /api/v1/session/events
func (h *EventsWebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	events, unsubscribe := h.session.Subscribe()
	defer unsubscribe()

	h.mu.Lock()
	h.clients++
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.clients--
		h.mu.Unlock()
	}()

	h.logger.Info("WebSocket client connected", zap.String("remote_addr", c.Request.RemoteAddr))

	// Send the current snapshot so late joiners see where the run is
	if err := conn.WriteJSON(h.session.Status()); err != nil {
		h.logger.Debug("Failed to send session snapshot", zap.Error(err))
		return
	}

	// Read messages from client (for close and pong handling)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Debug("Failed to send progress event", zap.Error(err))
				return
			}

		case <-ticker.C:
			// Send ping to keep connection alive
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}
