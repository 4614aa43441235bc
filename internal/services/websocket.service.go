package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket message types
const (
	MessageAuth        = "auth"
	MessageAuthSuccess = "auth_success"
	MessageAuthError   = "auth_error"
	MessagePing        = "ping"
	MessagePong        = "pong"
	MessageAnalyze     = "analyze"
	MessageAnalysis    = "analysis"
	MessageError       = "error"
)

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	Token     string          `json:"token,omitempty"` // auth messages from the client
}

// NewMessage builds an outgoing message with data encoded as JSON
func NewMessage(typ string, data any) WebSocketMessage {
	msg := WebSocketMessage{Type: typ, Timestamp: time.Now().UTC()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return ErrorMessage("failed to encode " + typ)
		}
		msg.Data = raw
	}
	return msg
}

// ErrorMessage builds an "error" message
func ErrorMessage(text string) WebSocketMessage {
	return WebSocketMessage{Type: MessageError, Timestamp: time.Now().UTC(), Error: text}
}

// ClientConnection represents a connected WebSocket client.
// ID must be unique per connection.
type ClientConnection struct {
	ID     string
	UserID string
	Conn   *websocket.Conn
	Send   chan WebSocketMessage
}

// WebSocketHub tracks connected clients. Send channels are closed only by
// the hub, under its write lock, so Send never writes to a closed channel.
type WebSocketHub struct {
	clients    map[string]*ClientConnection
	register   chan *ClientConnection
	unregister chan string
	done       chan struct{}
	mu         sync.RWMutex
	logger     *slog.Logger
}

// NewWebSocketHub creates a hub; call Run to start it
func NewWebSocketHub(logger *slog.Logger) *WebSocketHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHub{
		clients:    make(map[string]*ClientConnection),
		register:   make(chan *ClientConnection),
		unregister: make(chan string),
		done:       make(chan struct{}),
		logger:     logger.With("component", "websocket"),
	}
}

// Run manages the hub's event loop until ctx is cancelled, then closes every client
func (h *WebSocketHub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client connected", "client", client.ID, "total", total)

		case clientID := <-h.unregister:
			h.mu.Lock()
			if client, exists := h.clients[clientID]; exists {
				delete(h.clients, clientID)
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client disconnected", "client", clientID, "total", total)
		}
	}
}

func (h *WebSocketHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		close(client.Send)
		delete(h.clients, id)
	}
}

// Register adds a new client to the hub. It reports false once the hub has stopped.
func (h *WebSocketHub) Register(client *ClientConnection) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *WebSocketHub) Unregister(clientID string) {
	select {
	case h.unregister <- clientID:
	case <-h.done:
	}
}

// Send queues msg for one client. It reports false if the client is gone or
// its queue is full.
func (h *WebSocketHub) Send(clientID string, msg WebSocketMessage) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, exists := h.clients[clientID]
	if !exists {
		return false
	}
	select {
	case client.Send <- msg:
		return true
	default:
		return false
	}
}

// Count returns the number of connected clients
func (h *WebSocketHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
