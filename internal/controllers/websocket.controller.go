package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"rigcheck/internal/bottleneck"
	"rigcheck/internal/middleware"
	"rigcheck/internal/models"
	"rigcheck/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const maxMessageSize = 64 * 1024

// WebSocketController answers analyze requests over a persistent connection
type WebSocketController struct {
	hub       *services.WebSocketHub
	auth      *services.AuthService
	analysis  *services.AnalysisService
	validator *middleware.InputValidator
	secLog    *middleware.SecurityLogger
	logger    *slog.Logger
	upgrader  websocket.Upgrader
}

func NewWebSocketController(
	hub *services.WebSocketHub,
	auth *services.AuthService,
	analysis *services.AnalysisService,
	validator *middleware.InputValidator,
	secLog *middleware.SecurityLogger,
	allowedOrigins []string,
	logger *slog.Logger,
) *WebSocketController {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketController{
		hub:       hub,
		auth:      auth,
		analysis:  analysis,
		validator: validator,
		secLog:    secLog,
		logger:    logger.With("component", "websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Non-browser clients send no Origin
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.OriginAllowed(allowedOrigins, origin)
			},
		},
	}
}

// HandleWebSocket authenticates ?token= and serves the connection until it closes
func (wc *WebSocketController) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		wc.secLog.LogFailedAuth(c.ClientIP(), "missing token")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	claims, err := wc.auth.ValidateToken(token)
	if err != nil {
		wc.secLog.LogFailedAuth(c.ClientIP(), "invalid token: "+err.Error())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ws, err := wc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		wc.logger.Warn("upgrade failed", "error", err)
		return
	}
	wc.secLog.LogWebSocketConnected(c.ClientIP(), claims.UserID)

	client := &services.ClientConnection{
		ID:     uuid.NewString(),
		UserID: claims.UserID,
		Conn:   ws,
		Send:   make(chan services.WebSocketMessage, 64),
	}
	if !wc.hub.Register(client) {
		_ = ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		ws.Close()
		return
	}

	go wc.writePump(client)
	wc.readPump(c.Request.Context(), client)
	wc.secLog.LogWebSocketDisconnected(c.ClientIP(), client.ID)
}

// readPump reads messages from the WebSocket client
func (wc *WebSocketController) readPump(ctx context.Context, client *services.ClientConnection) {
	defer func() {
		wc.hub.Unregister(client.ID)
		client.Conn.Close()
	}()
	client.Conn.SetReadLimit(maxMessageSize)

	for {
		var msg services.WebSocketMessage
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				wc.logger.Warn("read error", "client", client.ID, "error", err)
			}
			return
		}

		switch msg.Type {
		case services.MessageAuth:
			wc.hub.Send(client.ID, wc.authReply(client, msg.Token))

		case services.MessagePing:
			wc.hub.Send(client.ID, services.NewMessage(services.MessagePong, nil))

		case services.MessageAnalyze:
			wc.hub.Send(client.ID, wc.analyze(ctx, msg.Data))

		default:
			wc.hub.Send(client.ID, services.ErrorMessage("unknown message type "+msg.Type))
		}
	}
}

func (wc *WebSocketController) authReply(client *services.ClientConnection, token string) services.WebSocketMessage {
	claims, err := wc.auth.ValidateToken(token)
	if err != nil || claims.UserID != client.UserID {
		wc.secLog.LogFailedAuth(client.ID, "websocket auth message rejected")
		return services.NewMessage(services.MessageAuthError, gin.H{"error": "invalid token"})
	}
	return services.NewMessage(services.MessageAuthSuccess, gin.H{"user": claims.UserID})
}

func (wc *WebSocketController) analyze(ctx context.Context, data json.RawMessage) services.WebSocketMessage {
	var req models.AnalysisRequest
	if len(data) == 0 || json.Unmarshal(data, &req) != nil {
		return services.ErrorMessage("analyze expects data {cpu, gpu, ram}")
	}
	if err := wc.validator.ValidateRequest(req); err != nil {
		return services.ErrorMessage(err.Error())
	}

	result, err := wc.analysis.Analyze(ctx, req)
	var unknown *bottleneck.UnknownComponentsError
	switch {
	case errors.As(err, &unknown):
		msg := services.NewMessage(services.MessageError, gin.H{"unknown": unknown.Components})
		msg.Error = "unknown component"
		return msg
	case err != nil:
		return services.ErrorMessage("analysis failed")
	}
	return services.NewMessage(services.MessageAnalysis, result)
}

// writePump writes messages to the WebSocket client until the hub closes its queue
func (wc *WebSocketController) writePump(client *services.ClientConnection) {
	defer client.Conn.Close()

	for msg := range client.Send {
		_ = client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := client.Conn.WriteJSON(msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				wc.logger.Warn("write error", "client", client.ID, "error", err)
			}
			return
		}
	}
	_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
