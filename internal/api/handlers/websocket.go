package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"collab-service/internal/services"
	ws "collab-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients send no Origin header; the token gate still
		// applies to them.
		return true
	}

	allowed := []string{
		"http://localhost:3000",
		"https://localhost:3000",
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1:3000",
		"http://127.0.0.1",
	}
	if custom := os.Getenv("ALLOWED_ORIGINS"); custom != "" {
		for _, o := range strings.Split(custom, ",") {
			allowed = append(allowed, strings.TrimSpace(o))
		}
	}

	for _, o := range allowed {
		if origin == o {
			return true
		}
	}
	return false
}

type WebSocketHandler struct {
	hub          *ws.Hub
	gate         *ws.Gate
	messageStore ws.MessageStore
	presence     *services.RedisService
}

func NewWebSocketHandler(hub *ws.Hub, gate *ws.Gate, messageStore ws.MessageStore, presence *services.RedisService) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, gate: gate, messageStore: messageStore, presence: presence}
}

// markOnline and markOffline keep the Redis presence index in step with the
// connection lifecycle. Presence failures never reject a connection.
func (h *WebSocketHandler) markOnline(ctx context.Context, userID uint) {
	if err := h.presence.SetUserOnline(ctx, userID); err != nil {
		slog.Warn("presence update failed", "user_id", userID, "error", err)
	}
}

func (h *WebSocketHandler) markOffline(ctx context.Context, userID uint) {
	if err := h.presence.SetUserOffline(ctx, userID); err != nil {
		slog.Warn("presence update failed", "user_id", userID, "error", err)
	}
}

// reject closes an upgraded connection with an application close code before
// any client was admitted to the hub.
func reject(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(5 * time.Second)
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
	_ = conn.Close()
}

// HandleChatWS godoc
// @Summary Real-time chat connection for a channel
// @Description Upgrades to WebSocket. Authenticates via the token query parameter, verifies channel membership, then relays message and typing frames. Closes with 4401 when unauthenticated and 4403 when not a member.
// @Tags websocket
// @Param channel_id path int true "Channel ID"
// @Param token query string true "JWT token"
// @Success 101 "Switching protocols"
// @Router /ws/chat/{channel_id} [get]
func (h *WebSocketHandler) HandleChatWS(c *gin.Context) {
	channelID, err := strconv.ParseUint(c.Param("channel_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid channel ID"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	principal, err := h.gate.Authenticate(c.Query("token"))
	if err != nil {
		reject(conn, ws.CloseUnauthenticated, "authentication required")
		return
	}

	if err := h.gate.AuthorizeChannel(c.Request.Context(), principal, uint(channelID)); err != nil {
		switch {
		case errors.Is(err, ws.ErrForbidden):
			reject(conn, ws.CloseForbidden, "not a channel member")
		default:
			slog.Error("channel authorization failed", "error", err, "channel_id", channelID)
			reject(conn, ws.CloseInternalError, "internal error")
		}
		return
	}

	client := ws.NewClient(h.hub, conn, principal.UserID, principal.Username)
	topic := ws.ChannelTopic(uint(channelID))
	h.hub.Admit(topic, client)

	h.markOnline(c.Request.Context(), principal.UserID)
	slog.Info("chat connection opened",
		"user_id", principal.UserID,
		"channel_id", channelID,
	)

	go client.WritePump()

	session := ws.NewChannelSession(h.hub, client, h.messageStore, uint(channelID))
	session.Run(c.Request.Context())

	// The request context may already be gone once the socket drops.
	h.markOffline(context.Background(), principal.UserID)
	slog.Info("chat connection closed",
		"user_id", principal.UserID,
		"channel_id", channelID,
	)
}

// HandleNotificationsWS godoc
// @Summary Real-time notification stream for the authenticated user
// @Description Upgrades to WebSocket and pushes notification.created events for the token's user. Closes with 4401 when unauthenticated.
// @Tags websocket
// @Param token query string true "JWT token"
// @Success 101 "Switching protocols"
// @Router /api/ws/notifications [get]
func (h *WebSocketHandler) HandleNotificationsWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	principal, err := h.gate.Authenticate(c.Query("token"))
	if err != nil {
		reject(conn, ws.CloseUnauthenticated, "authentication required")
		return
	}

	client := ws.NewClient(h.hub, conn, principal.UserID, principal.Username)
	h.hub.Admit(ws.UserTopic(principal.UserID), client)

	h.markOnline(c.Request.Context(), principal.UserID)
	slog.Info("notification connection opened", "user_id", principal.UserID)

	go client.WritePump()

	if err := client.Send(ws.ConnectedEvent{
		Type:     ws.EventTypeConnected,
		UserID:   principal.UserID,
		Username: principal.Username,
	}); err != nil {
		slog.Warn("connected event not delivered", "user_id", principal.UserID, "error", err)
	}

	client.ReadUntilClose()

	h.markOffline(context.Background(), principal.UserID)
	slog.Info("notification connection closed", "user_id", principal.UserID)
}
