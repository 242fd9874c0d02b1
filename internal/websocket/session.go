package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"collab-service/internal/models"
)

// MessageStore persists chat records produced by a channel session. The
// store assigns the record its identity and creation time.
type MessageStore interface {
	CreateMessage(ctx context.Context, message *models.Message) error
}

// ChannelSession runs the per-connection protocol for an admitted channel
// client: confirm admission, then decode inbound frames until the transport
// drops. Frames it does not recognize are skipped, not fatal, so newer
// clients can speak to older servers.
type ChannelSession struct {
	hub       *Hub
	client    *Client
	store     MessageStore
	channelID uint
}

func NewChannelSession(hub *Hub, client *Client, store MessageStore, channelID uint) *ChannelSession {
	return &ChannelSession{
		hub:       hub,
		client:    client,
		store:     store,
		channelID: channelID,
	}
}

// Run blocks until the connection terminates. Teardown fires exactly once no
// matter which path ends the loop.
func (s *ChannelSession) Run(ctx context.Context) {
	defer s.client.teardown()

	s.client.prepareRead()

	if err := s.client.Send(ConnectedEvent{
		Type:      EventTypeConnected,
		ChannelID: s.channelID,
		UserID:    s.client.userID,
		Username:  s.client.username,
	}); err != nil {
		return
	}

	for {
		_, data, err := s.client.conn.ReadMessage()
		if err != nil {
			slog.Debug("channel session closed", "channelID", s.channelID, "userID", s.client.userID, "error", err)
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			slog.Debug("dropping malformed frame", "channelID", s.channelID, "userID", s.client.userID, "error", err)
			continue
		}

		switch frame.Type {
		case FrameTypeMessage:
			s.handleMessage(ctx, frame)
		case FrameTypeTyping:
			s.handleTyping(frame)
		default:
			// Unknown frame kinds are ignored; the connection stays open.
		}
	}
}

func (s *ChannelSession) handleMessage(ctx context.Context, frame Frame) {
	message := &models.Message{
		Content:     frame.Content,
		MessageType: models.MessageTypeText,
		SenderID:    s.client.userID,
		ChannelID:   s.channelID,
	}
	if err := s.store.CreateMessage(ctx, message); err != nil {
		slog.Error("failed to persist message", "channelID", s.channelID, "userID", s.client.userID, "error", err)
		return
	}

	// Deliver to every connection on the channel, the sender's other devices
	// included, so multi-device views stay consistent.
	s.hub.Broadcast(ChannelTopic(s.channelID), MessageEvent{
		Type:           EventTypeMessage,
		ID:             message.ID,
		Content:        message.Content,
		SenderID:       message.SenderID,
		SenderUsername: s.client.username,
		ChannelID:      s.channelID,
		Timestamp:      message.CreatedAt.UTC().Format(time.RFC3339),
		MessageType:    message.MessageType,
	})
}

func (s *ChannelSession) handleTyping(frame Frame) {
	s.hub.Broadcast(ChannelTopic(s.channelID), TypingEvent{
		Type:      EventTypeTyping,
		UserID:    s.client.userID,
		Username:  s.client.username,
		ChannelID: s.channelID,
		IsTyping:  frame.IsTyping,
	})
}
