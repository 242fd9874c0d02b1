package websocket

// Inbound frame types accepted by the channel session loop. Unknown types
// are ignored so older servers stay compatible with newer clients.
const (
	FrameTypeMessage = "message"
	FrameTypeTyping  = "typing"
)

// Frame is a client-to-server payload. Decoded by the declared type tag;
// fields not relevant to the tag are left at their zero value.
type Frame struct {
	Type     string `json:"type"`
	Content  string `json:"content,omitempty"`
	IsTyping bool   `json:"is_typing,omitempty"`
}

// Outbound event types.
const (
	EventTypeConnected           = "connected"
	EventTypeMessage             = "message"
	EventTypeTyping              = "typing"
	EventTypeNotificationCreated = "notification.created"
)

// ConnectedEvent confirms admission to the client before any other traffic.
type ConnectedEvent struct {
	Type      string `json:"type"`
	ChannelID uint   `json:"channel_id,omitempty"`
	UserID    uint   `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
}

// MessageEvent is the broadcast projection of a persisted chat message.
type MessageEvent struct {
	Type           string `json:"type"`
	ID             uint   `json:"id"`
	Content        string `json:"content"`
	SenderID       uint   `json:"sender_id"`
	SenderUsername string `json:"sender_username"`
	ChannelID      uint   `json:"channel_id"`
	Timestamp      string `json:"timestamp"`
	MessageType    string `json:"message_type"`
}

// TypingEvent is transient: it is never persisted, only rebroadcast.
type TypingEvent struct {
	Type      string `json:"type"`
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	ChannelID uint   `json:"channel_id"`
	IsTyping  bool   `json:"is_typing"`
}

// NotificationEvent pushes a just-persisted notification row to the owning
// user's live connections.
type NotificationEvent struct {
	Type string           `json:"type"`
	Data NotificationData `json:"data"`
}

type NotificationData struct {
	ID         uint   `json:"id"`
	UserID     uint   `json:"user_id"`
	Kind       string `json:"type"`
	SourceID   uint   `json:"source_id"`
	SourceType string `json:"source_type"`
	Title      string `json:"title"`
	Preview    string `json:"preview"`
	IsRead     bool   `json:"is_read"`
	CreatedAt  string `json:"created_at"`
}
