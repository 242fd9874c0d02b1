package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"regexp"
	"time"

	"collab-service/internal/adapters/storage"
	"collab-service/internal/models"
	"collab-service/internal/repositories/postgres"
	"collab-service/internal/websocket"

	"github.com/IBM/sarama"
)

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// findMentions extracts the set of @usernames from message text.
func findMentions(text string) []string {
	seen := make(map[string]struct{})
	var mentions []string
	for _, match := range mentionPattern.FindAllStringSubmatch(text, -1) {
		if _, ok := seen[match[1]]; ok {
			continue
		}
		seen[match[1]] = struct{}{}
		mentions = append(mentions, match[1])
	}
	return mentions
}

type ChatService struct {
	messages      *postgres.MessageRepository
	channels      *postgres.ChannelRepository
	users         *postgres.UserRepository
	notifications *NotificationService
	hub           *websocket.Hub

	// Optional collaborators: nil disables the feature.
	producer   sarama.SyncProducer
	kafkaTopic string
	files      *storage.MinIOClient
}

func NewChatService(
	messages *postgres.MessageRepository,
	channels *postgres.ChannelRepository,
	users *postgres.UserRepository,
	notifications *NotificationService,
	hub *websocket.Hub,
) *ChatService {
	return &ChatService{
		messages:      messages,
		channels:      channels,
		users:         users,
		notifications: notifications,
		hub:           hub,
	}
}

// WithKafka enables best-effort publication of persisted messages to an
// integration topic.
func (s *ChatService) WithKafka(producer sarama.SyncProducer, topic string) *ChatService {
	s.producer = producer
	s.kafkaTopic = topic
	return s
}

// WithFileStorage enables channel file uploads.
func (s *ChatService) WithFileStorage(files *storage.MinIOClient) *ChatService {
	s.files = files
	return s
}

// ListMessages returns up to limit messages in chat display order (oldest
// first). Membership is required.
func (s *ChatService) ListMessages(ctx context.Context, userID, channelID uint, limit int) ([]models.MessageResponse, error) {
	if err := s.requireMembership(ctx, userID, channelID); err != nil {
		return nil, err
	}

	messages, err := s.messages.ListByChannel(channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	// Fetched newest-first; reverse for display.
	responses := make([]models.MessageResponse, len(messages))
	for i := range messages {
		responses[len(messages)-1-i] = toMessageResponse(&messages[i])
	}
	return responses, nil
}

// SendMessage persists a message and fans it out: broadcast to the channel
// topic, mention notifications through the bridge, and a Kafka event when a
// producer is wired. Only the persistence step decides success.
func (s *ChatService) SendMessage(ctx context.Context, userID, channelID uint, req *models.SendMessageRequest) (*models.MessageResponse, error) {
	if err := s.requireMembership(ctx, userID, channelID); err != nil {
		return nil, err
	}

	sender, err := s.users.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	messageType := req.MessageType
	if messageType == "" {
		messageType = models.MessageTypeText
	}
	message := &models.Message{
		Content:     req.Content,
		MessageType: messageType,
		ThreadID:    req.ThreadID,
		SenderID:    userID,
		ChannelID:   channelID,
	}
	if err := s.messages.CreateMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	s.hub.Broadcast(websocket.ChannelTopic(channelID), websocket.MessageEvent{
		Type:           websocket.EventTypeMessage,
		ID:             message.ID,
		Content:        message.Content,
		SenderID:       message.SenderID,
		SenderUsername: sender.Username,
		ChannelID:      channelID,
		Timestamp:      message.CreatedAt.UTC().Format(time.RFC3339),
		MessageType:    message.MessageType,
	})

	if mentions := findMentions(message.Content); len(mentions) > 0 {
		s.notifications.CreateMentionNotifications(message, sender.Username, mentions)
	}

	s.publishMessageEvent(message)

	resp := toMessageResponse(message)
	resp.SenderUsername = sender.Username
	return &resp, nil
}

// publishMessageEvent emits the persisted record to Kafka for downstream
// consumers (search indexing, analytics). Failures are logged, never
// surfaced: the relational row is the source of truth.
func (s *ChatService) publishMessageEvent(message *models.Message) {
	if s.producer == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"id":         message.ID,
		"channel_id": message.ChannelID,
		"sender_id":  message.SenderID,
		"content":    message.Content,
		"created_at": message.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	_, _, err = s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.kafkaTopic,
		Key:   sarama.StringEncoder(fmt.Sprintf("%d", message.ChannelID)),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		slog.Warn("failed to publish message event", "messageID", message.ID, "error", err)
	}
}

const maxUploadSize = 10 << 20 // 10MB

var allowedFileTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/gif":       {},
	"application/pdf": {},
	"text/plain":      {},
}

var (
	ErrFileTooLarge       = fmt.Errorf("file too large, maximum size is %d bytes", maxUploadSize)
	ErrFileTypeNotAllowed = fmt.Errorf("file type not allowed")
	ErrUploadsDisabled    = fmt.Errorf("file uploads are not configured")
)

// UploadFile stores a file in object storage and records the attachment.
func (s *ChatService) UploadFile(ctx context.Context, userID, channelID uint, file *multipart.FileHeader) (*models.FileUploadResponse, error) {
	if s.files == nil {
		return nil, ErrUploadsDisabled
	}
	if err := s.requireMembership(ctx, userID, channelID); err != nil {
		return nil, err
	}
	if file.Size > maxUploadSize {
		return nil, ErrFileTooLarge
	}
	contentType := file.Header.Get("Content-Type")
	if _, ok := allowedFileTypes[contentType]; !ok {
		return nil, ErrFileTypeNotAllowed
	}

	url, err := s.files.UploadFile(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	attachment := models.FileAttachment{
		Filename:   file.Filename,
		FileURL:    url,
		FileSize:   file.Size,
		FileType:   contentType,
		UploaderID: userID,
		ChannelID:  channelID,
	}
	if err := s.messages.CreateAttachment(&attachment); err != nil {
		return nil, fmt.Errorf("failed to record attachment: %w", err)
	}

	return &models.FileUploadResponse{
		ID:         attachment.ID,
		Filename:   attachment.Filename,
		FileURL:    attachment.FileURL,
		FileSize:   attachment.FileSize,
		FileType:   attachment.FileType,
		UploadedAt: attachment.CreatedAt,
	}, nil
}

func (s *ChatService) requireMembership(ctx context.Context, userID, channelID uint) error {
	ok, err := s.channels.IsMember(ctx, userID, channelID)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !ok {
		return ErrNotChannelMember
	}
	return nil
}

func toMessageResponse(message *models.Message) models.MessageResponse {
	return models.MessageResponse{
		ID:             message.ID,
		Content:        message.Content,
		MessageType:    message.MessageType,
		SenderID:       message.SenderID,
		SenderUsername: message.Sender.Username,
		ChannelID:      message.ChannelID,
		ThreadID:       message.ThreadID,
		Timestamp:      message.CreatedAt,
	}
}
