package services

import (
	"errors"
	"fmt"
	"time"

	"collab-service/internal/models"
	"collab-service/internal/repositories/postgres"
	"collab-service/internal/websocket"

	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationService struct {
	repo     *postgres.NotificationRepository
	userRepo *postgres.UserRepository
	notifier *websocket.Notifier
}

func NewNotificationService(repo *postgres.NotificationRepository, userRepo *postgres.UserRepository, notifier *websocket.Notifier) *NotificationService {
	return &NotificationService{
		repo:     repo,
		userRepo: userRepo,
		notifier: notifier,
	}
}

// Create persists the notification row and then hands a push to the
// notifier bridge. The caller's success depends only on persistence: a push
// that never reaches a client is recovered by re-fetching over REST.
func (s *NotificationService) Create(req *models.NotificationCreate) (*models.Notification, error) {
	notification := models.Notification{
		UserID:     req.UserID,
		Type:       req.Type,
		SourceID:   req.SourceID,
		SourceType: req.SourceType,
		Title:      req.Title,
		Preview:    req.Preview,
	}
	if err := s.repo.Create(&notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	s.notifier.Notify(notification.UserID, websocket.NotificationEvent{
		Type: websocket.EventTypeNotificationCreated,
		Data: websocket.NotificationData{
			ID:         notification.ID,
			UserID:     notification.UserID,
			Kind:       notification.Type,
			SourceID:   notification.SourceID,
			SourceType: notification.SourceType,
			Title:      notification.Title,
			Preview:    notification.Preview,
			IsRead:     notification.IsRead,
			CreatedAt:  notification.CreatedAt.UTC().Format(time.RFC3339),
		},
	})

	return &notification, nil
}

// CreateMentionNotifications fans one notification out to every mentioned
// username that resolves to a user and has not muted mentions.
func (s *NotificationService) CreateMentionNotifications(message *models.Message, senderUsername string, mentioned []string) {
	preview := truncatePreview(message.Content)

	for _, username := range mentioned {
		user, err := s.userRepo.FindByUsername(username)
		if err != nil {
			continue
		}
		if user.ID == message.SenderID {
			continue
		}

		prefs, err := s.repo.GetPreferences(user.ID)
		if err == nil && prefs != nil && prefs.MuteMentionsUntil != nil && prefs.MuteMentionsUntil.After(time.Now()) {
			continue
		}

		s.Create(&models.NotificationCreate{
			UserID:     user.ID,
			Type:       models.NotificationTypeMention,
			SourceID:   message.ID,
			SourceType: "message",
			Title:      fmt.Sprintf("You were mentioned by %s", senderUsername),
			Preview:    preview,
		})
	}
}

func (s *NotificationService) List(userID uint, offset, limit int, unreadOnly bool) (*models.NotificationListResponse, error) {
	notifications, err := s.repo.ListByUser(userID, offset, limit, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	total, err := s.repo.CountByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}
	unread, err := s.repo.CountUnread(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	items := make([]models.NotificationResponse, len(notifications))
	for i := range notifications {
		items[i] = toNotificationResponse(&notifications[i])
	}
	return &models.NotificationListResponse{
		Items:       items,
		Total:       total,
		UnreadCount: unread,
	}, nil
}

func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	return s.repo.CountUnread(userID)
}

func (s *NotificationService) MarkRead(notificationID, userID uint) (*models.NotificationResponse, error) {
	notification, err := s.repo.MarkRead(notificationID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to mark notification read: %w", err)
	}
	resp := toNotificationResponse(notification)
	return &resp, nil
}

func (s *NotificationService) MarkAllRead(userID uint) error {
	return s.repo.MarkAllRead(userID)
}

// GetPreferences returns the user's preferences, creating defaults on first
// access.
func (s *NotificationService) GetPreferences(userID uint) (*models.PreferencesResponse, error) {
	prefs, err := s.repo.GetPreferences(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	if prefs == nil {
		prefs = &models.UserPreference{
			UserID:             userID,
			EmailNotifications: true,
		}
		if err := s.repo.SavePreferences(prefs); err != nil {
			return nil, fmt.Errorf("failed to create default preferences: %w", err)
		}
	}
	return toPreferencesResponse(prefs), nil
}

func (s *NotificationService) UpdatePreferences(userID uint, req *models.UpdatePreferencesRequest) (*models.PreferencesResponse, error) {
	prefs, err := s.repo.GetPreferences(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	if prefs == nil {
		prefs = &models.UserPreference{
			UserID:             userID,
			EmailNotifications: true,
		}
	}
	if req.EmailNotifications != nil {
		prefs.EmailNotifications = *req.EmailNotifications
	}
	if req.MuteMentionsUntil != nil {
		prefs.MuteMentionsUntil = req.MuteMentionsUntil
	}
	if err := s.repo.SavePreferences(prefs); err != nil {
		return nil, fmt.Errorf("failed to save preferences: %w", err)
	}
	return toPreferencesResponse(prefs), nil
}

const previewMaxRunes = 200

// truncatePreview shortens message content for a notification preview,
// cutting on a rune boundary so multi-byte characters are never split.
func truncatePreview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewMaxRunes {
		return content
	}
	return string(runes[:previewMaxRunes])
}

func toNotificationResponse(n *models.Notification) models.NotificationResponse {
	return models.NotificationResponse{
		ID:         n.ID,
		UserID:     n.UserID,
		Type:       n.Type,
		SourceID:   n.SourceID,
		SourceType: n.SourceType,
		Title:      n.Title,
		Preview:    n.Preview,
		IsRead:     n.IsRead,
		CreatedAt:  n.CreatedAt,
	}
}

func toPreferencesResponse(p *models.UserPreference) *models.PreferencesResponse {
	return &models.PreferencesResponse{
		UserID:             p.UserID,
		EmailNotifications: p.EmailNotifications,
		MuteMentionsUntil:  p.MuteMentionsUntil,
	}
}
