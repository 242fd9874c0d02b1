package postgres

import (
	"context"

	"collab-service/internal/models"

	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db}
}

// CreateMessage persists a chat record. It satisfies the fan-out layer's
// MessageStore contract; gorm fills in the ID and CreatedAt.
func (r *MessageRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// ListByChannel fetches the newest messages first; callers reverse the slice
// when they want chat display order.
func (r *MessageRepository) ListByChannel(channelID uint, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Preload("Sender").
		Where("channel_id = ?", channelID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (r *MessageRepository) FindByID(id uint) (*models.Message, error) {
	var message models.Message
	if err := r.db.Preload("Sender").First(&message, id).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepository) CreateAttachment(attachment *models.FileAttachment) error {
	return r.db.Create(attachment).Error
}
