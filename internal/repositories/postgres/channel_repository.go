package postgres

import (
	"context"
	"errors"

	"collab-service/internal/models"

	"gorm.io/gorm"
)

type ChannelRepository struct {
	db *gorm.DB
}

func NewChannelRepository(db *gorm.DB) *ChannelRepository {
	return &ChannelRepository{db}
}

func (r *ChannelRepository) Create(channel *models.Channel) error {
	return r.db.Create(channel).Error
}

func (r *ChannelRepository) FindByID(id uint) (*models.Channel, error) {
	var channel models.Channel
	if err := r.db.First(&channel, id).Error; err != nil {
		return nil, err
	}
	return &channel, nil
}

func (r *ChannelRepository) FindByName(name string) (*models.Channel, error) {
	var channel models.Channel
	if err := r.db.Where("name = ?", name).First(&channel).Error; err != nil {
		return nil, err
	}
	return &channel, nil
}

// ListVisible returns channels the user can see: public channels plus any
// private channel they hold a membership in.
func (r *ChannelRepository) ListVisible(userID uint) ([]models.Channel, error) {
	var channels []models.Channel
	err := r.db.
		Where("is_private = ? OR id IN (?)", false,
			r.db.Model(&models.ChannelMember{}).Select("channel_id").Where("user_id = ?", userID)).
		Order("name").
		Find(&channels).Error
	return channels, err
}

func (r *ChannelRepository) AddMember(member *models.ChannelMember) error {
	return r.db.Create(member).Error
}

func (r *ChannelRepository) FindMember(channelID, userID uint) (*models.ChannelMember, error) {
	var member models.ChannelMember
	err := r.db.Where("channel_id = ? AND user_id = ?", channelID, userID).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *ChannelRepository) RemoveMember(channelID, userID uint) error {
	return r.db.Where("channel_id = ? AND user_id = ?", channelID, userID).
		Delete(&models.ChannelMember{}).Error
}

// IsMember reports whether an active membership record exists. This is the
// membership lookup the WebSocket admission gate consumes.
func (r *ChannelRepository) IsMember(ctx context.Context, userID, channelID uint) (bool, error) {
	var member models.ChannelMember
	err := r.db.WithContext(ctx).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *ChannelRepository) ListMembers(channelID uint) ([]models.ChannelMember, error) {
	var members []models.ChannelMember
	err := r.db.Where("channel_id = ?", channelID).Find(&members).Error
	return members, err
}
