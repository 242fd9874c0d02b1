package services

import (
	"context"
	"errors"
	"fmt"

	"collab-service/internal/models"
	"collab-service/internal/repositories/postgres"

	"gorm.io/gorm"
)

var (
	ErrChannelNotFound  = errors.New("channel not found")
	ErrChannelNameTaken = errors.New("channel name already exists")
	ErrNotChannelMember = errors.New("not a member of this channel")
)

type ChannelService struct {
	repo *postgres.ChannelRepository
}

func NewChannelService(repo *postgres.ChannelRepository) *ChannelService {
	return &ChannelService{repo}
}

// CreateChannel creates a channel and enrolls the creator as its owner.
func (s *ChannelService) CreateChannel(userID uint, req *models.CreateChannelRequest) (*models.ChannelResponse, error) {
	if _, err := s.repo.FindByName(req.Name); err == nil {
		return nil, ErrChannelNameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check channel name: %w", err)
	}

	channel := models.Channel{
		Name:      req.Name,
		IsPrivate: req.IsPrivate,
		OwnerID:   userID,
	}
	if err := s.repo.Create(&channel); err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	member := models.ChannelMember{
		ChannelID: channel.ID,
		UserID:    userID,
		Role:      models.ChannelRoleOwner,
	}
	if err := s.repo.AddMember(&member); err != nil {
		return nil, fmt.Errorf("failed to add owner membership: %w", err)
	}

	return toChannelResponse(&channel), nil
}

func (s *ChannelService) GetChannel(channelID uint) (*models.ChannelResponse, error) {
	channel, err := s.repo.FindByID(channelID)
	if err != nil {
		return nil, ErrChannelNotFound
	}
	return toChannelResponse(channel), nil
}

func (s *ChannelService) ListVisibleChannels(userID uint) ([]models.ChannelResponse, error) {
	channels, err := s.repo.ListVisible(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	responses := make([]models.ChannelResponse, len(channels))
	for i := range channels {
		responses[i] = *toChannelResponse(&channels[i])
	}
	return responses, nil
}

// Join adds the user to a channel. Joining a channel the user already
// belongs to is treated as success, not a conflict.
func (s *ChannelService) Join(channelID, userID uint) (*models.ChannelMember, error) {
	if _, err := s.repo.FindByID(channelID); err != nil {
		return nil, ErrChannelNotFound
	}

	existing, err := s.repo.FindMember(channelID, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	member := models.ChannelMember{
		ChannelID: channelID,
		UserID:    userID,
		Role:      models.ChannelRoleMember,
	}
	if err := s.repo.AddMember(&member); err != nil {
		return nil, fmt.Errorf("failed to join channel: %w", err)
	}
	return &member, nil
}

func (s *ChannelService) Leave(channelID, userID uint) error {
	if _, err := s.repo.FindByID(channelID); err != nil {
		return ErrChannelNotFound
	}
	return s.repo.RemoveMember(channelID, userID)
}

// IsMember satisfies the admission gate's membership contract.
func (s *ChannelService) IsMember(ctx context.Context, userID, channelID uint) (bool, error) {
	return s.repo.IsMember(ctx, userID, channelID)
}

func (s *ChannelService) ListMembers(channelID uint) ([]models.ChannelMember, error) {
	if _, err := s.repo.FindByID(channelID); err != nil {
		return nil, ErrChannelNotFound
	}
	return s.repo.ListMembers(channelID)
}

func toChannelResponse(channel *models.Channel) *models.ChannelResponse {
	return &models.ChannelResponse{
		ID:        channel.ID,
		Name:      channel.Name,
		IsPrivate: channel.IsPrivate,
		OwnerID:   channel.OwnerID,
		CreatedAt: channel.CreatedAt,
	}
}
