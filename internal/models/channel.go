package models

import (
	"time"

	"gorm.io/gorm"
)

// Channel member roles
const (
	ChannelRoleOwner  = "owner"
	ChannelRoleMember = "member"
)

/** --------------------ENTITIES-------------------- */
// Channel represents a chat channel
type Channel struct {
	gorm.Model
	Name      string `gorm:"uniqueIndex;not null" json:"name"` // Name of the channel
	IsPrivate bool   `gorm:"not null;default:false" json:"is_private"`
	OwnerID   uint   `gorm:"not null" json:"owner_id"` // ID of the channel creator
}

// ChannelMember is an active membership record. Its existence authorizes a
// user for the channel's chat stream.
type ChannelMember struct {
	gorm.Model
	ChannelID uint   `gorm:"not null;uniqueIndex:idx_channel_user" json:"channel_id"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_channel_user" json:"user_id"`
	Role      string `gorm:"not null;default:'member'" json:"role"`
}

/** -------------------- DTOs -------------------- */

type CreateChannelRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=100"`
	IsPrivate bool   `json:"is_private"`
}

type ChannelResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	IsPrivate bool      `json:"is_private"`
	OwnerID   uint      `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

type ChannelMemberResponse struct {
	UserID   uint      `json:"user_id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}
