package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification type constants
const (
	NotificationTypeMention = "mention"
	NotificationTypeSystem  = "system"
)

/** --------------------ENTITIES-------------------- */
// Notification is the authoritative record of a user-facing event. The
// WebSocket push derived from it is best-effort; this row is what clients
// re-fetch when a push never arrives.
type Notification struct {
	gorm.Model
	UserID     uint   `gorm:"not null;index" json:"user_id"`
	Type       string `gorm:"not null" json:"type"`
	SourceID   uint   `json:"source_id"`
	SourceType string `json:"source_type"`
	Title      string `gorm:"not null" json:"title"`
	Preview    string `json:"preview"`
	IsRead     bool   `gorm:"not null;default:false;index" json:"is_read"`
}

// UserPreference holds per-user notification settings
type UserPreference struct {
	gorm.Model
	UserID             uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	EmailNotifications bool       `gorm:"not null;default:true" json:"email_notifications"`
	MuteMentionsUntil  *time.Time `json:"mute_mentions_until,omitempty"`
}

/** -------------------- DTOs -------------------- */

type NotificationCreate struct {
	UserID     uint
	Type       string
	SourceID   uint
	SourceType string
	Title      string
	Preview    string
}

type NotificationResponse struct {
	ID         uint      `json:"id"`
	UserID     uint      `json:"user_id"`
	Type       string    `json:"type"`
	SourceID   uint      `json:"source_id"`
	SourceType string    `json:"source_type"`
	Title      string    `json:"title"`
	Preview    string    `json:"preview"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

type NotificationListResponse struct {
	Items       []NotificationResponse `json:"items"`
	Total       int64                  `json:"total"`
	UnreadCount int64                  `json:"unread_count"`
}

type UpdatePreferencesRequest struct {
	EmailNotifications *bool      `json:"email_notifications,omitempty"`
	MuteMentionsUntil  *time.Time `json:"mute_mentions_until,omitempty"`
}

type PreferencesResponse struct {
	UserID             uint       `json:"user_id"`
	EmailNotifications bool       `json:"email_notifications"`
	MuteMentionsUntil  *time.Time `json:"mute_mentions_until,omitempty"`
}
