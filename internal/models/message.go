package models

import (
	"time"

	"gorm.io/gorm"
)

// Message type constants
const (
	MessageTypeText = "text"
	MessageTypeFile = "file"
)

/** --------------------ENTITIES-------------------- */
// Message represents a persisted chat message in a channel
type Message struct {
	gorm.Model
	Content     string `gorm:"not null" json:"content"`
	MessageType string `gorm:"not null;default:'text'" json:"message_type"`
	SenderID    uint   `gorm:"not null;index" json:"sender_id"`
	ChannelID   uint   `gorm:"not null;index" json:"channel_id"`
	ThreadID    *uint  `json:"thread_id,omitempty"` // parent message when replying in a thread

	Sender User `gorm:"foreignKey:SenderID" json:"-"`
}

// FileAttachment is a file uploaded into a channel
type FileAttachment struct {
	gorm.Model
	Filename   string `gorm:"not null" json:"filename"`
	FileURL    string `gorm:"not null" json:"file_url"`
	FileSize   int64  `gorm:"not null" json:"file_size"`
	FileType   string `gorm:"not null" json:"file_type"`
	UploaderID uint   `gorm:"not null;index" json:"uploader_id"`
	ChannelID  uint   `gorm:"not null;index" json:"channel_id"`
}

/** -------------------- DTOs -------------------- */
// Request
type SendMessageRequest struct {
	Content     string `json:"content" binding:"required"`
	MessageType string `json:"message_type,omitempty"`
	ThreadID    *uint  `json:"thread_id,omitempty"`
}

// Response
type MessageResponse struct {
	ID             uint      `json:"id"`
	Content        string    `json:"content"`
	MessageType    string    `json:"message_type"`
	SenderID       uint      `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	ChannelID      uint      `json:"channel_id"`
	ThreadID       *uint     `json:"thread_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

type FileUploadResponse struct {
	ID         uint      `json:"id"`
	Filename   string    `json:"filename"`
	FileURL    string    `json:"file_url"`
	FileSize   int64     `json:"file_size"`
	FileType   string    `json:"file_type"`
	UploadedAt time.Time `json:"uploaded_at"`
}
