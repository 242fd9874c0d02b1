package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"collab-service/internal/api/middleware"
	"collab-service/internal/models"
	"collab-service/internal/services"

	"github.com/gin-gonic/gin"
)

const defaultMessageLimit = 50

type MessageHandler struct {
	chatService *services.ChatService
}

func NewMessageHandler(chatService *services.ChatService) *MessageHandler {
	return &MessageHandler{chatService: chatService}
}

// ListMessages godoc
// @Summary List recent messages in a channel
// @Description Returns the newest messages in a channel, oldest first. Requires channel membership.
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param id path int true "Channel ID"
// @Param limit query int false "Maximum number of messages" default(50)
// @Success 200 {array} models.MessageResponse
// @Failure 403 {object} models.ErrorResponse "Not a channel member"
// @Router /chat/channels/{id}/messages [get]
func (h *MessageHandler) ListMessages(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	channelID, ok := channelIDParam(c)
	if !ok {
		return
	}

	limit := defaultMessageLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Code:    http.StatusBadRequest,
				Message: "Limit must be between 1 and 200",
			})
			return
		}
		limit = parsed
	}

	messages, err := h.chatService.ListMessages(c.Request.Context(), userID, channelID, limit)
	if err != nil {
		if errors.Is(err, services.ErrNotChannelMember) {
			c.JSON(http.StatusForbidden, models.ErrorResponse{
				Code:    http.StatusForbidden,
				Message: "Not a member of this channel",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to list messages",
		})
		return
	}

	c.JSON(http.StatusOK, messages)
}

// SendMessage godoc
// @Summary Send a message to a channel
// @Description Persists the message, fans it out to connected channel members, and creates mention notifications.
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Channel ID"
// @Param request body models.SendMessageRequest true "Message content"
// @Success 201 {object} models.MessageResponse
// @Failure 403 {object} models.ErrorResponse "Not a channel member"
// @Router /chat/channels/{id}/messages [post]
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	channelID, ok := channelIDParam(c)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
			Details: err.Error(),
		})
		return
	}

	message, err := h.chatService.SendMessage(c.Request.Context(), userID, channelID, &req)
	if err != nil {
		if errors.Is(err, services.ErrNotChannelMember) {
			c.JSON(http.StatusForbidden, models.ErrorResponse{
				Code:    http.StatusForbidden,
				Message: "Not a member of this channel",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to send message",
		})
		return
	}

	c.JSON(http.StatusCreated, message)
}

// UploadFile godoc
// @Summary Upload a file attachment to a channel
// @Description Accepts multipart form uploads up to 10MB. Requires channel membership.
// @Tags chat
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Channel ID"
// @Param file formData file true "File to upload"
// @Success 201 {object} models.FileUploadResponse
// @Failure 413 {object} models.ErrorResponse "File too large"
// @Failure 415 {object} models.ErrorResponse "File type not allowed"
// @Router /chat/channels/{id}/files [post]
func (h *MessageHandler) UploadFile(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	channelID, ok := channelIDParam(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "File is required",
		})
		return
	}

	resp, err := h.chatService.UploadFile(c.Request.Context(), userID, channelID, file)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotChannelMember):
			c.JSON(http.StatusForbidden, models.ErrorResponse{
				Code:    http.StatusForbidden,
				Message: "Not a member of this channel",
			})
		case errors.Is(err, services.ErrFileTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
				Code:    http.StatusRequestEntityTooLarge,
				Message: "File exceeds the 10MB limit",
			})
		case errors.Is(err, services.ErrFileTypeNotAllowed):
			c.JSON(http.StatusUnsupportedMediaType, models.ErrorResponse{
				Code:    http.StatusUnsupportedMediaType,
				Message: "File type not allowed",
			})
		case errors.Is(err, services.ErrUploadsDisabled):
			c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Code:    http.StatusServiceUnavailable,
				Message: "File uploads are not available",
			})
		default:
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Code:    http.StatusInternalServerError,
				Message: "Upload failed",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}
