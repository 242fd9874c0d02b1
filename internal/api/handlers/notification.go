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

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// ListNotifications godoc
// @Summary List notifications for the current user
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param offset query int false "Pagination offset" default(0)
// @Param limit query int false "Page size" default(20)
// @Param unread_only query bool false "Only unread notifications"
// @Success 200 {object} models.NotificationListResponse
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if offset < 0 {
		offset = 0
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	unreadOnly := c.Query("unread_only") == "true"

	resp, err := h.notificationService.List(userID, offset, limit, unreadOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to list notifications",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UnreadCount godoc
// @Summary Count unread notifications for the current user
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	count, err := h.notificationService.UnreadCount(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to count notifications",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Description Only notifications belonging to the current user can be marked
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} models.NotificationResponse
// @Failure 404 {object} models.ErrorResponse "Notification not found"
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid notification ID",
		})
		return
	}

	resp, err := h.notificationService.MarkRead(uint(id), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Code:    http.StatusNotFound,
				Message: "Notification not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to mark notification read",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// MarkAllRead godoc
// @Summary Mark all notifications as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 204 "All marked read"
// @Router /notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	if err := h.notificationService.MarkAllRead(userID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to mark notifications read",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetPreferences godoc
// @Summary Get notification preferences for the current user
// @Description Creates default preferences on first access
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.PreferencesResponse
// @Router /notifications/preferences [get]
func (h *NotificationHandler) GetPreferences(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	resp, err := h.notificationService.GetPreferences(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to load preferences",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdatePreferences godoc
// @Summary Update notification preferences for the current user
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.UpdatePreferencesRequest true "Preference fields to update"
// @Success 200 {object} models.PreferencesResponse
// @Failure 400 {object} models.ErrorResponse "Invalid input"
// @Router /notifications/preferences [put]
func (h *NotificationHandler) UpdatePreferences(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var req models.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.notificationService.UpdatePreferences(userID, &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to update preferences",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}
