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

type ChannelHandler struct {
	channelService *services.ChannelService
}

func NewChannelHandler(channelService *services.ChannelService) *ChannelHandler {
	return &ChannelHandler{channelService: channelService}
}

func channelIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid channel ID",
		})
		return 0, false
	}
	return uint(id), true
}

// ListChannels godoc
// @Summary List channels visible to the current user
// @Description Public channels plus private channels the user belongs to
// @Tags channels
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ChannelResponse
// @Router /channels [get]
func (h *ChannelHandler) ListChannels(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	channels, err := h.channelService.ListVisibleChannels(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to list channels",
		})
		return
	}

	c.JSON(http.StatusOK, channels)
}

// CreateChannel godoc
// @Summary Create a channel
// @Description Creates a channel and adds the creator as owner
// @Tags channels
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateChannelRequest true "Channel data"
// @Success 201 {object} models.ChannelResponse
// @Failure 409 {object} models.ErrorResponse "Channel name already taken"
// @Router /channels [post]
func (h *ChannelHandler) CreateChannel(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var req models.CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid input data",
			Details: err.Error(),
		})
		return
	}

	channel, err := h.channelService.CreateChannel(userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrChannelNameTaken) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Code:    http.StatusConflict,
				Message: "Channel name already taken",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to create channel",
		})
		return
	}

	c.JSON(http.StatusCreated, channel)
}

// GetChannel godoc
// @Summary Get a channel by ID
// @Tags channels
// @Produce json
// @Security BearerAuth
// @Param id path int true "Channel ID"
// @Success 200 {object} models.ChannelResponse
// @Failure 404 {object} models.ErrorResponse "Channel not found"
// @Router /channels/{id} [get]
func (h *ChannelHandler) GetChannel(c *gin.Context) {
	channelID, ok := channelIDParam(c)
	if !ok {
		return
	}

	channel, err := h.channelService.GetChannel(channelID)
	if err != nil {
		if errors.Is(err, services.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Code:    http.StatusNotFound,
				Message: "Channel not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to load channel",
		})
		return
	}

	c.JSON(http.StatusOK, channel)
}

// JoinChannel godoc
// @Summary Join a channel
// @Description Adds the current user to the channel. Joining a channel you already belong to succeeds without change.
// @Tags channels
// @Produce json
// @Security BearerAuth
// @Param id path int true "Channel ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} models.ErrorResponse "Channel not found"
// @Router /channels/{id}/join [post]
func (h *ChannelHandler) JoinChannel(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	channelID, ok := channelIDParam(c)
	if !ok {
		return
	}

	member, err := h.channelService.Join(channelID, userID)
	if err != nil {
		if errors.Is(err, services.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Code:    http.StatusNotFound,
				Message: "Channel not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to join channel",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"channel_id": channelID,
		"user_id":    userID,
		"role":       member.Role,
	})
}

// LeaveChannel godoc
// @Summary Leave a channel
// @Tags channels
// @Produce json
// @Security BearerAuth
// @Param id path int true "Channel ID"
// @Success 204 "Left channel"
// @Failure 404 {object} models.ErrorResponse "Channel not found"
// @Router /channels/{id}/leave [post]
func (h *ChannelHandler) LeaveChannel(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	channelID, ok := channelIDParam(c)
	if !ok {
		return
	}

	if err := h.channelService.Leave(channelID, userID); err != nil {
		if errors.Is(err, services.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Code:    http.StatusNotFound,
				Message: "Channel not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to leave channel",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// ListMembers godoc
// @Summary List members of a channel
// @Tags channels
// @Produce json
// @Security BearerAuth
// @Param id path int true "Channel ID"
// @Success 200 {array} models.ChannelMember
// @Failure 404 {object} models.ErrorResponse "Channel not found"
// @Router /channels/{id}/members [get]
func (h *ChannelHandler) ListMembers(c *gin.Context) {
	channelID, ok := channelIDParam(c)
	if !ok {
		return
	}

	members, err := h.channelService.ListMembers(channelID)
	if err != nil {
		if errors.Is(err, services.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Code:    http.StatusNotFound,
				Message: "Channel not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to list members",
		})
		return
	}

	c.JSON(http.StatusOK, members)
}
