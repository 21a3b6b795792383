package handler

import (
	"errors"
	"net/http"

	"klaus/internal/domain/community/service"
	"klaus/internal/pkg/middleware"
	"klaus/pkg/response"

	"github.com/gin-gonic/gin"
)

// CommunityHandler exposes community endpoints.
type CommunityHandler struct {
	service service.CommunityService
}

// NewCommunityHandler creates the handler.
func NewCommunityHandler(service service.CommunityService) *CommunityHandler {
	return &CommunityHandler{service: service}
}

// CreateInput describes a new community.
type CreateInput struct {
	Name        string `json:"name" binding:"required,min=1,max=128"`
	Description string `json:"description" binding:"max=512"`
}

// CreateChannelInput names a new channel.
type CreateChannelInput struct {
	Name string `json:"name" binding:"required,min=1,max=128"`
}

// UpdateInput carries metadata changes; empty fields are left alone.
type UpdateInput struct {
	Name        string `json:"name" binding:"max=128"`
	Description string `json:"description" binding:"max=512"`
	IconURL     string `json:"iconUrl" binding:"max=1024"`
}

// AddMemberInput names the member to add.
type AddMemberInput struct {
	UserID string `json:"userId" binding:"required"`
}

// Create opens a community owned by the caller.
func (h *CommunityHandler) Create(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var input CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	community, err := h.service.Create(c.Request.Context(), userID, input.Name, input.Description)
	if err != nil {
		if errors.Is(err, service.ErrTimeout) {
			response.Error(c, http.StatusGatewayTimeout, response.ErrCommunityTimeout, "Creating the community took too long")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to create community")
		return
	}

	response.Success(c, community)
}

// Discover lists public communities.
func (h *CommunityHandler) Discover(c *gin.Context) {
	communities, err := h.service.Discover(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to fetch communities")
		return
	}
	response.Success(c, communities)
}

// ListJoined returns the caller's communities.
func (h *CommunityHandler) ListJoined(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	communities, err := h.service.ListJoined(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to fetch communities")
		return
	}
	response.Success(c, communities)
}

// Get returns one community.
func (h *CommunityHandler) Get(c *gin.Context) {
	community, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, community)
}

// Join adds the caller as member. Idempotent.
func (h *CommunityHandler) Join(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	if err := h.service.Join(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"joined": true})
}

// JoinOfficial joins the built-in community, creating it on first use.
func (h *CommunityHandler) JoinOfficial(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	community, err := h.service.JoinOfficial(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, community)
}

// Leave removes the caller from the community.
func (h *CommunityHandler) Leave(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	if err := h.service.Leave(c.Request.Context(), c.Param("id"), userID); err != nil {
		if errors.Is(err, service.ErrOwnerCannotLeave) {
			response.Fail(c, response.ErrNotOwner, err.Error())
			return
		}
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"left": true})
}

// Delete tears the community down. Owner only.
func (h *CommunityHandler) Delete(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	if err := h.service.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// Members lists member profiles up to the view cap.
func (h *CommunityHandler) Members(c *gin.Context) {
	profiles, total, err := h.service.Members(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"members": profiles, "total": total})
}

// Channels lists the community's channels.
func (h *CommunityHandler) Channels(c *gin.Context) {
	rooms, err := h.service.Channels(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, rooms)
}

// CreateChannel adds a channel. Owner only.
func (h *CommunityHandler) CreateChannel(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var input CreateChannelInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	room, err := h.service.CreateChannel(c.Request.Context(), c.Param("id"), userID, input.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, room)
}

// Update changes community metadata, owner only.
func (h *CommunityHandler) Update(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var input UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	community, err := h.service.Update(c.Request.Context(), c.Param("id"), userID, input.Name, input.Description, input.IconURL)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, community)
}

// AddMember brings a member in directly, owner only.
func (h *CommunityHandler) AddMember(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var input AddMemberInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	if err := h.service.AddMember(c.Request.Context(), c.Param("id"), userID, input.UserID); err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, gin.H{"added": input.UserID})
}

func (h *CommunityHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCommunityNotFound):
		response.Error(c, http.StatusNotFound, response.ErrCommunityNotFound, "Community not found")
	case errors.Is(err, service.ErrNotOwner):
		response.Error(c, http.StatusForbidden, response.ErrNotOwner, err.Error())
	case errors.Is(err, service.ErrTimeout):
		response.Error(c, http.StatusGatewayTimeout, response.ErrCommunityTimeout, "Operation took too long")
	default:
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Operation failed")
	}
}
