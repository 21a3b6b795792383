package handler

import (
	"errors"
	"net/http"

	"klaus/internal/domain/social/service"
	"klaus/internal/pkg/middleware"
	"klaus/pkg/response"

	"github.com/gin-gonic/gin"
)

// FriendHandler exposes the friend graph endpoints.
type FriendHandler struct {
	service service.FriendService
}

// NewFriendHandler creates the handler.
func NewFriendHandler(service service.FriendService) *FriendHandler {
	return &FriendHandler{service: service}
}

// SendRequestInput names the request target.
type SendRequestInput struct {
	ToID string `json:"toId" binding:"required"`
}

// SendRequest opens a friend request.
func (h *FriendHandler) SendRequest(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var input SendRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	req, err := h.service.SendRequest(c.Request.Context(), userID, input.ToID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfFriend), errors.Is(err, service.ErrSystemUser):
			response.Fail(c, response.ErrSelfFriend, err.Error())
		case errors.Is(err, service.ErrAlreadyFriends):
			response.Fail(c, response.ErrAlreadyFriends, err.Error())
		case errors.Is(err, service.ErrRequestExists):
			response.Fail(c, response.ErrRequestExists, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to send request")
		}
		return
	}

	response.Success(c, req)
}

// AcceptRequest establishes the friendship.
func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	requestID := c.Param("id")

	if err := h.service.AcceptRequest(c.Request.Context(), userID, requestID); err != nil {
		h.writeActionError(c, err)
		return
	}
	response.Success(c, gin.H{"accepted": true})
}

// DeclineRequest discards an incoming request.
func (h *FriendHandler) DeclineRequest(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	requestID := c.Param("id")

	if err := h.service.DeclineRequest(c.Request.Context(), userID, requestID); err != nil {
		h.writeActionError(c, err)
		return
	}
	response.Success(c, gin.H{"declined": true})
}

// CancelRequest withdraws an outgoing request.
func (h *FriendHandler) CancelRequest(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	requestID := c.Param("id")

	if err := h.service.CancelRequest(c.Request.Context(), userID, requestID); err != nil {
		h.writeActionError(c, err)
		return
	}
	response.Success(c, gin.H{"cancelled": true})
}

// ListRequests returns pending incoming and outgoing requests.
func (h *FriendHandler) ListRequests(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	incoming, outgoing, err := h.service.ListRequests(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to fetch requests")
		return
	}

	response.Success(c, gin.H{"incoming": incoming, "outgoing": outgoing})
}

// ListFriends returns the caller's friends as profiles.
func (h *FriendHandler) ListFriends(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	friends, err := h.service.ListFriends(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to fetch friends")
		return
	}

	response.Success(c, friends)
}

// RemoveFriend deletes the friendship in both directions.
func (h *FriendHandler) RemoveFriend(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	otherID := c.Param("id")

	if err := h.service.RemoveFriend(c.Request.Context(), userID, otherID); err != nil {
		if errors.Is(err, service.ErrRequestNotFound) {
			response.Error(c, http.StatusNotFound, response.ErrRequestNotFound, "Not friends")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to remove friend")
		return
	}
	response.Success(c, gin.H{"removed": true})
}

func (h *FriendHandler) writeActionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		response.Error(c, http.StatusNotFound, response.ErrRequestNotFound, "Request not found")
	case errors.Is(err, service.ErrNotRecipient):
		response.Error(c, http.StatusForbidden, response.ErrNoPermission, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Operation failed")
	}
}
