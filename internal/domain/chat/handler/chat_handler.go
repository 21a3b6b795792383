package handler

import (
	"errors"
	"net/http"
	"time"

	"klaus/internal/domain/chat/service"
	"klaus/internal/pkg/middleware"
	"klaus/pkg/response"

	"github.com/gin-gonic/gin"
)

// ChatHandler exposes conversation endpoints.
type ChatHandler struct {
	service service.ChatService
}

// NewChatHandler creates the handler.
func NewChatHandler(service service.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// OpenDirectInput names the other member of a direct chat.
type OpenDirectInput struct {
	UserID string `json:"userId" binding:"required"`
}

// CreateGroupInput describes a new ad-hoc group.
type CreateGroupInput struct {
	Name      string   `json:"name" binding:"required,min=1,max=128"`
	MemberIDs []string `json:"memberIds"`
}

// SendMessageInput is a message payload. Media kinds may omit the body
// and carry the asset URL instead.
type SendMessageInput struct {
	Body     string `json:"body"`
	Kind     string `json:"kind"`
	MediaURL string `json:"mediaUrl"`
}

// ActiveChatInput selects a conversation.
type ActiveChatInput struct {
	RoomID string `json:"roomId"`
}

// ReactionInput names the emoji to toggle.
type ReactionInput struct {
	Emoji string `json:"emoji" binding:"required"`
}

// OpenDirect returns the direct room for the pair, creating it on first use.
func (h *ChatHandler) OpenDirect(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var input OpenDirectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	room, err := h.service.OpenDirectRoom(c.Request.Context(), userID, input.UserID)
	if err != nil {
		if errors.Is(err, service.ErrSelfChat) {
			response.Fail(c, response.ErrInvalidParam, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to open chat")
		return
	}

	response.Success(c, room)
}

// CreateGroup opens an ad-hoc group chat.
func (h *ChatHandler) CreateGroup(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var input CreateGroupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	room, err := h.service.CreateGroupRoom(c.Request.Context(), userID, input.Name, input.MemberIDs)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to create group")
		return
	}

	response.Success(c, room)
}

// Sidebar lists the caller's conversations, newest activity first.
func (h *ChatHandler) Sidebar(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	rooms, err := h.service.Sidebar(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to fetch chats")
		return
	}

	response.Success(c, rooms)
}

// GetRoom returns one room with its participants.
func (h *ChatHandler) GetRoom(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	roomID := c.Param("id")

	room, err := h.service.GetRoom(c.Request.Context(), roomID, userID)
	if err != nil {
		h.writeRoomError(c, err)
		return
	}

	response.Success(c, room)
}

// SendMessage appends a message to a room.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	roomID := c.Param("id")

	var input SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), roomID, userID, input.Body, input.Kind, input.MediaURL)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			response.Fail(c, response.ErrEmptyMessage, err.Error())
			return
		}
		h.writeRoomError(c, err)
		return
	}

	response.Success(c, msg)
}

// ListMessages pages back through a room's history.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	roomID := c.Param("id")

	var before time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "before must be RFC3339")
			return
		}
		before = t
	}

	msgs, err := h.service.ListMessages(c.Request.Context(), roomID, userID, before, 50)
	if err != nil {
		h.writeRoomError(c, err)
		return
	}

	response.Success(c, msgs)
}

// HideChat removes the caller from a conversation.
func (h *ChatHandler) HideChat(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	roomID := c.Param("id")

	if err := h.service.HideChat(c.Request.Context(), roomID, userID); err != nil {
		h.writeRoomError(c, err)
		return
	}

	response.Success(c, gin.H{"hidden": true})
}

// SetActiveChat records the open conversation for this session.
func (h *ChatHandler) SetActiveChat(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var input ActiveChatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	if err := h.service.SetActiveChat(c.Request.Context(), userID, input.RoomID); err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to store selection")
		return
	}

	response.Success(c, gin.H{"roomId": input.RoomID})
}

// GetActiveChat returns the open conversation, empty when none.
func (h *ChatHandler) GetActiveChat(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	roomID, err := h.service.GetActiveChat(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to read selection")
		return
	}

	response.Success(c, gin.H{"roomId": roomID})
}

// OpenAssistant returns the caller's room with the built-in assistant.
func (h *ChatHandler) OpenAssistant(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	room, err := h.service.OpenAssistantRoom(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to open chat")
		return
	}

	response.Success(c, room)
}

// MarkRead records that the caller has seen a message.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	msg, err := h.service.MarkRead(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.writeMessageError(c, err)
		return
	}

	response.Success(c, msg)
}

// ToggleReaction adds or removes the caller's reaction on a message.
func (h *ChatHandler) ToggleReaction(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var input ReactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	msg, err := h.service.ToggleReaction(c.Request.Context(), c.Param("id"), userID, input.Emoji)
	if err != nil {
		h.writeMessageError(c, err)
		return
	}

	response.Success(c, msg)
}

// SetSelection stores what the caller has open: a chat, a community, or
// a community plus channel.
func (h *ChatHandler) SetSelection(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var sel service.Selection
	if err := c.ShouldBindJSON(&sel); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	if err := h.service.SetSelection(c.Request.Context(), userID, sel); err != nil {
		if errors.Is(err, service.ErrInvalidSelection) {
			response.Fail(c, response.ErrInvalidParam, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to store selection")
		return
	}

	response.Success(c, sel)
}

// GetSelection returns the stored selection, zero when none.
func (h *ChatHandler) GetSelection(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	sel, err := h.service.GetSelection(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to read selection")
		return
	}

	response.Success(c, sel)
}

func (h *ChatHandler) writeMessageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMessageNotFound):
		response.Error(c, http.StatusNotFound, response.ErrRoomNotFound, "Message not found")
	case errors.Is(err, service.ErrEmptyMessage):
		response.Fail(c, response.ErrInvalidParam, err.Error())
	default:
		h.writeRoomError(c, err)
	}
}

func (h *ChatHandler) writeRoomError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		response.Error(c, http.StatusNotFound, response.ErrRoomNotFound, "Room not found")
	case errors.Is(err, service.ErrNotParticipant):
		response.Error(c, http.StatusForbidden, response.ErrNotParticipant, "Not a participant")
	default:
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Operation failed")
	}
}
