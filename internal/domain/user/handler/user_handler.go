package handler

import (
	"errors"
	"net/http"

	"klaus/internal/domain/user/service"
	"klaus/internal/pkg/middleware"
	"klaus/pkg/response"
	"klaus/pkg/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserHandler exposes account and profile endpoints.
type UserHandler struct {
	service service.UserService
}

// NewUserHandler creates the handler.
func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// RegisterInput is the sign-up request body.
type RegisterInput struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"displayName" binding:"required,min=1,max=64"`
}

// LoginInput is the sign-in request body.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileInput carries the mutable profile fields.
type UpdateProfileInput struct {
	DisplayName  string `json:"displayName" binding:"max=64"`
	AvatarURL    string `json:"avatarUrl" binding:"max=512"`
	Bio          string `json:"bio" binding:"max=512"`
	ThemeSongURL string `json:"themeSongUrl" binding:"max=512"`
}

// PresenceInput carries a presence change.
type PresenceInput struct {
	Presence string `json:"presence" binding:"required"`
}

// ClaimHandleInput carries a chosen handle.
type ClaimHandleInput struct {
	Handle string `json:"handle" binding:"required"`
}

// Register godoc
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Param input body RegisterInput true "registration"
// @Success 200 {object} response.Response
// @Router /auth/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	token, user, err := h.service.Register(input.Email, input.Password, input.DisplayName)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			response.Fail(c, response.ErrUserExists, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Registration failed")
		return
	}

	response.Success(c, gin.H{"token": token, "user": user})
}

// Login godoc
// @Summary Sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param input body LoginInput true "credentials"
// @Success 200 {object} response.Response
// @Router /auth/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	token, user, err := h.service.Login(input.Email, input.Password)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, response.ErrAuthFailed, "Invalid email or password")
		return
	}

	response.Success(c, gin.H{"token": token, "user": user})
}

// GetDirectory lists member profiles with the assistant pinned first.
func (h *UserHandler) GetDirectory(c *gin.Context) {
	var p utils.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	_, limit := p.GetPageOffset()

	profiles, total, err := h.service.Directory(c.Request.Context(), p.Page, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to fetch directory")
		return
	}

	response.Success(c, utils.PageResult{
		List:  profiles,
		Total: total,
		Page:  p.Page,
		Limit: limit,
	})
}

// GetProfile returns one public profile.
func (h *UserHandler) GetProfile(c *gin.Context) {
	id := c.Param("id")

	profile, err := h.service.GetProfile(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, http.StatusNotFound, response.ErrUserNotFound, "User not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to fetch profile")
		return
	}

	response.Success(c, profile)
}

// SearchProfiles finds members by handle, name or email.
func (h *UserHandler) SearchProfiles(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "query parameter q is required")
		return
	}

	profiles, err := h.service.Search(c.Request.Context(), term, 20)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Search failed")
		return
	}

	response.Success(c, profiles)
}

// SuggestedUsers returns a few random members to befriend.
func (h *UserHandler) SuggestedUsers(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	profiles, err := h.service.SuggestedUsers(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to fetch suggestions")
		return
	}

	response.Success(c, profiles)
}

// UpdateProfile changes the caller's profile.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), userID, input.DisplayName, input.AvatarURL, input.Bio, input.ThemeSongURL)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to update profile")
		return
	}

	response.Success(c, user)
}

// SetPresence switches the caller's presence.
func (h *UserHandler) SetPresence(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var input PresenceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	if err := h.service.SetPresence(c.Request.Context(), userID, input.Presence); err != nil {
		if errors.Is(err, service.ErrInvalidPresence) {
			response.Fail(c, response.ErrInvalidParam, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to update presence")
		return
	}

	response.Success(c, gin.H{"presence": input.Presence})
}

// ClaimHandle replaces the caller's generated handle.
func (h *UserHandler) ClaimHandle(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var input ClaimHandleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	user, err := h.service.ClaimHandle(c.Request.Context(), userID, input.Handle)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidHandle):
			response.Fail(c, response.ErrHandleInvalid, err.Error())
		case errors.Is(err, service.ErrHandleTaken):
			response.Fail(c, response.ErrHandleTaken, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to claim handle")
		}
		return
	}

	response.Success(c, user)
}

// DeleteAccount removes the caller's account.
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	if err := h.service.DeleteUser(userID); err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to delete account")
		return
	}

	response.Success(c, gin.H{"deleted": true})
}
