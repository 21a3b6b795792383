package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"klaus/internal/domain/nexus/model"
	"klaus/internal/domain/nexus/service"
	"klaus/internal/pkg/middleware"
	"klaus/pkg/response"
)

type NexusHandler struct {
	svc *service.NexusService
}

func NewNexusHandler(svc *service.NexusService) *NexusHandler {
	return &NexusHandler{svc: svc}
}

type loadSessionRequest struct {
	Mode   string `json:"mode"`
	Search string `json:"search"`
}

type setModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

type focusRequest struct {
	ItemID string  `json:"itemId" binding:"required"`
	Ratio  float64 `json:"ratio"`
}

// LoadSession starts or restarts the caller's feed session.
// @Summary Load feed session
// @Tags nexus
// @Accept json
// @Produce json
// @Param request body loadSessionRequest true "Session parameters"
// @Success 200 {object} response.Response
// @Router /nexus/session [post]
func (h *NexusHandler) LoadSession(c *gin.Context) {
	var req loadSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "invalid request body")
		return
	}

	mode := model.Mode(req.Mode)
	if req.Mode == "" {
		mode = model.ModeFeed
	}
	if !mode.Valid() {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidMode, "unknown mode")
		return
	}

	state, err := h.svc.Load(c.Request.Context(), middleware.CurrentUserID(c), mode, req.Search)
	if err != nil {
		response.Error(c, http.StatusBadGateway, response.ErrUpstreamFailed, "failed to load feed")
		return
	}
	response.Success(c, state)
}

// GetSession returns the current session snapshot.
func (h *NexusHandler) GetSession(c *gin.Context) {
	response.Success(c, h.svc.State(middleware.CurrentUserID(c)))
}

// LoadMore appends the next page to the session.
func (h *NexusHandler) LoadMore(c *gin.Context) {
	loaded, state, err := h.svc.LoadMore(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, http.StatusBadGateway, response.ErrUpstreamFailed, "failed to load more")
		return
	}
	response.Success(c, gin.H{"loaded": loaded, "session": state})
}

// SetMode switches the session to another mode.
func (h *NexusHandler) SetMode(c *gin.Context) {
	var req setModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "invalid request body")
		return
	}

	mode := model.Mode(req.Mode)
	if !mode.Valid() {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidMode, "unknown mode")
		return
	}

	state, err := h.svc.SetMode(c.Request.Context(), middleware.CurrentUserID(c), mode)
	if err != nil {
		response.Error(c, http.StatusBadGateway, response.ErrUpstreamFailed, "failed to switch mode")
		return
	}
	response.Success(c, state)
}

// Focus reports how much of an item is visible in the reel viewport.
func (h *NexusHandler) Focus(c *gin.Context) {
	var req focusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "invalid request body")
		return
	}
	response.Success(c, h.svc.Focus(middleware.CurrentUserID(c), req.ItemID, req.Ratio))
}

// RandomContent returns one surprise item.
func (h *NexusHandler) RandomContent(c *gin.Context) {
	item, err := h.svc.RandomContent(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, http.StatusBadGateway, response.ErrUpstreamFailed, "failed to fetch content")
		return
	}
	response.Success(c, item)
}

// Rails returns the themed discovery strips for a mode.
func (h *NexusHandler) Rails(c *gin.Context) {
	mode := model.Mode(c.DefaultQuery("mode", string(model.ModeFeed)))
	if !mode.Valid() {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidMode, "unknown mode")
		return
	}
	response.Success(c, h.svc.Rails(c.Request.Context(), mode))
}

// GetIntro reports whether the first-run intro was dismissed.
func (h *NexusHandler) GetIntro(c *gin.Context) {
	seen, err := h.svc.HasSeenIntro(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "failed to read intro state")
		return
	}
	response.Success(c, gin.H{"seen": seen})
}

// DismissIntro records that the intro was dismissed.
func (h *NexusHandler) DismissIntro(c *gin.Context) {
	if err := h.svc.MarkIntroSeen(c.Request.Context(), middleware.CurrentUserID(c)); err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "failed to save intro state")
		return
	}
	response.Success(c, nil)
}
