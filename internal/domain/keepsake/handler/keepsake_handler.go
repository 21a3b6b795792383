package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"klaus/internal/domain/keepsake/service"
	nexusmodel "klaus/internal/domain/nexus/model"
	"klaus/internal/pkg/middleware"
	"klaus/pkg/response"
)

// importBodyLimit caps collection import payloads at 10 MiB.
const importBodyLimit = 10 << 20

type KeepsakeHandler struct {
	svc service.KeepsakeService
}

func NewKeepsakeHandler(svc service.KeepsakeService) *KeepsakeHandler {
	return &KeepsakeHandler{svc: svc}
}

// List returns the caller's collection, newest first.
// @Summary List keepsakes
// @Tags keepsake
// @Produce json
// @Success 200 {object} response.Response
// @Router /keepsakes [get]
func (h *KeepsakeHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "failed to list keepsakes")
		return
	}
	response.Success(c, items)
}

// Save stores a feed item into the collection.
func (h *KeepsakeHandler) Save(c *gin.Context) {
	var item nexusmodel.ContentItem
	if err := c.ShouldBindJSON(&item); err != nil || item.ID == "" {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "invalid item")
		return
	}

	saved, err := h.svc.Save(c.Request.Context(), middleware.CurrentUserID(c), item)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "failed to save keepsake")
		return
	}
	response.Success(c, saved)
}

// IsSaved reports whether an item is in the collection.
func (h *KeepsakeHandler) IsSaved(c *gin.Context) {
	saved, err := h.svc.IsSaved(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "failed to check keepsake")
		return
	}
	response.Success(c, gin.H{"saved": saved})
}

// Remove deletes an item from the collection. Removing an absent item
// succeeds.
func (h *KeepsakeHandler) Remove(c *gin.Context) {
	err := h.svc.Remove(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "failed to remove keepsake")
		return
	}
	response.Success(c, nil)
}

// Export downloads the collection as a versioned JSON file.
func (h *KeepsakeHandler) Export(c *gin.Context) {
	data, err := h.svc.Export(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "failed to export collection")
		return
	}

	filename := fmt.Sprintf("klaus-collection-%s.json", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/json", data)
}

// Import replaces the collection from an export file.
func (h *KeepsakeHandler) Import(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, importBodyLimit))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "failed to read payload")
		return
	}

	count, err := h.svc.Import(c.Request.Context(), middleware.CurrentUserID(c), payload)
	if err != nil {
		if errors.Is(err, service.ErrCorruptImport) {
			response.Error(c, http.StatusBadRequest, response.ErrCorruptImport, "payload is not a valid collection export")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "failed to import collection")
		return
	}
	response.Success(c, gin.H{"imported": count})
}
