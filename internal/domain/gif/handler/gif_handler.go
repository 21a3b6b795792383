package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"klaus/internal/domain/gif/model"
	"klaus/pkg/logger"
	"klaus/pkg/response"
)

// Provider is the GIF upstream surface the handler needs.
type Provider interface {
	Trending(ctx context.Context, limit int) ([]model.Gif, error)
	Search(ctx context.Context, query string, limit int) ([]model.Gif, error)
}

type GifHandler struct {
	provider Provider
}

func NewGifHandler(provider Provider) *GifHandler {
	return &GifHandler{provider: provider}
}

// Browse returns trending GIFs, or search results when q is given.
// @Summary Browse GIFs
// @Tags gif
// @Produce json
// @Param q query string false "Search text"
// @Param limit query int false "Result limit"
// @Success 200 {object} response.Response
// @Router /gifs [get]
func (h *GifHandler) Browse(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	query := c.Query("q")

	var (
		gifs []model.Gif
		err  error
	)
	if query == "" {
		gifs, err = h.provider.Trending(c.Request.Context(), limit)
	} else {
		gifs, err = h.provider.Search(c.Request.Context(), query, limit)
	}
	// A dead GIF provider never breaks the composer, the picker just
	// comes up empty.
	if err != nil {
		logger.Warn("gif provider unavailable", zap.Error(err))
		gifs = nil
	}
	if gifs == nil {
		gifs = []model.Gif{}
	}
	response.Success(c, gifs)
}
