package gif

import (
	"klaus/internal/domain/gif/client"
	"klaus/internal/domain/gif/handler"
	"klaus/internal/pkg/config"
	"klaus/internal/pkg/middleware"
	"klaus/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// GifModule wires the GIF picker backend.
type GifModule struct{}

func init() {
	registry.Register(&GifModule{})
}

func (m *GifModule) Name() string {
	return "gif"
}

func (m *GifModule) Priority() int {
	return 7
}

func (m *GifModule) Init(ctx *registry.ModuleContext) error {
	cfg := config.GlobalConfig.Gif
	gifHandler := handler.NewGifHandler(client.NewTenorClient(cfg.BaseURL, cfg.APIKey))

	setupRoutes(ctx.Router, gifHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.GifHandler) {
	group := r.Group("/gifs")
	group.Use(middleware.AuthMiddleware())
	{
		group.GET("/", h.Browse)
	}
}
