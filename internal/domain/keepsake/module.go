package keepsake

import (
	"klaus/internal/domain/keepsake/handler"
	"klaus/internal/domain/keepsake/repository"
	"klaus/internal/domain/keepsake/service"
	"klaus/internal/pkg/middleware"
	"klaus/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// KeepsakeModule wires the local collection store.
type KeepsakeModule struct{}

func init() {
	registry.Register(&KeepsakeModule{})
}

func (m *KeepsakeModule) Name() string {
	return "keepsake"
}

func (m *KeepsakeModule) Priority() int {
	return 6
}

func (m *KeepsakeModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewKeepsakeRepository(ctx.Local)
	keepsakeService := service.NewKeepsakeService(repo, ctx.Workers, ctx.Mirror)
	keepsakeHandler := handler.NewKeepsakeHandler(keepsakeService)

	setupRoutes(ctx.Router, keepsakeHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.KeepsakeHandler) {
	group := r.Group("/keepsakes")
	group.Use(middleware.AuthMiddleware())
	{
		group.GET("/", h.List)
		group.POST("/", h.Save)
		group.GET("/item/:id", h.IsSaved)
		group.DELETE("/item/:id", h.Remove)
		group.GET("/export", h.Export)
		group.POST("/import", h.Import)
	}
}
