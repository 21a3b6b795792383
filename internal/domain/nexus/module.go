package nexus

import (
	keepsakerepo "klaus/internal/domain/keepsake/repository"
	keepsakeservice "klaus/internal/domain/keepsake/service"
	"klaus/internal/domain/nexus/client"
	"klaus/internal/domain/nexus/handler"
	"klaus/internal/domain/nexus/service"
	"klaus/internal/pkg/config"
	"klaus/internal/pkg/middleware"
	"klaus/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// NexusModule wires the media feed: upstream clients, the aggregator and
// per-member sessions.
type NexusModule struct{}

func init() {
	registry.Register(&NexusModule{})
}

func (m *NexusModule) Name() string {
	return "nexus"
}

func (m *NexusModule) Priority() int {
	return 5
}

func (m *NexusModule) Init(ctx *registry.ModuleContext) error {
	cfg := config.GlobalConfig.Nexus
	archive := client.NewArchiveClient(cfg.ArchiveBaseURL, cfg.RateLimit)
	space := client.NewSpaceClient(cfg.SpaceBaseURL, cfg.RateLimit)

	var sampler service.KeepsakeSource
	if ctx.Local != nil {
		sampler = keepsakeservice.NewKeepsakeService(
			keepsakerepo.NewKeepsakeRepository(ctx.Local), ctx.Workers, ctx.Mirror)
	}

	agg := service.NewAggregator(archive, space, sampler)
	nexusService := service.NewNexusService(service.NewSessionManager(agg), agg, ctx.Cache)
	nexusHandler := handler.NewNexusHandler(nexusService)

	setupRoutes(ctx.Router, nexusHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.NexusHandler) {
	group := r.Group("/nexus")
	group.Use(middleware.AuthMiddleware())
	{
		group.GET("/session", h.GetSession)
		group.POST("/session", h.LoadSession)
		group.POST("/session/more", h.LoadMore)
		group.PUT("/session/mode", h.SetMode)
		group.PUT("/session/focus", h.Focus)

		group.GET("/random", h.RandomContent)
		group.GET("/rails", h.Rails)

		group.GET("/intro", h.GetIntro)
		group.PUT("/intro", h.DismissIntro)
	}
}
