package community

import (
	chatrepo "klaus/internal/domain/chat/repository"
	"klaus/internal/domain/community/handler"
	"klaus/internal/domain/community/repository"
	"klaus/internal/domain/community/service"
	userrepo "klaus/internal/domain/user/repository"
	userservice "klaus/internal/domain/user/service"
	"klaus/internal/pkg/middleware"
	"klaus/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// CommunityModule wires communities, memberships and channels.
type CommunityModule struct{}

func init() {
	registry.Register(&CommunityModule{})
}

func (m *CommunityModule) Name() string {
	return "community"
}

func (m *CommunityModule) Priority() int {
	// After chat: community channels are chat rooms.
	return 4
}

func (m *CommunityModule) Init(ctx *registry.ModuleContext) error {
	communityRepo := repository.NewCommunityRepository(ctx.DB)
	channelStore := chatrepo.NewRoomRepository(ctx.DB)
	profiles := userservice.NewUserService(userrepo.NewUserRepository(ctx.DB), ctx.Cache, ctx.Workers, ctx.Mirror)
	communityService := service.NewCommunityService(communityRepo, channelStore, profiles)
	communityHandler := handler.NewCommunityHandler(communityService)

	setupRoutes(ctx.Router, communityHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.CommunityHandler) {
	group := r.Group("/communities")
	group.Use(middleware.AuthMiddleware())
	{
		group.GET("/", h.Discover)
		group.POST("/", h.Create)
		group.GET("/joined", h.ListJoined)
		group.POST("/official/join", h.JoinOfficial)

		group.GET("/c/:id", h.Get)
		group.PUT("/c/:id", h.Update)
		group.POST("/c/:id/join", h.Join)
		group.POST("/c/:id/leave", h.Leave)
		group.DELETE("/c/:id", h.Delete)
		group.GET("/c/:id/members", h.Members)
		group.POST("/c/:id/members", h.AddMember)
		group.GET("/c/:id/channels", h.Channels)
		group.POST("/c/:id/channels", h.CreateChannel)
	}
}
