package social

import (
	"klaus/internal/domain/social/handler"
	"klaus/internal/domain/social/repository"
	"klaus/internal/domain/social/service"
	userrepo "klaus/internal/domain/user/repository"
	userservice "klaus/internal/domain/user/service"
	"klaus/internal/pkg/middleware"
	"klaus/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// SocialModule wires the friend graph.
type SocialModule struct{}

func init() {
	registry.Register(&SocialModule{})
}

func (m *SocialModule) Name() string {
	return "social"
}

func (m *SocialModule) Priority() int {
	return 2
}

func (m *SocialModule) Init(ctx *registry.ModuleContext) error {
	friendRepo := repository.NewFriendRepository(ctx.DB)
	profiles := userservice.NewUserService(userrepo.NewUserRepository(ctx.DB), ctx.Cache, ctx.Workers, ctx.Mirror)
	friendService := service.NewFriendService(friendRepo, profiles)
	friendHandler := handler.NewFriendHandler(friendService)

	setupRoutes(ctx.Router, friendHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.FriendHandler) {
	friendGroup := r.Group("/friends")
	friendGroup.Use(middleware.AuthMiddleware())
	{
		friendGroup.GET("/", h.ListFriends)
		friendGroup.DELETE("/:id", h.RemoveFriend)

		friendGroup.GET("/requests", h.ListRequests)
		friendGroup.POST("/requests", h.SendRequest)
		friendGroup.POST("/requests/:id/accept", h.AcceptRequest)
		friendGroup.POST("/requests/:id/decline", h.DeclineRequest)
		friendGroup.POST("/requests/:id/cancel", h.CancelRequest)
	}
}
