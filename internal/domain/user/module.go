package user

import (
	"klaus/internal/domain/user/handler"
	"klaus/internal/domain/user/repository"
	"klaus/internal/domain/user/service"
	"klaus/internal/pkg/middleware"
	"klaus/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// UserModule wires accounts, auth and the member directory.
type UserModule struct{}

func init() {
	registry.Register(&UserModule{})
}

func (m *UserModule) Name() string {
	return "user"
}

func (m *UserModule) Priority() int {
	// Other modules resolve profiles through this one.
	return 1
}

func (m *UserModule) Init(ctx *registry.ModuleContext) error {
	userRepo := repository.NewUserRepository(ctx.DB)
	userService := service.NewUserService(userRepo, ctx.Cache, ctx.Workers, ctx.Mirror)
	userHandler := handler.NewUserHandler(userService)

	setupRoutes(ctx.Router, userHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.UserHandler) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	userGroup := r.Group("/users")
	userGroup.Use(middleware.AuthMiddleware())
	{
		userGroup.GET("/", h.GetDirectory)
		userGroup.GET("/search", h.SearchProfiles)
		userGroup.GET("/suggested", h.SuggestedUsers)
		userGroup.GET("/profile/:id", h.GetProfile)
		userGroup.PUT("/me", h.UpdateProfile)
		userGroup.PUT("/me/handle", h.ClaimHandle)
		userGroup.PUT("/me/presence", h.SetPresence)
		userGroup.DELETE("/me", h.DeleteAccount)
	}
}
