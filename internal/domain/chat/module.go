package chat

import (
	"klaus/internal/domain/chat/handler"
	"klaus/internal/domain/chat/repository"
	"klaus/internal/domain/chat/service"
	"klaus/internal/pkg/middleware"
	"klaus/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// ChatModule wires conversations and messages.
type ChatModule struct{}

func init() {
	registry.Register(&ChatModule{})
}

func (m *ChatModule) Name() string {
	return "chat"
}

func (m *ChatModule) Priority() int {
	return 3
}

func (m *ChatModule) Init(ctx *registry.ModuleContext) error {
	roomRepo := repository.NewRoomRepository(ctx.DB)
	chatService := service.NewChatService(roomRepo, ctx.Cache)
	chatHandler := handler.NewChatHandler(chatService)

	setupRoutes(ctx.Router, chatHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.ChatHandler) {
	chatGroup := r.Group("/chats")
	chatGroup.Use(middleware.AuthMiddleware())
	{
		chatGroup.GET("/", h.Sidebar)
		chatGroup.POST("/direct", h.OpenDirect)
		chatGroup.POST("/assistant", h.OpenAssistant)
		chatGroup.POST("/groups", h.CreateGroup)

		chatGroup.GET("/active", h.GetActiveChat)
		chatGroup.PUT("/active", h.SetActiveChat)
		chatGroup.GET("/selection", h.GetSelection)
		chatGroup.PUT("/selection", h.SetSelection)

		chatGroup.GET("/room/:id", h.GetRoom)
		chatGroup.GET("/room/:id/messages", h.ListMessages)
		chatGroup.POST("/room/:id/messages", h.SendMessage)
		chatGroup.DELETE("/room/:id", h.HideChat)

		chatGroup.POST("/messages/:id/read", h.MarkRead)
		chatGroup.POST("/messages/:id/reactions", h.ToggleReaction)
	}
}
