package chat

import (
	"community_hub/internal/domain/chat/handler"
	"community_hub/internal/domain/chat/repository"
	"community_hub/internal/domain/chat/service"
	"community_hub/internal/pkg/middleware"
	"community_hub/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// ChatModule 聊天模块
type ChatModule struct{}

func init() {
	registry.Register(&ChatModule{})
}

func (m *ChatModule) Name() string {
	return "chat"
}

func (m *ChatModule) Priority() int {
	return 12
}

func (m *ChatModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewChatRepository(ctx.DB)
	read := repository.NewChatReadRepository(ctx.ReadDB)
	svc := service.NewChatService(repo, read, ctx.Events, ctx.Storage, ctx.Push)
	h := handler.NewChatHandler(svc)

	setupRoutes(ctx.Router, h, ctx.Moderation)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.ChatHandler, mod middleware.ModerationChecker) {
	notBanned := middleware.RequireNotBanned(mod)
	notMuted := middleware.RequireNotMuted(mod)

	g := r.Group("/chats")
	g.Use(middleware.AuthMiddleware())
	{
		g.GET("", h.ListChats)
		// 封禁不能建会话；禁言还能读能建，但发不出消息
		g.POST("/direct", notBanned, h.OpenDirectChat)
		g.POST("/group", notBanned, h.CreateGroupChat)
		g.GET("/:id/messages", h.ListMessages)
		g.POST("/:id/messages", notBanned, notMuted, h.SendMessage)
		g.POST("/:id/files", notBanned, notMuted, h.SendFileMessage)
	}

	// 旧客户端的 RPC 形状，内部走同一条查询
	r.POST("/rpc/get_user_chats", middleware.AuthMiddleware(), h.GetUserChats)
}
