package discussion

import (
	"community_hub/internal/domain/discussion/handler"
	"community_hub/internal/domain/discussion/repository"
	"community_hub/internal/domain/discussion/service"
	"community_hub/internal/pkg/middleware"
	"community_hub/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// DiscussionModule 讨论模块
type DiscussionModule struct{}

func init() {
	registry.Register(&DiscussionModule{})
}

func (m *DiscussionModule) Name() string {
	return "discussion"
}

func (m *DiscussionModule) Priority() int {
	return 10
}

func (m *DiscussionModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	repo := repository.NewDiscussionRepository(ctx.DB)
	svc := service.NewDiscussionService(repo, ctx.Events)
	h := handler.NewDiscussionHandler(svc)

	// 2. 路由注册
	setupRoutes(ctx.Router, h, ctx.Moderation)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.DiscussionHandler, mod middleware.ModerationChecker) {
	g := r.Group("/discussions")

	// 公开读，可选会话决定观察者视角
	g.GET("", middleware.OptionalAuthMiddleware(), h.List)
	g.GET("/:id", middleware.OptionalAuthMiddleware(), h.Get)
	g.GET("/:id/replies", middleware.OptionalAuthMiddleware(), h.ListReplies)

	// 登录后操作；封禁和禁言都挡内容写入
	auth := g.Group("")
	auth.Use(middleware.AuthMiddleware(), middleware.RequireNotBanned(mod), middleware.RequireNotMuted(mod))
	{
		auth.POST("", h.Create)
		auth.PUT("/:id", h.Update)
		auth.DELETE("/:id", h.Delete)
		auth.POST("/:id/replies", h.AddReply)
	}

	r.POST("/likes/toggle",
		middleware.AuthMiddleware(), middleware.RequireNotBanned(mod), middleware.RequireNotMuted(mod),
		h.ToggleLike)
}
