package bounty

import (
	"community_hub/internal/domain/bounty/handler"
	"community_hub/internal/domain/bounty/repository"
	"community_hub/internal/domain/bounty/service"
	"community_hub/internal/pkg/middleware"
	"community_hub/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// BountyModule 悬赏模块
type BountyModule struct{}

func init() {
	registry.Register(&BountyModule{})
}

func (m *BountyModule) Name() string {
	return "bounty"
}

func (m *BountyModule) Priority() int {
	return 11
}

func (m *BountyModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewBountyRepository(ctx.DB)
	svc := service.NewBountyService(repo, ctx.Events)
	h := handler.NewBountyHandler(svc)

	setupRoutes(ctx.Router, h, ctx.Moderation)
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.BountyHandler, mod middleware.ModerationChecker) {
	g := r.Group("/bounties")

	g.GET("", h.List)
	g.GET("/:id", h.Get)

	// 悬赏也是内容，封禁和禁言都不允许发布或改动
	auth := g.Group("")
	auth.Use(middleware.AuthMiddleware(), middleware.RequireNotBanned(mod), middleware.RequireNotMuted(mod))
	{
		auth.POST("", h.Create)
		auth.PUT("/:id", h.Update)
		auth.DELETE("/:id", h.Delete)
		auth.PUT("/:id/status", h.UpdateStatus)
	}
}
