package profile

import (
	"community_hub/internal/domain/profile/handler"
	"community_hub/internal/domain/profile/repository"
	"community_hub/internal/domain/profile/service"
	"community_hub/internal/pkg/middleware"
	"community_hub/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// ProfileModule 用户资料模块
type ProfileModule struct{}

func init() {
	// 自动注册模块
	registry.Register(&ProfileModule{})
}

func (m *ProfileModule) Name() string {
	return "profile"
}

func (m *ProfileModule) Priority() int {
	// 资料模块优先级最高，其他模块都依赖用户
	return 1
}

func (m *ProfileModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	repo := repository.NewProfileRepository(ctx.DB)
	svc := service.NewProfileService(repo, ctx.Cache)
	h := handler.NewProfileHandler(svc)

	// 2. 路由注册
	setupRoutes(ctx.Router, h, ctx.Moderation)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.ProfileHandler, mod middleware.ModerationChecker) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.PUT("/password", middleware.AuthMiddleware(), h.ChangePassword)
	}

	g := r.Group("/profiles")

	// 公开读，带可选会话区分观察者视角
	g.GET("/:id", middleware.OptionalAuthMiddleware(), h.GetProfile)
	g.GET("/:id/followers", h.ListFollowers)
	g.GET("/:id/following", h.ListFollowing)

	// 登录后操作；封禁挡掉资料和关注写入，禁言不影响
	auth := g.Group("")
	auth.Use(middleware.AuthMiddleware(), middleware.RequireNotBanned(mod))
	{
		auth.PUT("/me", h.UpdateProfile)
		auth.POST("/:id/follow", h.Follow)
		auth.DELETE("/:id/follow", h.Unfollow)
	}
}
