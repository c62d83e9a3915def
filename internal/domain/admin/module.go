package admin

import (
	"time"

	"community_hub/internal/domain/admin/handler"
	"community_hub/internal/domain/admin/repository"
	"community_hub/internal/domain/admin/service"
	"community_hub/internal/pkg/middleware"
	"community_hub/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// AdminModule 管理模块
type AdminModule struct {
	sweeper *service.ModerationSweeper
}

func init() {
	registry.Register(&AdminModule{})
}

func (m *AdminModule) Name() string {
	return "admin"
}

func (m *AdminModule) Priority() int {
	return 20
}

func (m *AdminModule) Init(ctx *registry.ModuleContext) error {
	repo := repository.NewAdminRepository(ctx.DB)
	read := repository.NewAdminReadRepository(ctx.ReadDB)
	svc := service.NewAdminService(repo, read)
	h := handler.NewAdminHandler(svc)

	setupRoutes(ctx.Router, h)

	m.sweeper = service.NewModerationSweeper(repo, time.Minute)
	m.sweeper.Start()
	return nil
}

func setupRoutes(r *gin.Engine, h *handler.AdminHandler) {
	g := r.Group("/admin")
	g.Use(middleware.AuthMiddleware())

	// 版主及以上
	mod := g.Group("")
	mod.Use(middleware.ModeratorMiddleware())
	{
		mod.GET("/users", h.ListUsers)
		mod.POST("/moderation", h.ApplyModeration)
		mod.DELETE("/moderation/:id", h.DeactivateModeration)
		mod.GET("/moderation", h.ListActiveModeration)
	}

	// 仅管理员
	adm := g.Group("")
	adm.Use(middleware.AdminMiddleware())
	{
		adm.POST("/roles", h.AssignRole)
		adm.GET("/custom-roles", h.ListCustomRoles)
		adm.POST("/custom-roles", h.CreateCustomRole)
		adm.PUT("/custom-roles/:id", h.UpdateCustomRole)
		adm.DELETE("/custom-roles/:id", h.DeleteCustomRole)
		adm.POST("/custom-roles/assign", h.AssignCustomRole)
		adm.DELETE("/custom-roles/assign/:userId", h.RemoveCustomRole)
	}

	// 普通用户查询自己的角色
	r.POST("/rpc/my_role", middleware.AuthMiddleware(), h.MyRole)
	r.POST("/rpc/my_custom_role", middleware.AuthMiddleware(), h.MyCustomRole)
}
