package common

import (
	"community_hub/internal/domain/common/handler"
	"community_hub/internal/pkg/config"
	"community_hub/internal/pkg/middleware"
	"community_hub/internal/pkg/realtime"
	"community_hub/internal/pkg/registry"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "community_hub/docs"
)

// CommonModule 公共模块：上传、实时订阅、指标、文档
type CommonModule struct{}

func init() {
	registry.Register(&CommonModule{})
}

func (m *CommonModule) Name() string {
	return "common"
}

func (m *CommonModule) Priority() int {
	return 100
}

func (m *CommonModule) Init(ctx *registry.ModuleContext) error {
	r := ctx.Router

	h := handler.NewUploadHandler(ctx.Storage)
	r.POST("/upload",
		middleware.AuthMiddleware(),
		middleware.RequireNotBanned(ctx.Moderation),
		middleware.RequireNotMuted(ctx.Moderation),
		h.Upload)

	r.GET("/realtime/subscribe", middleware.AuthMiddleware(), realtime.SubscribeHandler(ctx.Hub))

	r.GET("/metrics", func(c *gin.Context) {
		promhttp.Handler().ServeHTTP(c.Writer, c.Request)
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 本地存储模式下直接托管上传目录
	if config.GlobalConfig.Storage.Backend == "local" {
		r.Static("/uploads", config.GlobalConfig.Storage.LocalPath)
	}
	return nil
}
