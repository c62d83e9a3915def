package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adminRepository "community_hub/internal/domain/admin/repository"
	"community_hub/internal/pkg/config"
	"community_hub/internal/pkg/middleware"
	"community_hub/internal/pkg/push"
	"community_hub/internal/pkg/realtime"
	"community_hub/internal/pkg/registry"
	"community_hub/internal/pkg/storage"
	"community_hub/internal/pkg/worker"
	"community_hub/pkg/cache"
	"community_hub/pkg/database"
	"community_hub/pkg/logger"
	"community_hub/pkg/metrics"

	// 模块注册 (init 副作用)
	_ "community_hub/internal/domain/admin"
	_ "community_hub/internal/domain/bounty"
	_ "community_hub/internal/domain/chat"
	_ "community_hub/internal/domain/common"
	_ "community_hub/internal/domain/discussion"
	_ "community_hub/internal/domain/profile"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// @title Community Hub API
// @version 1.0
// @description Discussions, bounties, chat and moderation for the community platform.
// @BasePath /
func main() {
	config.LoadConfig()
	cfg := config.GlobalConfig

	logger.Init(cfg.Server.Mode, cfg.App.LogLevel)
	defer logger.Sync()

	db := database.InitDatabase()
	readDB := database.InitReadDB()
	redisClient := database.InitRedis()

	// 实时变更通知：Redis 总线 + 多路复用 Hub + 异步发布
	hub := realtime.NewHub(
		realtime.NewRedisBus(redisClient),
		cfg.Realtime.ChannelPrefix,
		cfg.Realtime.SubscriberQueue,
	)
	publisher := worker.NewEventPublisher(hub, cfg.Realtime.PublishWorkers, cfg.Realtime.PublishBuffer)
	publisher.Start()

	store, err := storage.New()
	if err != nil {
		logger.Log.Fatal("init storage failed", zap.Error(err))
	}

	var pushSvc push.PushService = push.NopPushService{}
	if cfg.Push.Enabled {
		aliyun, err := push.NewAliyunPushService()
		if err != nil {
			logger.Log.Fatal("init push service failed", zap.Error(err))
		}
		pushSvc = aliyun
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.RateLimitMiddleware(middleware.NewIPRateLimiter(rate.Limit(50), 100)))

	moduleCtx := &registry.ModuleContext{
		DB:      db,
		ReadDB:  readDB,
		Redis:   redisClient,
		Router:  router,
		Cache:   cache.NewRedisCache(redisClient),
		Events:  publisher,
		Hub:     hub,
		Storage: store,
		Push:    pushSvc,
		// 处罚拦截直接查处罚表，各模块的写路由共用
		Moderation: adminRepository.NewAdminRepository(db),
	}
	if err := registry.InitModules(moduleCtx); err != nil {
		logger.Log.Fatal("init modules failed", zap.Error(err))
	}

	go sampleDBStats(db)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("server shutdown failed", zap.Error(err))
	}

	// 先排空事件队列再放进程退出
	publisher.Stop()

	logger.Log.Info("server exited")
}

// sampleDBStats 周期性把连接池状态喂给指标
func sampleDBStats(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logger.Log.Warn("db stats unavailable", zap.Error(err))
		return
	}

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		metrics.GetGlobalCollector().RecordDBStats(sqlDB.Stats())
	}
}
