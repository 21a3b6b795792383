package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"klaus/internal/pkg/config"
	"klaus/internal/pkg/middleware"
	"klaus/internal/pkg/registry"
	"klaus/internal/pkg/worker"
	"klaus/pkg/cache"
	"klaus/pkg/database"
	"klaus/pkg/logger"
	"klaus/pkg/mirror"
	"klaus/pkg/response"

	_ "klaus/internal/domain/chat"
	_ "klaus/internal/domain/community"
	_ "klaus/internal/domain/gif"
	_ "klaus/internal/domain/keepsake"
	_ "klaus/internal/domain/nexus"
	_ "klaus/internal/domain/social"
	_ "klaus/internal/domain/user"
)

// @title Klaus API
// @version 1.0
// @description Chat, communities and the Nexus media feed.
// @BasePath /
func main() {
	config.LoadConfig()
	cfg := config.GlobalConfig

	if err := logger.Init(cfg.Server.Mode); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	gin.SetMode(cfg.Server.Mode)

	db := database.InitDatabase()
	redisClient := database.InitRedis()

	local, err := database.InitLocal(cfg.Local.DataDir)
	if err != nil {
		logger.Log.Fatal("Failed to open local store", zap.Error(err))
	}

	mirrorClient, err := mirror.New(cfg.Mirror.URL, cfg.Mirror.Key, cfg.Mirror.Enabled)
	if err != nil {
		logger.Log.Fatal("Failed to init mirror client", zap.Error(err))
	}

	workers := worker.NewPool(cfg.Worker.Num, cfg.Worker.BufferSize)
	workers.Start()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware())
	r.Use(middleware.RateLimitMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	moduleCtx := &registry.ModuleContext{
		DB:      db,
		Redis:   redisClient,
		Cache:   cache.NewRedisCache(redisClient),
		Local:   local,
		Mirror:  mirrorClient,
		Workers: workers,
		Router:  r,
	}
	if err := registry.InitModules(moduleCtx); err != nil {
		logger.Log.Fatal("Failed to init modules", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}

	if err := local.Close(); err != nil {
		logger.Warn("Failed to close local store", zap.Error(err))
	}

	logger.Info("Server exited")
}
