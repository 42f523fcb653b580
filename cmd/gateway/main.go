package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/swapspot/swapspot/internal/infrastructure/cache"
	"github.com/swapspot/swapspot/internal/infrastructure/config"
	"github.com/swapspot/swapspot/internal/infrastructure/logger"
	"github.com/swapspot/swapspot/internal/infrastructure/messaging"
	"github.com/swapspot/swapspot/internal/infrastructure/metrics"
	"github.com/swapspot/swapspot/internal/infrastructure/rpc"
	"github.com/swapspot/swapspot/internal/infrastructure/sign"
	"github.com/swapspot/swapspot/internal/infrastructure/storage"
	"github.com/swapspot/swapspot/internal/infrastructure/tracing"
	"github.com/swapspot/swapspot/internal/infrastructure/websocket"
	"github.com/swapspot/swapspot/internal/presentation/gateway"
	"github.com/swapspot/swapspot/internal/presentation/middlewares"
	"github.com/swapspot/swapspot/internal/presentation/routes"
	"go.uber.org/zap"
)

func main() {
	cfg := config.GetConfig()
	loggerInstance, err := logger.NewLogger(cfg.Server.RunMode)
	if err != nil {
		log.Fatal(fmt.Errorf("error initializing logger: %w", err))
	}
	defer func() {
		if err := loggerInstance.Log.Sync(); err != nil {
			loggerInstance.Log.Error("failed to sync logger", zap.Error(err))
		}
	}()

	loggerInstance.Info("Starting Swapspot gateway")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(tracing.Config{
			ServiceName: "gateway",
			Environment: cfg.Server.RunMode,
			Endpoint:    cfg.Tracing.Endpoint,
		})
		if err != nil {
			loggerInstance.Panic("error initializing tracing", zap.Error(err))
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := shutdown(shutdownCtx); err != nil {
				loggerInstance.Warn("tracer shutdown failed", zap.Error(err))
			}
		}()
	}

	if err := cache.InitRedis(cfg); err != nil {
		loggerInstance.Panic("error initializing cache", zap.Error(err))
	}
	defer cache.CloseRedis()

	registry := rpc.NewRegistry(cfg, loggerInstance)
	defer registry.Close()

	fileStore, err := storage.NewLocalStorage(cfg.Storage.UploadDir)
	if err != nil {
		loggerInstance.Panic("error initializing file storage", zap.Error(err))
	}

	hub := websocket.NewHub(loggerInstance)
	go hub.Run(ctx)

	startPushConsumer(ctx, cfg, loggerInstance, hub)

	jwtManager := sign.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TTL)

	switch cfg.Server.RunMode {
	case "release", "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.GinLogger(loggerInstance))
	router.Use(middlewares.CorsMiddleware(cfg))
	router.Use(metrics.Middleware())
	router.Use(middlewares.RateLimiterMiddleware(cache.GetRedis(), loggerInstance, middlewares.DefaultRateLimiterConfig()))

	handler := gateway.NewHandler(registry, fileStore, loggerInstance)
	push := gateway.NewPushHandler(hub, jwtManager, loggerInstance)
	routes.GatewayRoutes(router, handler, push)

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	go func() {
		loggerInstance.Info("Gateway starting",
			zap.String("port", cfg.Server.Port),
			zap.String("mode", cfg.Server.RunMode),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			loggerInstance.Fatal("Gateway failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	loggerInstance.Info("Shutting down gateway...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Fatal("Gateway forced to shutdown", zap.Error(err))
	}

	loggerInstance.Info("Gateway exited successfully")
}

// startPushConsumer bridges broker events onto the websocket hub. A missing
// broker only disables push; HTTP dispatch is unaffected.
func startPushConsumer(ctx context.Context, cfg *config.Config, loggerInstance *logger.Logger, hub *websocket.Hub) {
	rmq, err := messaging.NewRabbitMQ(cfg.Amqp.URI)
	if err != nil {
		loggerInstance.Warn("broker unavailable, push notifications disabled", zap.Error(err))
		return
	}

	consumer := messaging.NewConsumer(rmq, loggerInstance)
	go func() {
		defer rmq.Close()
		err := consumer.ConsumeNotifications(ctx, "gateway-push", func(event messaging.NotificationCreatedEvent) {
			hub.NotifyUser(event.UserID, websocket.NewUnreadCountMessage(event.UnreadCount))
		})
		if err != nil && ctx.Err() == nil {
			loggerInstance.Error("push consumer stopped", zap.Error(err))
		}
	}()
}
