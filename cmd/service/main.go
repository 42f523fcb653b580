package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/swapspot/swapspot/internal/dependency"
	"github.com/swapspot/swapspot/internal/infrastructure/tracing"
	"go.uber.org/zap"
)

// One binary runs any domain service; the name picks which. Deployments run
// eight of these, one per service, next to the gateway.
func main() {
	name := os.Getenv("SERVICE")
	if len(os.Args) > 1 {
		name = os.Args[1]
	}
	if name == "" {
		log.Fatal("usage: service <name> (or SERVICE env var)")
	}

	container, err := dependency.NewContainer()
	if err != nil {
		log.Fatal(fmt.Errorf("error building container: %w", err))
	}
	defer container.Close()

	loggerInstance := container.Logger
	defer func() {
		if err := loggerInstance.Log.Sync(); err != nil {
			loggerInstance.Log.Error("failed to sync logger", zap.Error(err))
		}
	}()

	if container.Config.Tracing.Enabled {
		shutdown, err := tracing.InitTracer(tracing.Config{
			ServiceName: name,
			Environment: container.Config.Server.RunMode,
			Endpoint:    container.Config.Tracing.Endpoint,
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

	endpoint, ok := container.Config.Service(name)
	if !ok {
		loggerInstance.Fatal("service has no endpoint in config", zap.String("service", name))
	}

	server, err := container.BuildServer(name)
	if err != nil {
		loggerInstance.Fatal("error building service", zap.String("service", name), zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		loggerInstance.Info("Shutting down service...", zap.String("service", name))
		cancel()
	}()

	loggerInstance.Info("Service starting",
		zap.String("service", name),
		zap.String("addr", endpoint.Addr()),
	)

	if err := server.ListenAndServe(ctx, endpoint.Addr()); err != nil && ctx.Err() == nil {
		loggerInstance.Fatal("Service failed", zap.String("service", name), zap.Error(err))
	}

	loggerInstance.Info("Service exited successfully", zap.String("service", name))
}
