package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/infrastructure/di"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/infrastructure/worker"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/interface/server"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/config"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/logger"
)

// @title Content-Addressed Upload API
// @version 1.0
// @description SHA-256で重複排除する再開可能なマルチパートアップロードAPI
// @host localhost:8080
// @BasePath /
// @schemes http https
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Logger setup
	if err := logger.Setup(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}); err != nil {
		slog.Error("failed to setup logger", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize DI Container
	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	handlers := di.NewHandlers(container)
	middlewares := di.NewMiddlewares(container)

	// Setup Server
	serverConfig := server.DefaultConfig()
	serverConfig.Port = cfg.Server.Port
	serverConfig.Debug = cfg.Server.Debug
	serverConfig.CORSOrigins = cfg.Security.CORSOrigins
	if cfg.Server.BodyLimit != "" {
		serverConfig.BodyLimit = cfg.Server.BodyLimit
	}
	srv := server.NewServer(serverConfig)
	srv.Mount(handlers, middlewares)

	// Start background workers
	workerMgr := worker.NewManager(ctx)
	workerMgr.Register(worker.NewHealthCheckJob(container.HealthChecks...))
	workerMgr.Register(worker.NewPendingUploadReportJob(
		container.FileRecordRepo.CountPendingOlderThan,
		worker.PendingUploadReportJobConfig{
			Age:      cfg.Upload.PendingReportAge,
			Interval: cfg.Upload.PendingReportEvery,
		},
	))
	workerMgr.Start()

	// Start server
	slog.Info("starting server",
		"port", cfg.Server.Port,
		"database", cfg.Database.Driver,
		"storage", cfg.Storage.Driver,
		"redis", container.RateLimiter != nil,
	)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	// Graceful shutdown
	<-ctx.Done()

	slog.Info("shutting down server...")
	workerMgr.Shutdown(10 * time.Second)

	if err := srv.Shutdown(context.Background()); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	slog.Info("server stopped")
}
