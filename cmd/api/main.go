package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/veilworks/faceveil/internal/api"
	"github.com/veilworks/faceveil/internal/audit"
	"github.com/veilworks/faceveil/internal/codec/ffmpeg"
	"github.com/veilworks/faceveil/internal/config"
	"github.com/veilworks/faceveil/internal/database"
	"github.com/veilworks/faceveil/internal/detect/factory"
	"github.com/veilworks/faceveil/internal/pipeline"
	"github.com/veilworks/faceveil/internal/ratelimit"
	"github.com/veilworks/faceveil/internal/repository"
	"github.com/veilworks/faceveil/internal/retention"
	"github.com/veilworks/faceveil/internal/service"
	"github.com/veilworks/faceveil/internal/storage"
	"github.com/veilworks/faceveil/internal/webhook"
	"github.com/veilworks/faceveil/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting FaceVeil API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run pending migrations before taking traffic
	if err := runMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	// Database pool
	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	// Repositories
	sessionRepo := repository.NewSessionRepository(pool)
	webhookRepo := repository.NewWebhookRepository(pool)

	// Local media storage
	store, err := storage.New(cfg.StorageDir)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	// Video codec
	vcodec := ffmpeg.New(
		ffmpeg.WithFFmpegPath(cfg.FFmpegPath),
		ffmpeg.WithFFprobePath(cfg.FFprobePath),
		ffmpeg.WithLogger(logger),
	)

	// Face detector
	detector, err := factory.New(ctx, factory.Config{
		Type:        cfg.DetectorType,
		CascadePath: cfg.CascadePath,
		DeepFaceURL: cfg.DeepFaceURL,
		AWSRegion:   cfg.AWSRegion,
	})
	if err != nil {
		return fmt.Errorf("detector: %w", err)
	}
	logger.Info("detector ready", slog.String("backend", detector.Name()))

	// Processing engine
	engine := pipeline.New(vcodec,
		pipeline.WithLogger(logger),
		pipeline.WithPreviewMaxWidth(cfg.PreviewMaxWidth),
	)

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	auditLog := audit.NewSlogLogger(logger)

	// Webhook delivery worker
	sender := webhook.NewSender(cfg.WebhookSecret)
	worker := webhook.NewWorker(webhookRepo, sender, logger, 15*time.Second)
	go worker.Run(ctx)

	// Expired session sweeper
	sweeper := retention.NewSweeper(sessionRepo, store, auditLog, logger, cfg.RetentionTTL, cfg.SweepInterval)
	go sweeper.Run(ctx)

	sessions := service.NewSessionService(
		sessionRepo,
		webhookRepo,
		sender,
		store,
		vcodec,
		engine,
		detector,
		hub,
		auditLog,
		logger,
	)

	limiter := ratelimit.NewLimiter(pool, cfg.RateLimitWindow)

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Sessions: sessions,
		Store:    store,
		Limiter:  limiter,
		Hub:      hub,
		DB:       pool,
		Config:   cfg,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	<-shutdownCtx.Done()
	logger.Info("server stopped")

	return nil
}

func runMigrations(dsn string) error {
	db, err := database.OpenSQL(dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db, "faceveil")
	if err != nil {
		return err
	}
	defer migrator.Close()

	return migrator.Up()
}
