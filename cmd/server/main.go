package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/veritext/detector-service/internal/cache"
	"github.com/veritext/detector-service/internal/classifier"
	"github.com/veritext/detector-service/internal/config"
	"github.com/veritext/detector-service/internal/repository"
	"github.com/veritext/detector-service/internal/services"
	"github.com/veritext/detector-service/internal/store"
	"github.com/veritext/detector-service/pkg/server"
)

func main() {
	var envFile = flag.String("env", "", "Optional .env file to load")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize database
	_ = os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Log startup event
	db.Event("info", "startup", "Server starting", map[string]interface{}{
		"model_name": cfg.ModelName,
		"http_addr":  cfg.HTTPAddr,
		"db_path":    cfg.DBPath,
	})

	// Initialize repository
	repo := repository.NewSQLiteRepository(db)

	// The model loads lazily on first use; the gateway deduplicates
	// concurrent loads. Warm it in the background so the first request
	// doesn't pay the full load latency.
	gateway := classifier.NewGateway(func() (classifier.Scorer, error) {
		return classifier.LoadWithAutoDownload(cfg.ModelPath, cfg.ModelURL)
	}, cfg.InferenceTimeout)

	go func() {
		db.Event("info", "model.loading", "Model loading started", map[string]interface{}{
			"model_path": cfg.ModelPath,
			"model_name": cfg.ModelName,
		})
		if err := gateway.Warm(); err != nil {
			db.Event("error", "model.failed", "Model loading failed", map[string]interface{}{
				"model_path": cfg.ModelPath,
				"error":      err.Error(),
			})
			slog.Error("Model warm-up failed", "error", err)
			return
		}
		db.Event("info", "model.loaded", "Model loaded successfully", map[string]interface{}{
			"model_path": cfg.ModelPath,
			"model_name": cfg.ModelName,
		})
	}()

	// Initialize services
	resultCache := cache.New(cfg.CacheCapacity)
	detectionService := services.NewDetectionService(gateway, resultCache, repo, cfg.MaxUnits)

	db.Event("info", "services.init", "Initializing services", map[string]interface{}{
		"http_addr": cfg.HTTPAddr,
		"nats_url":  cfg.NatsURL,
	})

	// Initialize NATS service
	natsService, err := services.NewNATSService(cfg, detectionService)
	if err != nil {
		db.Event("error", "nats.failed", "NATS service initialization failed", map[string]interface{}{
			"nats_url": cfg.NatsURL,
			"error":    err.Error(),
		})
		slog.Error("Failed to create NATS service", "error", err)
		os.Exit(1)
	}

	// Initialize Health service for detector discovery
	healthService := services.NewHealthService(natsService.GetConnection(), cfg, detectionService)

	// Start HTTP server
	httpServer := server.NewServer(cfg.HTTPAddr, detectionService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db.Event("info", "server.ready", "Server ready to accept requests", map[string]interface{}{
		"http_addr":  cfg.HTTPAddr,
		"model_name": cfg.ModelName,
		"nats_url":   cfg.NatsURL,
	})

	go func() {
		if err := httpServer.Start(ctx); err != nil {
			db.Event("error", "http.failed", "HTTP server failed", map[string]interface{}{
				"error": err.Error(),
			})
			slog.Error("HTTP server failed", "error", err)
		}
	}()

	go func() {
		if err := natsService.Start(ctx); err != nil {
			db.Event("error", "nats.failed", "NATS service failed", map[string]interface{}{
				"error": err.Error(),
			})
			slog.Error("NATS service failed", "error", err)
		}
	}()

	go func() {
		if err := healthService.Start(ctx); err != nil {
			db.Event("error", "health.failed", "Health service failed", map[string]interface{}{
				"error": err.Error(),
			})
			slog.Error("Health service failed", "error", err)
		}
	}()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	slog.Info("Shutting down server")
}
