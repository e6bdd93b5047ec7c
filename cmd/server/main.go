package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/parley-dev/parley/internal/api"
	"github.com/parley-dev/parley/internal/config"
	"github.com/parley-dev/parley/internal/interactions"
	"github.com/parley-dev/parley/internal/storage"
)

func main() {
	// Logger
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Persisted key-value context
	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		logger.Error("failed to resolve data dir", "error", err)
		os.Exit(1)
	}
	kv, err := storage.Open(cfg.StorageBackend, dataDir)
	if err != nil {
		logger.Error("failed to open storage", "backend", cfg.StorageBackend, "dir", dataDir, "error", err)
		os.Exit(1)
	}
	defer kv.Close()

	// Interaction store
	store, err := interactions.NewStore(kv)
	if err != nil {
		logger.Error("failed to load interaction store", "error", err)
		os.Exit(1)
	}

	// Router
	router := api.NewRouter(store, api.Options{
		APIKey:    cfg.APIKey,
		Backend:   string(cfg.StorageBackend),
		RateRPS:   cfg.RateRPS,
		RateBurst: cfg.RateBurst,
	}, logger)

	// Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("interaction server starting",
			"addr", addr,
			"scope", cfg.StorageContext,
			"backend", cfg.StorageBackend,
			"data_dir", dataDir,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
