// Overpass prediction server entry point
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

	"github.com/geowatch/nextpass/internal/api"
	"github.com/geowatch/nextpass/internal/cloud"
	"github.com/geowatch/nextpass/internal/config"
	"github.com/geowatch/nextpass/internal/mission"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set up logger
	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("starting overpass prediction server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"cache_dir", cfg.Cache.Dir,
	)

	if err := os.MkdirAll(cfg.Cache.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	// Create weather client and estimator. The breaker and rate limiter are
	// shared process-wide so concurrent queries respect the provider limit
	// together.
	weatherClient := cloud.NewClient(
		cfg.Weather.ForecastURL,
		cfg.Weather.ArchiveURL,
		cfg.Weather.Timeout,
	).WithLogger(logger)

	breaker := cloud.NewBreaker()
	estimator := cloud.NewEstimator(weatherClient, breaker, cloud.EstimatorConfig{
		Workers:    cfg.Weather.Workers,
		BatchSize:  cfg.Weather.BatchSize,
		RatePerSec: cfg.Weather.RatePerSec,
	}, logger)
	logger.Info("initialized cloudiness estimator",
		"workers", cfg.Weather.Workers,
		"batch_size", cfg.Weather.BatchSize,
		"rate_per_sec", cfg.Weather.RatePerSec,
	)

	// Create the mission service over the default registry
	registry := mission.DefaultRegistry()
	svc := mission.NewService(cfg, registry, estimator, logger)
	logger.Info("registered missions", "missions", svc.Missions())

	// Create handlers and router
	handlers := api.NewHandlers(svc, logger)
	router := api.NewRouter(handlers, logger)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down server", "timeout", cfg.Server.ShutdownTimeout)
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
