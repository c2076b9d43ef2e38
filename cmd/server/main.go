package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Dalvae/upworkinsights/internal/config"
	"github.com/Dalvae/upworkinsights/internal/domain"
	"github.com/Dalvae/upworkinsights/internal/events"
	"github.com/Dalvae/upworkinsights/internal/httpserver"
	"github.com/Dalvae/upworkinsights/internal/scheduler"
	"github.com/Dalvae/upworkinsights/internal/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.IngestAPIKey == "" {
		logger.Warn("INGEST_API_KEY is not set, ingest endpoints will reject all requests")
	}

	// Repository implements the job, profile and stats ports.
	repo, err := sqlite.NewRepository(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("create repository: %w", err)
	}
	defer repo.Close()
	logger.Info("database ready", "path", cfg.DatabasePath)

	hub := events.NewHub(logger)
	service := domain.NewService(repo, repo, repo, hub, cfg.BlockedCountries, logger)

	rollup, err := scheduler.New(service, cfg.RollupSchedule, logger)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	rollup.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	server := httpserver.NewServer(cfg, service, hub, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server exited with error", "error", err)
		}
	}()

	logger.Info("server started", "port", cfg.Port)

	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)

	rollup.Stop()
	hub.Shutdown()
	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("error shutting down http server", "error", err)
	}

	return nil
}
