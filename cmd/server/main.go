package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/citypulse/transit-feedback/internal/api"
	"github.com/citypulse/transit-feedback/internal/config"
	"github.com/citypulse/transit-feedback/internal/db"
	"github.com/citypulse/transit-feedback/internal/logging"
	"github.com/citypulse/transit-feedback/internal/services"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logging.Fatal().Err(err).Str("dir", dir).Msg("create database directory")
		}
	}

	sqlDB, err := db.Open(cfg.Database.Path)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("open database")
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			logging.Error().Err(cerr).Msg("close database")
		}
	}()

	store, err := db.NewSQLiteStore(sqlDB)
	if err != nil {
		logging.Fatal().Err(err).Msg("initialize store")
	}
	if err := db.RunMigrations(sqlDB, cfg.Database.MigrationsDir); err != nil {
		logging.Fatal().Err(err).Msg("run migrations")
	}

	handlers := api.NewHandlers(
		services.NewFeedbackService(store),
		services.NewStatsService(store),
		services.NewAnalyticsService(store),
		services.NewExportService(store),
		services.NewFileService(store),
		api.VersionInfo{
			Version:   version,
			Commit:    os.Getenv("TRANSIT_COMMIT"),
			BuildTime: os.Getenv("TRANSIT_BUILD_TIME"),
		},
	)

	router := api.NewRouter(handlers, api.RouterConfig{
		MaxBodyBytes:      cfg.Server.MaxBodyBytes,
		RateLimitRequests: cfg.Server.RateLimitRequests,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", cfg.Server.Addr).Str("version", version).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server error")
		}
	case sig := <-stop:
		logging.Info().Str("signal", sig.String()).Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logging.Error().Err(err).Msg("graceful shutdown failed")
		}
	}
}
