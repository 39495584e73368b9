package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/exp/slog"

	"milkcollect/internal/app/server/api"
	"milkcollect/internal/app/server/config"
	"milkcollect/internal/infrastructure/storage/memory"
	"milkcollect/internal/infrastructure/storage/postgres"
	"milkcollect/internal/utils/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.MustLoad()

	log := logger.NewWithFile(cfg.Env, cfg.Logger.LogLevel, cfg.Logger.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeRepos, err := repositories(ctx, cfg, log)
	if err != nil {
		log.Error("storage init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeRepos()

	srv := &http.Server{
		Addr:              cfg.Server.RunAddress,
		Handler:           api.New(cfg, repos, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server started",
			slog.String("address", cfg.Server.RunAddress),
			slog.String("env", cfg.Env),
			slog.String("api_version", cfg.Server.APIVersion),
			slog.Bool("in_memory", cfg.InMemory()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
	}
	log.Info("server stopped")
}

func repositories(ctx context.Context, cfg *config.Config, log *slog.Logger) (api.Repositories, func(), error) {
	if cfg.InMemory() {
		log.Warn("DATABASE_URI not set, using in-memory storage")
		return api.Repositories{
			Devices: memory.NewDeviceRepository(),
			Sales:   memory.NewSaleRepository(),
		}, func() {}, nil
	}

	storage, err := postgres.New(ctx, cfg, log)
	if err != nil {
		return api.Repositories{}, nil, err
	}
	return api.Repositories{
			Devices: postgres.NewDeviceRepository(storage, log),
			Sales:   postgres.NewSaleRepository(storage, log),
		}, func() {
			_ = storage.Close()
		}, nil
}
