package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/hustler-sync/internal/app/sender"
	"github.com/magabrotheeeer/hustler-sync/internal/config"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/logger"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	log.Info("starting sender", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := sender.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize sender", slog.Any("err", err))
		os.Exit(1)
	}
	if err := app.Run(ctx); err != nil {
		log.Error("sender stopped with error", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("sender stopped gracefully")
}
