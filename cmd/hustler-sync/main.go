// Package main Hustler Sync API
//
// @title           Hustler Sync API
// @version         1.0
// @description     API маркетплейса услуг: исполнители, клиенты, тарифные планы и подписки
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package main

//go:generate swag init -g main.go -d ./,../../internal -o ../../docs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/magabrotheeeer/hustler-sync/docs"
	hustlersync "github.com/magabrotheeeer/hustler-sync/internal/app/hustler-sync"
	"github.com/magabrotheeeer/hustler-sync/internal/config"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/logger"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)

	log.Info("starting hustler-sync", slog.String("env", cfg.Env))
	log.Debug("loaded configuration", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := hustlersync.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("app stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("hustler-sync stopped gracefully")
}
