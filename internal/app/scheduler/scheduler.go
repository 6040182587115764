// Package scheduler собирает фоновый процесс, который по расписанию
// закрывает истёкшие подписки и рассылает напоминания об окончании.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/hustler-sync/internal/cache"
	"github.com/magabrotheeeer/hustler-sync/internal/config"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/sl"
	"github.com/magabrotheeeer/hustler-sync/internal/metrics"
	schedulerservice "github.com/magabrotheeeer/hustler-sync/internal/services/scheduler"
	"github.com/magabrotheeeer/hustler-sync/internal/storage/repository"
)

const (
	dbReadyAttempts = 10
	dbReadyDelay    = 3 * time.Second
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.SchedulerService
	schedule         config.Scheduler
	metricsAddr      string
	registry         prometheus.Gatherer
	db               *repository.Storage
	cache            *cache.Cache
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

func waitForDB(ctx context.Context, db *repository.Storage, logger *slog.Logger) error {
	var err error
	for range dbReadyAttempts {
		if err = repository.CheckDatabaseReady(ctx, db); err == nil {
			return nil
		}
		logger.Warn("database not ready, retrying", sl.Err(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dbReadyDelay):
		}
	}
	return fmt.Errorf("database not ready after retries: %w", err)
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		schedule:    cfg.Scheduler,
		metricsAddr: cfg.SchedulerMetricsAddress,
		logger:      logger,
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	a.db = db
	if err = waitForDB(ctx, db, logger); err != nil {
		a.close()
		return nil, err
	}

	a.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	a.conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	a.ch, err = rabbitmq.SetupChannel(a.conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	reg := metrics.NewRegistry()
	a.registry = reg
	a.schedulerService = schedulerservice.NewSchedulerService(db, a.cache, rabbitmq.NewPublisher(a.ch),
		metrics.New(reg), logger)
	return a, nil
}

// Run запускает задачи по расписанию и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	go func() {
		if err := metrics.Serve(ctx, a.metricsAddr, a.registry, a.logger); err != nil {
			a.logger.Error("metrics server stopped", sl.Err(err))
		}
	}()

	err := a.schedulerService.Start(ctx, a.schedule)
	a.logger.Info("shutting down scheduler service")
	return err
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close storage", sl.Err(err))
		}
	}
}
