package hustlersync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/magabrotheeeer/hustler-sync/internal/audit"
	"github.com/magabrotheeeer/hustler-sync/internal/cache"
	"github.com/magabrotheeeer/hustler-sync/internal/config"
	"github.com/magabrotheeeer/hustler-sync/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/jwt"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/sl"
	"github.com/magabrotheeeer/hustler-sync/internal/metrics"
	"github.com/magabrotheeeer/hustler-sync/internal/migrations"
	"github.com/magabrotheeeer/hustler-sync/internal/paymentgateway"
	authservice "github.com/magabrotheeeer/hustler-sync/internal/services/auth"
	billingservice "github.com/magabrotheeeer/hustler-sync/internal/services/billing"
	catalogservice "github.com/magabrotheeeer/hustler-sync/internal/services/catalog"
	jobpostservice "github.com/magabrotheeeer/hustler-sync/internal/services/jobpost"
	supportservice "github.com/magabrotheeeer/hustler-sync/internal/services/support"
	"github.com/magabrotheeeer/hustler-sync/internal/storage/repository"
	"github.com/magabrotheeeer/hustler-sync/internal/upload"
)

// shutdownTimeout время на завершение активных запросов при остановке.
const shutdownTimeout = 15 * time.Second

// App HTTP-приложение со всеми внешними подключениями.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	db      *repository.Storage
	cache   *cache.Cache
	conn    *amqp.Connection
	ch      *amqp.Channel
	mongo   *mongo.Client
	limiter *middlewarectx.IPRateLimiter
	window  time.Duration
}

// New подключает хранилища и брокер, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{logger: logger, window: cfg.RateLimitWindow}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	a.db = db
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
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
	publisher := rabbitmq.NewPublisher(a.ch)

	uploader, err := upload.New(ctx, cfg.S3)
	if err != nil {
		a.close()
		return nil, err
	}

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	authService := authservice.NewAuthService(db, db, jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
		publisher, cfg.ClientURL, logger)
	billingService := billingservice.NewBillingService(db, paymentgateway.NewClient(cfg.Stripe), a.cache,
		publisher, a.journal(ctx, cfg.Mongo), m, cfg.Stripe, cfg.CurrentPlanCacheTTL, logger)

	a.limiter = middlewarectx.NewIPRateLimiter(cfg.RateLimit)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Env:       cfg.Env,
		StartedAt: time.Now(),
		Auth:      authService,
		Catalog:   catalogservice.NewCatalogService(db, a.cache, cfg.PlansCacheTTL, logger),
		Billing:   billingService,
		JobPosts:  jobpostservice.NewJobPostService(db, logger),
		Support:   supportservice.NewSupportService(db, logger),
		Uploader:  uploader,
		Limiter:   a.limiter,
		Gatherer:  reg,
	})

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

// journal подключает журнал MongoDB. Без адреса или при недоступной базе журнал отключается.
func (a *App) journal(ctx context.Context, cfg config.Mongo) billingservice.Journal {
	if cfg.MongoURL == "" {
		a.logger.Info("mongo url is empty, payment journal disabled")
		return audit.Nop{}
	}
	client, err := audit.Connect(ctx, cfg)
	if err != nil {
		a.logger.Warn("payment journal disabled", sl.Err(err))
		return audit.Nop{}
	}
	a.mongo = client
	return audit.NewFromClient(client, cfg.MongoDatabase)
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	go a.cleanupLimiter(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) cleanupLimiter(ctx context.Context) {
	if a.window <= 0 {
		return
	}
	ticker := time.NewTicker(a.window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.limiter.Cleanup()
		}
	}
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
	if a.mongo != nil {
		if err := a.mongo.Disconnect(context.Background()); err != nil {
			a.logger.Error("failed to disconnect mongo", sl.Err(err))
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
