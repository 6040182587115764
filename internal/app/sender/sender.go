// Package sender собирает фоновый процесс, который читает события
// уведомлений из RabbitMQ и отправляет письма.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/hustler-sync/internal/config"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/sl"
	"github.com/magabrotheeeer/hustler-sync/internal/metrics"
	senderservice "github.com/magabrotheeeer/hustler-sync/internal/services/sender"
)

// App приложение отправки уведомлений.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	metricsAddr   string
	registry      prometheus.Gatherer
	logger        *slog.Logger
}

// New подключается к RabbitMQ и выбирает почтовый транспорт.
// Без ключа Resend письма только пишутся в лог.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		if cerr := conn.Close(); cerr != nil {
			logger.Error("failed to close connection", sl.Err(cerr))
		}
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	var mailer senderservice.Mailer
	if cfg.ResendAPIKey != "" {
		mailer = senderservice.NewResendMailer(cfg.ResendAPIKey, cfg.MailFrom, logger)
	} else {
		logger.Warn("resend api key is empty, emails are logged only")
		mailer = senderservice.NewLogMailer(logger)
	}

	reg := metrics.NewRegistry()
	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderservice.NewSenderService(mailer, metrics.New(reg), logger),
		metricsAddr:   cfg.SenderMetricsAddress,
		registry:      reg,
		logger:        logger,
	}, nil
}

// Run запускает потребителей всех очередей уведомлений и ждёт отмены ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	go func() {
		if err := metrics.Serve(ctx, a.metricsAddr, a.registry, a.logger); err != nil {
			a.logger.Error("metrics server stopped", sl.Err(err))
		}
	}()

	for _, q := range rabbitmq.GetNotificationQueues() {
		handler, err := a.senderService.Handler(ctx, q.RoutingKey)
		if err != nil {
			return fmt.Errorf("queue %s: %w", q.QueueName, err)
		}
		if err = rabbitmq.ConsumerMessage(ctx, a.ch, q.QueueName, handler, a.logger); err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", q.QueueName), sl.Err(err))
			return err
		}
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
