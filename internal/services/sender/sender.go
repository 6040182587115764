// Package services отправляет письма по событиям из очередей уведомлений.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/hustler-sync/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/sl"
	"github.com/magabrotheeeer/hustler-sync/internal/metrics"
	"github.com/magabrotheeeer/hustler-sync/internal/models"
)

// Mailer отправляет письмо.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// SenderService превращает события уведомлений в письма.
type SenderService struct {
	mailer  Mailer
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(mailer Mailer, m *metrics.Metrics, log *slog.Logger) *SenderService {
	return &SenderService{
		mailer:  mailer,
		metrics: m,
		log:     log,
	}
}

// Handler возвращает обработчик сообщений для ключа маршрутизации routingKey.
//
// Сообщения, которые нельзя разобрать, логируются и подтверждаются, чтобы не возвращаться в очередь.
// Ошибка отправки возвращается, и сообщение будет доставлено повторно.
func (s *SenderService) Handler(ctx context.Context, routingKey string) (func([]byte) error, error) {
	const op = "sender.Handler"
	build, ok := builders[routingKey]
	if !ok {
		return nil, fmt.Errorf("%s: no handler for routing key %q", op, routingKey)
	}
	queue, _ := rabbitmq.QueueFor(routingKey)
	log := s.log.With(sl.Op(op), slog.String("queue", queue))

	return func(body []byte) error {
		email, err := build(body)
		if err != nil {
			log.Error("dropping malformed message", sl.Err(err))
			s.count(queue, "malformed")
			return nil
		}
		if err := s.mailer.Send(ctx, email); err != nil {
			s.count(queue, "failed")
			return fmt.Errorf("%s: %w", op, err)
		}
		s.count(queue, "sent")
		log.Info("notification email sent", slog.String("to", email.To))
		return nil
	}, nil
}

func (s *SenderService) count(queue, outcome string) {
	if s.metrics != nil {
		s.metrics.EmailsSent.WithLabelValues(queue, outcome).Inc()
	}
}

var builders = map[string]func([]byte) (Email, error){
	rabbitmq.RoutingPasswordReset: func(body []byte) (Email, error) {
		return buildEmail[models.PasswordResetEvent](body, "password_reset", "Reset your HustlerSync password",
			func(e models.PasswordResetEvent) string { return e.Email })
	},
	rabbitmq.RoutingSubscriptionActivated: func(body []byte) (Email, error) {
		return buildEmail[models.SubscriptionActivatedEvent](body, "subscription_activated", "Your HustlerSync subscription is active",
			func(e models.SubscriptionActivatedEvent) string { return e.Email })
	},
	rabbitmq.RoutingSubscriptionExpiring: func(body []byte) (Email, error) {
		return buildEmail[models.ExpiringSubscription](body, "subscription_expiring", "Your HustlerSync subscription expires soon",
			func(e models.ExpiringSubscription) string { return e.Email })
	},
}

func buildEmail[T any](body []byte, tmpl, subject string, recipient func(T) string) (Email, error) {
	var event T
	if err := json.Unmarshal(body, &event); err != nil {
		return Email{}, fmt.Errorf("unmarshal %s: %w", tmpl, err)
	}
	to := recipient(event)
	if to == "" {
		return Email{}, fmt.Errorf("%s: empty recipient", tmpl)
	}
	html, err := render(tmpl, event)
	if err != nil {
		return Email{}, err
	}
	return Email{To: to, Subject: subject, HTML: html}, nil
}
