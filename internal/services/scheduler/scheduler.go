// Package services содержит фоновые задачи: перевод просроченных подписок в expired
// и рассылку напоминаний об окончании подписки.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/magabrotheeeer/hustler-sync/internal/cache"
	"github.com/magabrotheeeer/hustler-sync/internal/config"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/billingcycle"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/sl"
	"github.com/magabrotheeeer/hustler-sync/internal/metrics"
	"github.com/magabrotheeeer/hustler-sync/internal/models"
)

// ReminderWindow за сколько до окончания подписки отправляется напоминание.
const ReminderWindow = 24 * time.Hour

// SubscriptionRepository методы хранилища для фоновых задач.
type SubscriptionRepository interface {
	ExpireSubscriptions(ctx context.Context, now time.Time) ([]string, error)
	FindSubscriptionsExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.ExpiringSubscription, error)
}

// Cache сброс закэшированного текущего плана.
type Cache interface {
	Invalidate(ctx context.Context, keys ...string) error
}

// Publisher публикует события уведомлений.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// SchedulerService выполняет задачи по расписанию cron.
type SchedulerService struct {
	repo      SubscriptionRepository
	cache     Cache
	publisher Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger
	now       func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo SubscriptionRepository, cache Cache, publisher Publisher, m *metrics.Metrics, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

// ExpireSubscriptions переводит истёкшие подписки в expired и сбрасывает кэш текущего плана их владельцев.
// Возвращает количество затронутых пользователей.
func (s *SchedulerService) ExpireSubscriptions(ctx context.Context) (int, error) {
	const op = "scheduler.ExpireSubscriptions"
	userIDs, err := s.repo.ExpireSubscriptions(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(userIDs) == 0 {
		s.log.Debug("no expired subscriptions found", sl.Op(op))
		return 0, nil
	}

	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, cache.CurrentPlanKey(id))
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("failed to invalidate current plan cache", sl.Op(op), sl.Err(err))
	}
	if s.metrics != nil {
		s.metrics.ExpiredSweep.Add(float64(len(userIDs)))
	}
	s.log.Info("subscriptions expired", sl.Op(op), slog.Int("count", len(userIDs)))
	return len(userIDs), nil
}

// SendExpiryReminders публикует напоминания по подпискам, истекающим в ближайшие сутки.
// Ошибка публикации одного события не прерывает рассылку. Возвращает количество опубликованных событий.
func (s *SchedulerService) SendExpiryReminders(ctx context.Context) (int, error) {
	const op = "scheduler.SendExpiryReminders"
	now := s.now()
	expiring, err := s.repo.FindSubscriptionsExpiringBetween(ctx, now, now.Add(ReminderWindow))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(expiring) == 0 {
		s.log.Debug("no expiring subscriptions found", sl.Op(op))
		return 0, nil
	}

	sent := 0
	for _, sub := range expiring {
		if !billingcycle.ExpiringWithin(sub.ExpiresAt, now, ReminderWindow) {
			s.log.Warn("skipping subscription outside reminder window", sl.Op(op),
				slog.String("subscription_id", sub.SubscriptionID), slog.Time("expires_at", sub.ExpiresAt))
			continue
		}
		if err := s.publisher.Publish(ctx, rabbitmq.RoutingSubscriptionExpiring, sub); err != nil {
			s.log.Error("failed to publish expiry reminder", sl.Op(op), slog.String("subscription_id", sub.SubscriptionID), sl.Err(err))
			continue
		}
		sent++
	}
	if s.metrics != nil {
		s.metrics.Reminders.Add(float64(sent))
	}
	s.log.Info("expiry reminders published", sl.Op(op), slog.Int("found", len(expiring)), slog.Int("sent", sent))
	return sent, nil
}

// Start регистрирует задачи по расписаниям cfg и блокируется до отмены ctx.
// Перед остановкой дожидается завершения выполняющихся задач.
func (s *SchedulerService) Start(ctx context.Context, cfg config.Scheduler) error {
	const op = "scheduler.Start"
	logger := cronLogger{log: s.log}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))

	if _, err := c.AddFunc(cfg.ExpirySweepSpec, func() {
		if _, err := s.ExpireSubscriptions(ctx); err != nil {
			s.log.Error("expiry sweep failed", sl.Op(op), sl.Err(err))
		}
	}); err != nil {
		return fmt.Errorf("%s: expiry sweep spec %q: %w", op, cfg.ExpirySweepSpec, err)
	}
	if _, err := c.AddFunc(cfg.ReminderSpec, func() {
		if _, err := s.SendExpiryReminders(ctx); err != nil {
			s.log.Error("expiry reminders failed", sl.Op(op), sl.Err(err))
		}
	}); err != nil {
		return fmt.Errorf("%s: reminder spec %q: %w", op, cfg.ReminderSpec, err)
	}

	c.Start()
	s.log.Info("scheduler started", slog.String("expiry_sweep", cfg.ExpirySweepSpec), slog.String("reminders", cfg.ReminderSpec))

	<-ctx.Done()
	<-c.Stop().Done()
	s.log.Info("scheduler stopped")
	return nil
}

// cronLogger пишет журнал cron в slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, sl.Err(err))...)
}
