// Package services реализует жизненный цикл подписки: покупку тарифа через
// Stripe Checkout, подтверждение оплаты с атомарной активацией подписки и выпуском
// счёта, а также запросы текущего плана и истории оплат.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/magabrotheeeer/hustler-sync/internal/apperr"
	"github.com/magabrotheeeer/hustler-sync/internal/audit"
	"github.com/magabrotheeeer/hustler-sync/internal/cache"
	"github.com/magabrotheeeer/hustler-sync/internal/config"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/billingcycle"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/sl"
	"github.com/magabrotheeeer/hustler-sync/internal/metrics"
	"github.com/magabrotheeeer/hustler-sync/internal/models"
	"github.com/magabrotheeeer/hustler-sync/internal/paymentgateway"
)

// Repository методы хранилища, нужные биллингу.
type Repository interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByIDAndRole(ctx context.Context, id, role string) (*models.User, error)
	GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error)
	ActivateSubscription(ctx context.Context, p models.ActivationParams) (*models.ActivationResult, error)
	GetCurrentPlan(ctx context.Context, userID string, now time.Time) (*models.CurrentPlan, error)
	ListBillingHistory(ctx context.Context, userID string) ([]*models.BillingEntry, error)
}

// Gateway платёжный шлюз.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req paymentgateway.CheckoutRequest) (*paymentgateway.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*paymentgateway.SessionDetails, error)
	GetPaymentStatus(ctx context.Context, paymentIntentID string) (paymentgateway.PaymentStatus, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Publisher публикует события уведомлений.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Journal журнал платёжных операций.
type Journal interface {
	Record(ctx context.Context, event models.PaymentEvent) error
}

// BillingService менеджер жизненного цикла подписки.
type BillingService struct {
	repo           Repository
	gateway        Gateway
	cache          Cache
	publisher      Publisher
	journal        Journal
	metrics        *metrics.Metrics
	backendURL     string
	clientURL      string
	currentPlanTTL time.Duration
	log            *slog.Logger
	now            func() time.Time
}

// NewBillingService создаёт новый экземпляр BillingService.
func NewBillingService(repo Repository, gateway Gateway, cache Cache, publisher Publisher, journal Journal,
	m *metrics.Metrics, stripeCfg config.Stripe, currentPlanTTL time.Duration, log *slog.Logger) *BillingService {
	return &BillingService{
		repo:           repo,
		gateway:        gateway,
		cache:          cache,
		publisher:      publisher,
		journal:        journal,
		metrics:        m,
		backendURL:     strings.TrimSuffix(stripeCfg.BackendURL, "/"),
		clientURL:      strings.TrimSuffix(stripeCfg.ClientURL, "/"),
		currentPlanTTL: currentPlanTTL,
		log:            log,
		now:            time.Now,
	}
}

// InitiatePurchase создаёт checkout-сессию для покупки плана planID пользователем userID с ролью role
// и возвращает URL страницы оплаты.
func (s *BillingService) InitiatePurchase(ctx context.Context, userID, role, planID string) (string, error) {
	const op = "billing.InitiatePurchase"
	log := s.log.With(sl.Op(op), slog.String("user_id", userID), slog.String("plan_id", planID))

	if role != models.RoleClient && role != models.RoleHustler {
		return "", fmt.Errorf("%s: unknown role %q: %w", op, role, apperr.ErrValidation)
	}
	if _, err := s.repo.GetUserByIDAndRole(ctx, userID, role); err != nil {
		return "", fmt.Errorf("%s: user: %w", op, err)
	}
	plan, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		return "", fmt.Errorf("%s: plan: %w", op, err)
	}
	if plan.PlanFor != role {
		return "", fmt.Errorf("%s: plan is for %s: %w", op, plan.PlanFor, apperr.ErrNotFound)
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, paymentgateway.CheckoutRequest{
		UserID:      userID,
		PlanID:      plan.ID,
		ProductName: plan.Name,
		Description: plan.OfferText,
		Amount:      plan.ChargeAmount(),
		Currency:    plan.Currency,
		SuccessURL:  s.backendURL + "/api/payment/subscription-plan/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   s.backendURL + "/api/payment/subscription-plan/cancel",
	})
	if err != nil {
		s.countCheckout(audit.OutcomeFailure)
		s.record(ctx, models.PaymentEvent{Action: audit.ActionInitiate, UserID: userID, PlanID: planID,
			Outcome: audit.OutcomeFailure, Error: err.Error()})
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("checkout session created", slog.String("session_id", session.ID))
	s.countCheckout(audit.OutcomeSuccess)
	s.record(ctx, models.PaymentEvent{Action: audit.ActionInitiate, SessionID: session.ID, UserID: userID,
		PlanID: planID, Outcome: audit.OutcomeSuccess})
	return session.URL, nil
}

// ConfirmPurchase проверяет оплату сессии и активирует подписку. Повторное подтверждение
// той же сессии ничего не меняет. Возвращает адрес редиректа на клиент.
func (s *BillingService) ConfirmPurchase(ctx context.Context, sessionID string) (string, error) {
	const op = "billing.ConfirmPurchase"
	log := s.log.With(sl.Op(op), slog.String("session_id", sessionID))

	if strings.TrimSpace(sessionID) == "" {
		return "", fmt.Errorf("%s: empty session id: %w", op, apperr.ErrValidation)
	}

	res, details, err := s.confirm(ctx, sessionID)
	if err != nil {
		event := models.PaymentEvent{Action: audit.ActionConfirm, SessionID: sessionID,
			Outcome: audit.OutcomeFailure, Error: err.Error()}
		if details != nil {
			event.UserID, event.PlanID = details.UserID, details.PlanID
		}
		s.countConfirmation(audit.OutcomeFailure)
		s.record(ctx, event)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	outcome := audit.OutcomeSuccess
	if res.Created {
		log.Info("subscription activated",
			slog.String("user_id", details.UserID),
			slog.String("subscription_id", res.Subscription.ID))
		s.afterActivation(ctx, log, details, res)
	} else {
		outcome = audit.OutcomeDuplicate
		log.Info("session already confirmed", slog.String("subscription_id", res.Subscription.ID))
	}
	s.countConfirmation(outcome)
	s.record(ctx, models.PaymentEvent{Action: audit.ActionConfirm, SessionID: sessionID,
		UserID: details.UserID, PlanID: details.PlanID, Outcome: outcome})

	return s.clientURL + "/payment-success?planId=" + url.QueryEscape(details.PlanID), nil
}

func (s *BillingService) confirm(ctx context.Context, sessionID string) (*models.ActivationResult, *paymentgateway.SessionDetails, error) {
	details, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	status, err := s.gateway.GetPaymentStatus(ctx, details.PaymentIntentID)
	if err != nil {
		return nil, details, err
	}
	if status != paymentgateway.StatusSucceeded {
		return nil, details, fmt.Errorf("payment intent is %s: %w", status, apperr.ErrPaymentIncomplete)
	}

	if _, err := s.repo.GetUserByID(ctx, details.UserID); err != nil {
		return nil, details, fmt.Errorf("user: %w", err)
	}
	plan, err := s.repo.GetPlan(ctx, details.PlanID)
	if err != nil {
		return nil, details, fmt.Errorf("plan: %w", err)
	}

	startedAt := s.now().UTC()
	expiresAt, err := billingcycle.ExpiresAt(startedAt, plan.BillingType)
	if err != nil {
		return nil, details, err
	}
	currency := details.Currency
	if currency == "" {
		currency = plan.Currency
	}

	res, err := s.repo.ActivateSubscription(ctx, models.ActivationParams{
		UserID:            details.UserID,
		PlanID:            details.PlanID,
		CheckoutSessionID: details.ID,
		PaymentIntentID:   details.PaymentIntentID,
		StartedAt:         startedAt,
		ExpiresAt:         expiresAt,
		AmountPaid:        details.AmountTotal,
		Currency:          currency,
		InvoiceURL:        details.ReceiptURL,
	})
	if err != nil {
		return nil, details, err
	}
	return res, details, nil
}

// afterActivation выполняет побочные действия после коммита. Ошибки только логируются.
func (s *BillingService) afterActivation(ctx context.Context, log *slog.Logger, details *paymentgateway.SessionDetails,
	res *models.ActivationResult) {
	if err := s.cache.Invalidate(ctx, cache.CurrentPlanKey(details.UserID)); err != nil {
		log.Warn("failed to invalidate current plan cache", sl.Err(err))
	}

	user, err := s.repo.GetUserByID(ctx, details.UserID)
	if err != nil {
		log.Warn("failed to load user for receipt", sl.Err(err))
		return
	}
	plan, err := s.repo.GetPlan(ctx, details.PlanID)
	if err != nil {
		log.Warn("failed to load plan for receipt", sl.Err(err))
		return
	}
	event := models.SubscriptionActivatedEvent{
		Email:      user.Email,
		FullName:   user.FullName,
		PlanName:   plan.Name,
		AmountPaid: res.Invoice.AmountPaid,
		Currency:   res.Invoice.Currency,
		ExpiresAt:  res.Subscription.ExpiresAt,
		InvoiceURL: res.Invoice.InvoiceURL,
	}
	if err := s.publisher.Publish(ctx, rabbitmq.RoutingSubscriptionActivated, event); err != nil {
		log.Warn("failed to publish subscription activated event", sl.Err(err))
	}
}

// CancelRedirect возвращает адрес, на который отправляется пользователь после отмены оплаты.
func (s *BillingService) CancelRedirect() string {
	return s.clientURL + "/payment-cancel"
}

// GetCurrentPlan возвращает действующую подписку пользователя. found=false означает,
// что активного плана нет; это не ошибка.
func (s *BillingService) GetCurrentPlan(ctx context.Context, userID string) (*models.CurrentPlan, bool, error) {
	const op = "billing.GetCurrentPlan"
	now := s.now()
	key := cache.CurrentPlanKey(userID)

	var cached models.CurrentPlan
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read current plan from cache", sl.Op(op), sl.Err(err))
	}
	if found && cached.IsActive(now) {
		return &cached, true, nil
	}

	current, err := s.repo.GetCurrentPlan(ctx, userID, now)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	ttl := s.currentPlanTTL
	if left := current.ExpiresAt.Sub(now); left < ttl {
		ttl = left
	}
	if err := s.cache.Set(ctx, key, current, ttl); err != nil {
		s.log.Warn("failed to cache current plan", sl.Op(op), sl.Err(err))
	}
	return current, true, nil
}

// BillingHistory возвращает счета пользователя от новых к старым.
func (s *BillingService) BillingHistory(ctx context.Context, userID string) ([]*models.BillingEntry, error) {
	const op = "billing.BillingHistory"
	entries, err := s.repo.ListBillingHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return entries, nil
}

func (s *BillingService) record(ctx context.Context, event models.PaymentEvent) {
	if err := s.journal.Record(ctx, event); err != nil {
		s.log.Warn("failed to write payment journal", sl.Err(err), slog.String("action", event.Action))
	}
}

func (s *BillingService) countCheckout(outcome string) {
	if s.metrics != nil {
		s.metrics.CheckoutSessions.WithLabelValues(outcome).Inc()
	}
}

func (s *BillingService) countConfirmation(outcome string) {
	if s.metrics != nil {
		s.metrics.Confirmations.WithLabelValues(outcome).Inc()
	}
}
