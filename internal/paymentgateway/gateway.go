// Package paymentgateway переводит намерения биллинга в вызовы Stripe Checkout
// и проверяет ответы платёжного провайдера.
package paymentgateway

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/paymentintent"

	"github.com/magabrotheeeer/hustler-sync/internal/apperr"
	"github.com/magabrotheeeer/hustler-sync/internal/config"
)

// SessionAPI подмножество API checkout-сессий Stripe.
type SessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// PaymentIntentAPI подмножество API платёжных намерений Stripe.
type PaymentIntentAPI interface {
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// Client адаптер Stripe. Ключ API хранится в экземпляре клиента.
type Client struct {
	sessions SessionAPI
	intents  PaymentIntentAPI
	timeout  time.Duration
}

// NewClient создаёт адаптер с собственным backend и ключом из конфигурации.
func NewClient(cfg config.Stripe) *Client {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.StripeTimeout},
		MaxNetworkRetries: stripe.Int64(cfg.StripeRetries),
	})
	return NewWithAPI(
		&session.Client{B: backend, Key: cfg.StripeSecretKey},
		&paymentintent.Client{B: backend, Key: cfg.StripeSecretKey},
		cfg.StripeTimeout,
	)
}

// NewWithAPI создаёт адаптер поверх произвольных реализаций API.
func NewWithAPI(sessions SessionAPI, intents PaymentIntentAPI, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{sessions: sessions, intents: intents, timeout: timeout}
}

// ToMinorUnits переводит сумму в минимальные единицы валюты с округлением половины от нуля.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromMinorUnits переводит минимальные единицы в основные.
func FromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}

// CreateCheckoutSession создаёт сессию оплаты с метаданными userId и planId.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	const op = "paymentgateway.CreateCheckoutSession"

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	description := req.Description
	if description == "" {
		description = DefaultDescription
	}
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(strings.ToLower(req.Currency)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(req.ProductName),
					Description: stripe.String(description),
				},
				UnitAmount: stripe.Int64(ToMinorUnits(req.Amount)),
			},
			Quantity: stripe.Int64(1),
		}},
	}
	params.Context = ctx
	params.AddMetadata(MetadataUserID, req.UserID)
	params.AddMetadata(MetadataPlanID, req.PlanID)

	s, err := c.sessions.New(params)
	if err != nil {
		return nil, classify(op, err)
	}
	if s == nil || s.ID == "" || s.URL == "" {
		return nil, fmt.Errorf("%s: empty session id or url", op)
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// GetCheckoutSession возвращает сессию вместе с платёжным намерением и ссылкой на чек.
func (c *Client) GetCheckoutSession(ctx context.Context, id string) (*SessionDetails, error) {
	const op = "paymentgateway.GetCheckoutSession"

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("payment_intent.latest_charge")

	s, err := c.sessions.Get(id, params)
	if err != nil {
		return nil, classify(op, err)
	}
	if s == nil {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}

	userID, planID := s.Metadata[MetadataUserID], s.Metadata[MetadataPlanID]
	if userID == "" || planID == "" {
		return nil, fmt.Errorf("%s: session %s has no userId/planId metadata", op, s.ID)
	}
	if s.PaymentIntent == nil || s.PaymentIntent.ID == "" {
		return nil, fmt.Errorf("%s: session %s has no payment intent: %w", op, s.ID, apperr.ErrPaymentIncomplete)
	}

	details := &SessionDetails{
		ID:              s.ID,
		UserID:          userID,
		PlanID:          planID,
		PaymentIntentID: s.PaymentIntent.ID,
		AmountTotal:     FromMinorUnits(s.AmountTotal),
		Currency:        strings.ToUpper(string(s.Currency)),
	}
	if s.PaymentIntent.LatestCharge != nil {
		details.ReceiptURL = s.PaymentIntent.LatestCharge.ReceiptURL
	}
	return details, nil
}

// GetPaymentStatus возвращает текущее состояние платёжного намерения.
func (c *Client) GetPaymentStatus(ctx context.Context, paymentIntentID string) (PaymentStatus, error) {
	const op = "paymentgateway.GetPaymentStatus"

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := c.intents.Get(paymentIntentID, params)
	if err != nil {
		return "", classify(op, err)
	}
	if pi == nil {
		return "", fmt.Errorf("%s: %w", op, apperr.ErrNotFound)
	}
	return PaymentStatus(pi.Status), nil
}

// classify относит ошибку Stripe к таксономии apperr.
func classify(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.Code == stripe.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == http.StatusNotFound:
			return fmt.Errorf("%s: %s: %w", op, stripeErr.Msg, apperr.ErrNotFound)
		case stripeErr.HTTPStatusCode == http.StatusTooManyRequests || stripeErr.HTTPStatusCode >= 500:
			return fmt.Errorf("%s: %s: %w", op, stripeErr.Msg, apperr.ErrTransient)
		case stripeErr.HTTPStatusCode == http.StatusBadRequest:
			return fmt.Errorf("%s: %s: %w", op, stripeErr.Msg, apperr.ErrValidation)
		default:
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	// сетевые сбои и истёкший таймаут
	return fmt.Errorf("%s: %v: %w", op, err, apperr.ErrTransient)
}
