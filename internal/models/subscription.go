package models

import "time"

// Циклы оплаты тарифного плана.
const (
	BillingMonthly = "monthly"
	BillingAnnual  = "annual"
)

// Статусы подписки.
const (
	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
)

// PlanFeature строка сравнительной таблицы тарифов.
type PlanFeature struct {
	Feature string `json:"feature" validate:"required"`
	Enabled bool   `json:"enabled"`
}

// SubscriptionPlan тарифный план для клиентов или исполнителей.
type SubscriptionPlan struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	BillingType string        `json:"billing_type"`
	Price       float64       `json:"price"`
	OfferPrice  *float64      `json:"offer_price,omitempty"`
	Currency    string        `json:"currency"`
	OfferText   string        `json:"offer_text,omitempty"`
	PlanFor     string        `json:"plan_for"`
	Features    []PlanFeature `json:"features"`
	IsDeleted   bool          `json:"-"`
	CreatedAt   time.Time     `json:"created_at"`
}

// ChargeAmount возвращает сумму к оплате: цену по акции, если она задана, иначе базовую цену.
func (p *SubscriptionPlan) ChargeAmount() float64 {
	if p.OfferPrice != nil && *p.OfferPrice > 0 {
		return *p.OfferPrice
	}
	return p.Price
}

// DummyPlan входные данные для создания тарифного плана.
type DummyPlan struct {
	Name        string        `json:"name" validate:"required,min=2"`
	BillingType string        `json:"billing_type" validate:"required,oneof=monthly annual"`
	Price       float64       `json:"price" validate:"gte=0"`
	OfferPrice  *float64      `json:"offer_price" validate:"omitempty,gte=0"`
	Currency    string        `json:"currency" validate:"omitempty,len=3"`
	OfferText   string        `json:"offer_text"`
	PlanFor     string        `json:"plan_for" validate:"required,oneof=client hustler"`
	Features    []PlanFeature `json:"features" validate:"dive"`
}

// Subscription факт оплаченного доступа пользователя к тарифу.
type Subscription struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	PlanID            string    `json:"plan_id"`
	Status            string    `json:"status"`
	StartedAt         time.Time `json:"started_at"`
	ExpiresAt         time.Time `json:"expires_at"`
	StripePaymentID   string    `json:"stripe_payment_id"`
	CheckoutSessionID string    `json:"checkout_session_id"`
	CreatedAt         time.Time `json:"created_at"`
}

// IsActive сообщает, действует ли подписка в момент now.
func (s *Subscription) IsActive(now time.Time) bool {
	return s.Status == SubscriptionActive && s.ExpiresAt.After(now)
}

// Invoice неизменяемый чек, выпускаемый при создании подписки.
type Invoice struct {
	ID                    string    `json:"id"`
	UserID                string    `json:"user_id"`
	SubscriptionID        string    `json:"subscription_id"`
	PlanID                string    `json:"plan_id"`
	AmountPaid            float64   `json:"amount_paid"`
	Currency              string    `json:"currency"`
	CheckoutSessionID     string    `json:"stripe_invoice_id"`
	StripePaymentIntentID string    `json:"stripe_payment_intent_id"`
	InvoiceURL            string    `json:"invoice_url,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

// CurrentPlan активная подписка, раскрытая вместе с планом и владельцем.
type CurrentPlan struct {
	Subscription
	Plan  SubscriptionPlan `json:"plan"`
	Owner UserSummary      `json:"user"`
}

// BillingEntry запись истории оплат со вложенным планом.
type BillingEntry struct {
	Invoice
	Plan SubscriptionPlan `json:"plan"`
}

// ActivationParams данные подтверждённого платежа для атомарной активации подписки.
type ActivationParams struct {
	UserID            string
	PlanID            string
	CheckoutSessionID string
	PaymentIntentID   string
	StartedAt         time.Time
	ExpiresAt         time.Time
	AmountPaid        float64
	Currency          string
	InvoiceURL        string
}

// ActivationResult итог активации. Created=false, если сессия уже была обработана ранее.
type ActivationResult struct {
	Subscription *Subscription
	Invoice      *Invoice
	Created      bool
}

// ExpiringSubscription подписка, срок которой скоро истекает, с контактом владельца.
type ExpiringSubscription struct {
	SubscriptionID string    `json:"subscription_id"`
	UserID         string    `json:"user_id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	PlanName       string    `json:"plan_name"`
	ExpiresAt      time.Time `json:"expires_at"`
}
