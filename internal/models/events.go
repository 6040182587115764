package models

import "time"

// PasswordResetEvent сообщение очереди со ссылкой для сброса пароля.
type PasswordResetEvent struct {
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	ResetURL  string    `json:"reset_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SubscriptionActivatedEvent сообщение очереди с чеком об оплате подписки.
type SubscriptionActivatedEvent struct {
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	PlanName   string    `json:"plan_name"`
	AmountPaid float64   `json:"amount_paid"`
	Currency   string    `json:"currency"`
	ExpiresAt  time.Time `json:"expires_at"`
	InvoiceURL string    `json:"invoice_url,omitempty"`
}

// PaymentEvent запись журнала платёжных операций.
type PaymentEvent struct {
	Action    string    `json:"action" bson:"action"`
	SessionID string    `json:"session_id,omitempty" bson:"session_id,omitempty"`
	UserID    string    `json:"user_id,omitempty" bson:"user_id,omitempty"`
	PlanID    string    `json:"plan_id,omitempty" bson:"plan_id,omitempty"`
	Outcome   string    `json:"outcome" bson:"outcome"`
	Error     string    `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
