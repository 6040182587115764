package paymentgateway

// PaymentStatus состояние платёжного намерения в Stripe.
type PaymentStatus string

// Состояния платёжного намерения.
const (
	StatusSucceeded             PaymentStatus = "succeeded"
	StatusProcessing            PaymentStatus = "processing"
	StatusRequiresPaymentMethod PaymentStatus = "requires_payment_method"
	StatusRequiresConfirmation  PaymentStatus = "requires_confirmation"
	StatusRequiresAction        PaymentStatus = "requires_action"
	StatusRequiresCapture       PaymentStatus = "requires_capture"
	StatusCanceled              PaymentStatus = "canceled"
)

// Ключи метаданных checkout-сессии.
const (
	MetadataUserID = "userId"
	MetadataPlanID = "planId"
)

// DefaultDescription описание позиции, если у плана нет текста акции.
const DefaultDescription = "Hustler Subscription Plan"

// CheckoutRequest данные для создания checkout-сессии с одной позицией.
type CheckoutRequest struct {
	UserID      string
	PlanID      string
	ProductName string
	Description string
	// Amount сумма в основных единицах валюты.
	Amount     float64
	Currency   string
	SuccessURL string
	CancelURL  string
}

// CheckoutSession созданная сессия оплаты.
type CheckoutSession struct {
	ID  string
	URL string
}

// SessionDetails проверенные данные завершённой checkout-сессии.
type SessionDetails struct {
	ID              string
	UserID          string
	PlanID          string
	PaymentIntentID string
	// AmountTotal сумма в основных единицах валюты.
	AmountTotal float64
	Currency    string
	ReceiptURL  string
}
