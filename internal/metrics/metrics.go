// Package metrics объявляет счётчики Prometheus биллинга и фоновых процессов.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор счётчиков сервиса.
type Metrics struct {
	CheckoutSessions *prometheus.CounterVec
	Confirmations    *prometheus.CounterVec
	ExpiredSweep     prometheus.Counter
	Reminders        prometheus.Counter
	EmailsSent       *prometheus.CounterVec
}

// New регистрирует счётчики в reg. Для тестов передаётся собственный prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CheckoutSessions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hustler_sync",
			Name:      "checkout_sessions_total",
			Help:      "Checkout sessions by outcome.",
		}, []string{"outcome"}),
		Confirmations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hustler_sync",
			Name:      "purchase_confirmations_total",
			Help:      "Purchase confirmations by outcome.",
		}, []string{"outcome"}),
		ExpiredSweep: f.NewCounter(prometheus.CounterOpts{
			Namespace: "hustler_sync",
			Name:      "subscriptions_expired_total",
			Help:      "Subscriptions marked expired by the sweep.",
		}),
		Reminders: f.NewCounter(prometheus.CounterOpts{
			Namespace: "hustler_sync",
			Name:      "expiry_reminders_total",
			Help:      "Expiry reminder events published.",
		}),
		EmailsSent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hustler_sync",
			Name:      "emails_sent_total",
			Help:      "Notification emails by queue and outcome.",
		}, []string{"queue", "outcome"}),
	}
}
