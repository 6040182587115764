// Package billingcycle вычисляет даты окончания подписки по циклу оплаты тарифа.
package billingcycle

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/hustler-sync/internal/apperr"
	"github.com/magabrotheeeer/hustler-sync/internal/models"
)

// ExpiresAt возвращает момент окончания подписки, начатой в start.
//
// Месячный цикл добавляет один календарный месяц, годовой один календарный год.
// Переполнение дня нормализуется так же, как в time.AddDate: 31 января + 1 месяц = 3 марта (2 марта в високосный год).
func ExpiresAt(start time.Time, billingType string) (time.Time, error) {
	const op = "billingcycle.ExpiresAt"
	switch billingType {
	case models.BillingMonthly:
		return start.AddDate(0, 1, 0), nil
	case models.BillingAnnual:
		return start.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("%s: unknown billing type %q: %w", op, billingType, apperr.ErrValidation)
	}
}

// ExpiringWithin сообщает, истекает ли подписка в интервале (now, now+window].
func ExpiringWithin(expiresAt, now time.Time, window time.Duration) bool {
	return expiresAt.After(now) && !expiresAt.After(now.Add(window))
}
