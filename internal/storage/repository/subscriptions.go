package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/hustler-sync/internal/models"
)

const subscriptionColumns = `s.id, s.user_id, s.plan_id, s.status, s.started_at, s.expires_at,
	s.stripe_payment_id, s.checkout_session_id, s.created_at`

const invoiceColumns = `i.id, i.user_id, i.subscription_id, i.plan_id, i.amount_paid::float8, i.currency,
	i.checkout_session_id, i.stripe_payment_intent_id, i.invoice_url, i.created_at`

func scanSubscriptionInto(sub *models.Subscription) []any {
	return []any{&sub.ID, &sub.UserID, &sub.PlanID, &sub.Status, &sub.StartedAt, &sub.ExpiresAt,
		&sub.StripePaymentID, &sub.CheckoutSessionID, &sub.CreatedAt}
}

func scanInvoiceInto(inv *models.Invoice) []any {
	return []any{&inv.ID, &inv.UserID, &inv.SubscriptionID, &inv.PlanID, &inv.AmountPaid, &inv.Currency,
		&inv.CheckoutSessionID, &inv.StripePaymentIntentID, &inv.InvoiceURL, &inv.CreatedAt}
}

// ActivateSubscription атомарно создаёт подписку, делает её активной у пользователя,
// добавляет в историю и выпускает счёт. Повторный вызов с той же checkout-сессией
// возвращает ранее созданные записи с Created=false и ничего не меняет.
func (s *Storage) ActivateSubscription(ctx context.Context, p models.ActivationParams) (*models.ActivationResult, error) {
	const op = "storage.ActivateSubscription"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var res *models.ActivationResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		existing, err := existingActivation(ctx, tx, p.CheckoutSessionID)
		if err == nil {
			res = existing
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		// блокировка строки пользователя сериализует активации одного пользователя
		var userID string
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM users WHERE id = $1 AND NOT is_deleted FOR UPDATE`, p.UserID).Scan(&userID); err != nil {
			return err
		}
		var planID string
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM subscription_plans WHERE id = $1 AND NOT is_deleted`, p.PlanID).Scan(&planID); err != nil {
			return err
		}

		sub := &models.Subscription{}
		err = tx.QueryRowContext(ctx, `INSERT INTO subscriptions AS s (user_id, plan_id, status, started_at,
			    expires_at, stripe_payment_id, checkout_session_id)
			VALUES ($1, $2, 'active', $3, $4, $5, $6)
			ON CONFLICT (checkout_session_id) DO NOTHING
			RETURNING `+subscriptionColumns,
			p.UserID, p.PlanID, p.StartedAt, p.ExpiresAt, p.PaymentIntentID, p.CheckoutSessionID).
			Scan(scanSubscriptionInto(sub)...)
		if errors.Is(err, sql.ErrNoRows) {
			// конкурентная транзакция успела закоммитить ту же сессию
			existing, err := existingActivation(ctx, tx, p.CheckoutSessionID)
			if err != nil {
				return err
			}
			res = existing
			return nil
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET active_subscription_id = $1, updated_at = NOW() WHERE id = $2`,
			sub.ID, p.UserID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO user_subscription_history (user_id, subscription_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`, p.UserID, sub.ID); err != nil {
			return err
		}

		inv := &models.Invoice{}
		if err := tx.QueryRowContext(ctx, `INSERT INTO invoices AS i (user_id, subscription_id, plan_id,
			    amount_paid, currency, checkout_session_id, stripe_payment_intent_id, invoice_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING `+invoiceColumns,
			p.UserID, sub.ID, p.PlanID, p.AmountPaid, p.Currency, p.CheckoutSessionID,
			p.PaymentIntentID, p.InvoiceURL).Scan(scanInvoiceInto(inv)...); err != nil {
			return err
		}

		res = &models.ActivationResult{Subscription: sub, Invoice: inv, Created: true}
		return nil
	})
	if err != nil {
		return nil, mapError(op, err)
	}
	return res, nil
}

func existingActivation(ctx context.Context, tx *sql.Tx, sessionID string) (*models.ActivationResult, error) {
	sub := &models.Subscription{}
	if err := tx.QueryRowContext(ctx, `SELECT `+subscriptionColumns+`
		FROM subscriptions s WHERE s.checkout_session_id = $1`, sessionID).
		Scan(scanSubscriptionInto(sub)...); err != nil {
		return nil, err
	}
	inv := &models.Invoice{}
	if err := tx.QueryRowContext(ctx, `SELECT `+invoiceColumns+`
		FROM invoices i WHERE i.checkout_session_id = $1`, sessionID).
		Scan(scanInvoiceInto(inv)...); err != nil {
		return nil, err
	}
	return &models.ActivationResult{Subscription: sub, Invoice: inv, Created: false}, nil
}

// GetCurrentPlan возвращает действующую на момент now подписку пользователя с планом и владельцем.
// Если активной подписки нет, возвращается ErrNotFound.
func (s *Storage) GetCurrentPlan(ctx context.Context, userID string, now time.Time) (*models.CurrentPlan, error) {
	const op = "storage.GetCurrentPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + subscriptionColumns + `, ` + planColumns + `, u.id, u.full_name, u.email
			  FROM users u
			  JOIN subscriptions s ON s.id = u.active_subscription_id
			  JOIN subscription_plans p ON p.id = s.plan_id
			  WHERE u.id = $1 AND NOT u.is_deleted
			      AND s.status = 'active' AND s.expires_at > $2`

	cp := &models.CurrentPlan{}
	row := s.DB.QueryRowContext(ctx, query, userID, now)
	dest := scanSubscriptionInto(&cp.Subscription)
	var offer sql.NullFloat64
	var features []byte
	dest = append(dest, &cp.Plan.ID, &cp.Plan.Name, &cp.Plan.BillingType, &cp.Plan.Price, &offer,
		&cp.Plan.Currency, &cp.Plan.OfferText, &cp.Plan.PlanFor, &features, &cp.Plan.CreatedAt,
		&cp.Owner.ID, &cp.Owner.FullName, &cp.Owner.Email)
	if err := row.Scan(dest...); err != nil {
		return nil, mapError(op, err)
	}
	if err := fillPlan(&cp.Plan, offer, features); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cp, nil
}

// ListBillingHistory возвращает неудалённые счета пользователя от новых к старым вместе с планами.
func (s *Storage) ListBillingHistory(ctx context.Context, userID string) ([]*models.BillingEntry, error) {
	const op = "storage.ListBillingHistory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + invoiceColumns + `, ` + planColumns + `
			  FROM invoices i
			  JOIN subscription_plans p ON p.id = i.plan_id
			  WHERE i.user_id = $1 AND NOT i.is_deleted
			  ORDER BY i.created_at DESC, i.id DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	res := []*models.BillingEntry{}
	for rows.Next() {
		e := &models.BillingEntry{}
		var offer sql.NullFloat64
		var features []byte
		dest := scanInvoiceInto(&e.Invoice)
		dest = append(dest, &e.Plan.ID, &e.Plan.Name, &e.Plan.BillingType, &e.Plan.Price, &offer,
			&e.Plan.Currency, &e.Plan.OfferText, &e.Plan.PlanFor, &features, &e.Plan.CreatedAt)
		if err := rows.Scan(dest...); err != nil {
			return nil, mapError(op, err)
		}
		if err := fillPlan(&e.Plan, offer, features); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return res, nil
}

// ExpireSubscriptions помечает истёкшие к моменту now подписки как expired и снимает
// ссылку на них у пользователей. Возвращает ID затронутых пользователей.
func (s *Storage) ExpireSubscriptions(ctx context.Context, now time.Time) ([]string, error) {
	const op = "storage.ExpireSubscriptions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var userIDs []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `UPDATE subscriptions
			SET status = 'expired'
			WHERE status = 'active' AND expires_at <= $1
			RETURNING id, user_id`, now)
		if err != nil {
			return err
		}
		var subIDs []string
		for rows.Next() {
			var subID, userID string
			if err := rows.Scan(&subID, &userID); err != nil {
				rows.Close()
				return err
			}
			subIDs = append(subIDs, subID)
			userIDs = append(userIDs, userID)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(subIDs) == 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx, `UPDATE users SET active_subscription_id = NULL, updated_at = NOW()
			WHERE active_subscription_id = ANY($1::uuid[])`, subIDs)
		return err
	})
	if err != nil {
		return nil, mapError(op, err)
	}
	return userIDs, nil
}

// FindSubscriptionsExpiringBetween возвращает активные подписки, истекающие в интервале (from, to].
func (s *Storage) FindSubscriptionsExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.ExpiringSubscription, error) {
	const op = "storage.FindSubscriptionsExpiringBetween"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT s.id, s.user_id, u.email, u.full_name, p.name, s.expires_at
			  FROM subscriptions s
			  JOIN users u ON u.id = s.user_id
			  JOIN subscription_plans p ON p.id = s.plan_id
			  WHERE s.status = 'active' AND s.expires_at > $1 AND s.expires_at <= $2
			      AND u.active_subscription_id = s.id AND NOT u.is_deleted
			  ORDER BY s.expires_at`
	rows, err := s.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	res := []*models.ExpiringSubscription{}
	for rows.Next() {
		e := &models.ExpiringSubscription{}
		if err := rows.Scan(&e.SubscriptionID, &e.UserID, &e.Email, &e.FullName, &e.PlanName, &e.ExpiresAt); err != nil {
			return nil, mapError(op, err)
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return res, nil
}
