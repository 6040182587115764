package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/magabrotheeeer/hustler-sync/internal/models"
)

const planColumns = `p.id, p.name, p.billing_type, p.price::float8, p.offer_price::float8, p.currency,
	p.offer_text, p.plan_for, p.features, p.created_at`

func scanPlan(row rowScanner) (*models.SubscriptionPlan, error) {
	p := &models.SubscriptionPlan{}
	var offer sql.NullFloat64
	var features []byte
	if err := row.Scan(&p.ID, &p.Name, &p.BillingType, &p.Price, &offer, &p.Currency,
		&p.OfferText, &p.PlanFor, &features, &p.CreatedAt); err != nil {
		return nil, err
	}
	if err := fillPlan(p, offer, features); err != nil {
		return nil, err
	}
	return p, nil
}

// fillPlan дополняет план необязательной ценой по акции и списком возможностей из JSONB.
func fillPlan(p *models.SubscriptionPlan, offer sql.NullFloat64, features []byte) error {
	if offer.Valid {
		v := offer.Float64
		p.OfferPrice = &v
	}
	p.Features = []models.PlanFeature{}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &p.Features); err != nil {
			return fmt.Errorf("decode features: %w", err)
		}
	}
	return nil
}

// CreatePlan сохраняет тарифный план. Дубликат имени даёт ErrConflict,
// цена по акции выше базовой отклоняется ограничением CHECK как ErrValidation.
func (s *Storage) CreatePlan(ctx context.Context, plan models.SubscriptionPlan) (*models.SubscriptionPlan, error) {
	const op = "storage.CreatePlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	features := plan.Features
	if features == nil {
		features = []models.PlanFeature{}
	}
	raw, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var offer sql.NullFloat64
	if plan.OfferPrice != nil {
		offer = sql.NullFloat64{Float64: *plan.OfferPrice, Valid: true}
	}

	query := `INSERT INTO subscription_plans AS p (name, billing_type, price, offer_price, currency,
			      offer_text, plan_for, features)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)
			  RETURNING ` + planColumns
	res, err := scanPlan(s.DB.QueryRowContext(ctx, query, plan.Name, plan.BillingType, plan.Price, offer,
		plan.Currency, plan.OfferText, plan.PlanFor, string(raw)))
	if err != nil {
		return nil, mapError(op, err)
	}
	return res, nil
}

// ListPlansByAudience возвращает неудалённые планы для роли planFor.
func (s *Storage) ListPlansByAudience(ctx context.Context, planFor string) ([]*models.SubscriptionPlan, error) {
	const op = "storage.ListPlansByAudience"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + planColumns + ` FROM subscription_plans p
			  WHERE p.plan_for = $1 AND NOT p.is_deleted
			  ORDER BY p.price, p.name`
	rows, err := s.DB.QueryContext(ctx, query, planFor)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	res := []*models.SubscriptionPlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, mapError(op, err)
		}
		res = append(res, p)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return res, nil
}

// GetPlan возвращает неудалённый план по ID.
func (s *Storage) GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error) {
	const op = "storage.GetPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + planColumns + ` FROM subscription_plans p WHERE p.id = $1 AND NOT p.is_deleted`
	p, err := scanPlan(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(op, err)
	}
	return p, nil
}
