package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/hustler-sync/internal/models"
)

// CreateCategory сохраняет категорию услуг. Дубликат имени без учёта регистра даёт ErrConflict.
func (s *Storage) CreateCategory(ctx context.Context, c models.ServiceCategory) (*models.ServiceCategory, error) {
	const op = "storage.CreateCategory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO service_categories (name, description)
			  VALUES ($1, $2)
			  RETURNING id, name, description, created_at`
	res := &models.ServiceCategory{}
	if err := s.DB.QueryRowContext(ctx, query, c.Name, c.Description).
		Scan(&res.ID, &res.Name, &res.Description, &res.CreatedAt); err != nil {
		return nil, mapError(op, err)
	}
	return res, nil
}

// ListCategories возвращает все неудалённые категории по алфавиту.
func (s *Storage) ListCategories(ctx context.Context) ([]*models.ServiceCategory, error) {
	const op = "storage.ListCategories"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, name, description, created_at
		FROM service_categories WHERE NOT is_deleted ORDER BY name`)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	res := []*models.ServiceCategory{}
	for rows.Next() {
		c := &models.ServiceCategory{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, mapError(op, err)
		}
		res = append(res, c)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return res, nil
}

// GetCategory возвращает категорию по ID.
func (s *Storage) GetCategory(ctx context.Context, id string) (*models.ServiceCategory, error) {
	const op = "storage.GetCategory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	c := &models.ServiceCategory{}
	err := s.DB.QueryRowContext(ctx, `SELECT id, name, description, created_at
		FROM service_categories WHERE id = $1 AND NOT is_deleted`, id).
		Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if err != nil {
		return nil, mapError(op, err)
	}
	return c, nil
}

func insertService(ctx context.Context, q queryRower, svc models.HustlerService) *sql.Row {
	query := `INSERT INTO hustler_services (user_id, name, description, images, service_category_id, starting_price)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	return q.QueryRowContext(ctx, query,
		svc.UserID, svc.Name, svc.Description, nonNil(svc.Images), svc.ServiceCategoryID, svc.StartingPrice)
}

// CreateHustlerService добавляет услугу исполнителю и возвращает её ID.
func (s *Storage) CreateHustlerService(ctx context.Context, svc models.HustlerService) (string, error) {
	const op = "storage.CreateHustlerService"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var id string
	if err := insertService(ctx, s.DB, svc).Scan(&id); err != nil {
		return "", mapError(op, err)
	}
	return id, nil
}

const serviceColumns = `hs.id, hs.user_id, hs.name, hs.description, hs.images, hs.service_category_id,
	hs.starting_price::float8, hs.created_at,
	c.id, c.name, c.description, c.created_at,
	u.id, u.full_name, u.email`

const serviceJoins = `FROM hustler_services hs
	JOIN service_categories c ON c.id = hs.service_category_id
	JOIN users u ON u.id = hs.user_id`

func scanService(row rowScanner) (*models.HustlerService, error) {
	svc := &models.HustlerService{Category: &models.ServiceCategory{}, Owner: &models.UserSummary{}}
	if err := row.Scan(&svc.ID, &svc.UserID, &svc.Name, &svc.Description, textArray(&svc.Images),
		&svc.ServiceCategoryID, &svc.StartingPrice, &svc.CreatedAt,
		&svc.Category.ID, &svc.Category.Name, &svc.Category.Description, &svc.Category.CreatedAt,
		&svc.Owner.ID, &svc.Owner.FullName, &svc.Owner.Email); err != nil {
		return nil, err
	}
	svc.Images = nonNil(svc.Images)
	return svc, nil
}

func collectServices(rows *sql.Rows) ([]*models.HustlerService, error) {
	defer rows.Close()
	res := []*models.HustlerService{}
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, svc)
	}
	return res, rows.Err()
}

// GetHustlerService возвращает услугу с категорией и владельцем.
func (s *Storage) GetHustlerService(ctx context.Context, id string) (*models.HustlerService, error) {
	const op = "storage.GetHustlerService"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + serviceColumns + ` ` + serviceJoins + `
			  WHERE hs.id = $1 AND NOT hs.is_deleted AND NOT u.is_deleted`
	svc, err := scanService(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(op, err)
	}
	return svc, nil
}

// ListProvidersByCategory возвращает услуги категории, исключая услуги пользователя excludeUserID.
// Пустой categoryID снимает фильтр по категории.
func (s *Storage) ListProvidersByCategory(ctx context.Context, categoryID, excludeUserID string) ([]*models.HustlerService, error) {
	const op = "storage.ListProvidersByCategory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + serviceColumns + ` ` + serviceJoins + `
			  WHERE ($1::text = '' OR hs.service_category_id::text = $1) AND hs.user_id::text <> $2
			      AND NOT hs.is_deleted AND NOT u.is_deleted
			  ORDER BY hs.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, categoryID, excludeUserID)
	if err != nil {
		return nil, mapError(op, err)
	}
	res, err := collectServices(rows)
	if err != nil {
		return nil, mapError(op, err)
	}
	return res, nil
}

// SearchServicesByName ищет услуги исполнителей по подстроке названия без учёта регистра,
// исключая услуги пользователя excludeUserID.
func (s *Storage) SearchServicesByName(ctx context.Context, term, excludeUserID string) ([]*models.HustlerService, error) {
	const op = "storage.SearchServicesByName"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + serviceColumns + ` ` + serviceJoins + `
			  WHERE hs.name ILIKE '%' || $1::text || '%' AND hs.user_id::text <> $2
			      AND NOT hs.is_deleted AND NOT u.is_deleted AND u.role = 'hustler'
			  ORDER BY hs.name`
	rows, err := s.DB.QueryContext(ctx, query, term, excludeUserID)
	if err != nil {
		return nil, mapError(op, err)
	}
	res, err := collectServices(rows)
	if err != nil {
		return nil, mapError(op, err)
	}
	return res, nil
}

// servicesByOwners группирует услуги по ID владельца.
func (s *Storage) servicesByOwners(ctx context.Context, ownerIDs []string) (map[string][]*models.HustlerService, error) {
	query := `SELECT ` + serviceColumns + ` ` + serviceJoins + `
			  WHERE hs.user_id = ANY($1::uuid[]) AND NOT hs.is_deleted
			  ORDER BY hs.created_at`
	rows, err := s.DB.QueryContext(ctx, query, ownerIDs)
	if err != nil {
		return nil, err
	}
	list, err := collectServices(rows)
	if err != nil {
		return nil, err
	}
	res := make(map[string][]*models.HustlerService, len(ownerIDs))
	for _, svc := range list {
		res[svc.UserID] = append(res[svc.UserID], svc)
	}
	return res, nil
}
