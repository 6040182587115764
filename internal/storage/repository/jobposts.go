package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/hustler-sync/internal/models"
)

const jobPostColumns = `j.id, j.title, j.description, j.budget::float8, j.service_category_id, j.location,
	j.languages, j.images, j.created_by, j.status, j.created_at, j.updated_at,
	c.id, c.name, c.description, c.created_at,
	u.id, u.full_name, u.email`

const jobPostJoins = `FROM job_posts j
	JOIN service_categories c ON c.id = j.service_category_id
	JOIN users u ON u.id = j.created_by`

func scanJobPost(row rowScanner) (*models.JobPost, error) {
	p := &models.JobPost{Category: &models.ServiceCategory{}, Author: &models.UserSummary{}}
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Budget, &p.ServiceCategoryID, &p.Location,
		textArray(&p.Languages), textArray(&p.Images), &p.CreatedBy, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		&p.Category.ID, &p.Category.Name, &p.Category.Description, &p.Category.CreatedAt,
		&p.Author.ID, &p.Author.FullName, &p.Author.Email); err != nil {
		return nil, err
	}
	p.Languages = nonNil(p.Languages)
	p.Images = nonNil(p.Images)
	return p, nil
}

// CreateJobPost сохраняет заявку со статусом open и возвращает её ID.
func (s *Storage) CreateJobPost(ctx context.Context, post models.JobPost) (string, error) {
	const op = "storage.CreateJobPost"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	status := post.Status
	if status == "" {
		status = models.JobPostOpen
	}
	query := `INSERT INTO job_posts (title, description, budget, service_category_id, location,
			      languages, images, created_by, status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING id`
	var id string
	if err := s.DB.QueryRowContext(ctx, query, post.Title, post.Description, post.Budget,
		post.ServiceCategoryID, post.Location, nonNil(post.Languages), nonNil(post.Images),
		post.CreatedBy, status).Scan(&id); err != nil {
		return "", mapError(op, err)
	}
	return id, nil
}

// ListJobPostsExcluding возвращает заявки, созданные не пользователем userID, от новых к старым.
func (s *Storage) ListJobPostsExcluding(ctx context.Context, userID string) ([]*models.JobPost, error) {
	const op = "storage.ListJobPostsExcluding"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + jobPostColumns + ` ` + jobPostJoins + `
			  WHERE j.created_by::text <> $1 AND NOT j.is_deleted
			  ORDER BY j.created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	res := []*models.JobPost{}
	for rows.Next() {
		p, err := scanJobPost(rows)
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

// GetJobPostExcluding возвращает заявку по ID, если её автор не userID.
func (s *Storage) GetJobPostExcluding(ctx context.Context, id, userID string) (*models.JobPost, error) {
	const op = "storage.GetJobPostExcluding"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + jobPostColumns + ` ` + jobPostJoins + `
			  WHERE j.id = $1 AND j.created_by::text <> $2 AND NOT j.is_deleted`
	p, err := scanJobPost(s.DB.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, mapError(op, err)
	}
	return p, nil
}
