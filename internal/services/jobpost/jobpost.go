// Package services реализует заявки клиентов на поиск исполнителя.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/hustler-sync/internal/apperr"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/languages"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/sl"
	"github.com/magabrotheeeer/hustler-sync/internal/models"
	"github.com/magabrotheeeer/hustler-sync/internal/upload"
)

// Repository методы хранилища для заявок.
type Repository interface {
	GetCategory(ctx context.Context, id string) (*models.ServiceCategory, error)
	CreateJobPost(ctx context.Context, post models.JobPost) (string, error)
	ListJobPostsExcluding(ctx context.Context, userID string) ([]*models.JobPost, error)
	GetJobPostExcluding(ctx context.Context, id, userID string) (*models.JobPost, error)
}

// JobPostService сервис заявок.
type JobPostService struct {
	repo Repository
	log  *slog.Logger
}

// NewJobPostService создаёт новый экземпляр JobPostService.
func NewJobPostService(repo Repository, log *slog.Logger) *JobPostService {
	return &JobPostService{
		repo: repo,
		log:  log,
	}
}

// Create публикует заявку пользователя userID и возвращает её вместе с категорией и автором.
func (s *JobPostService) Create(ctx context.Context, userID string, req models.DummyJobPost, images []string) (*models.JobPost, error) {
	const op = "jobpost.Create"
	if len(images) > upload.MaxImages {
		return nil, fmt.Errorf("%s: at most %d images allowed: %w", op, upload.MaxImages, apperr.ErrValidation)
	}
	category, err := s.repo.GetCategory(ctx, req.ServiceCategoryID)
	if err != nil {
		return nil, fmt.Errorf("%s: service category: %w", op, err)
	}
	if images == nil {
		images = []string{}
	}

	post := models.JobPost{
		Title:             strings.TrimSpace(req.Title),
		Description:       strings.TrimSpace(req.Description),
		Budget:            req.Budget,
		ServiceCategoryID: req.ServiceCategoryID,
		Location:          strings.TrimSpace(req.Location),
		Languages:         languages.Normalize(req.Languages),
		Images:            images,
		CreatedBy:         userID,
		Status:            models.JobPostOpen,
	}
	post.ID, err = s.repo.CreateJobPost(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	post.Category = category
	s.log.Info("job post created", sl.Op(op), slog.String("post_id", post.ID), slog.String("user_id", userID))
	return &post, nil
}

// List возвращает заявки, созданные не пользователем userID.
func (s *JobPostService) List(ctx context.Context, userID string) ([]*models.JobPost, error) {
	const op = "jobpost.List"
	posts, err := s.repo.ListJobPostsExcluding(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return posts, nil
}

// Get возвращает чужую заявку по id. Собственная заявка считается ненайденной.
func (s *JobPostService) Get(ctx context.Context, id, userID string) (*models.JobPost, error) {
	const op = "jobpost.Get"
	post, err := s.repo.GetJobPostExcluding(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return post, nil
}
