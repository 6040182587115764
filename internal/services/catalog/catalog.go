// Package services реализует каталог маркетплейса: категории услуг, тарифные планы,
// исполнителей и их услуги, поиск исполнителей.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/hustler-sync/internal/apperr"
	"github.com/magabrotheeeer/hustler-sync/internal/cache"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/sl"
	"github.com/magabrotheeeer/hustler-sync/internal/models"
	"github.com/magabrotheeeer/hustler-sync/internal/upload"
)

// Значения пагинации списка исполнителей по умолчанию.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// DefaultCurrency валюта плана, если она не указана.
const DefaultCurrency = "USD"

// Repository методы хранилища, нужные каталогу.
type Repository interface {
	CreateCategory(ctx context.Context, c models.ServiceCategory) (*models.ServiceCategory, error)
	ListCategories(ctx context.Context) ([]*models.ServiceCategory, error)
	GetCategory(ctx context.Context, id string) (*models.ServiceCategory, error)

	CreatePlan(ctx context.Context, plan models.SubscriptionPlan) (*models.SubscriptionPlan, error)
	ListPlansByAudience(ctx context.Context, planFor string) ([]*models.SubscriptionPlan, error)
	GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error)

	ListHustlers(ctx context.Context, limit, offset int) ([]*models.Hustler, error)
	GetHustler(ctx context.Context, id string) (*models.Hustler, error)

	CreateHustlerService(ctx context.Context, svc models.HustlerService) (string, error)
	GetHustlerService(ctx context.Context, id string) (*models.HustlerService, error)
	ListProvidersByCategory(ctx context.Context, categoryID, excludeUserID string) ([]*models.HustlerService, error)
	SearchServicesByName(ctx context.Context, term, excludeUserID string) ([]*models.HustlerService, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// CatalogService сервис каталога.
type CatalogService struct {
	repo     Repository
	cache    Cache
	plansTTL time.Duration
	log      *slog.Logger
}

// NewCatalogService создаёт новый экземпляр CatalogService.
func NewCatalogService(repo Repository, cache Cache, plansTTL time.Duration, log *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:     repo,
		cache:    cache,
		plansTTL: plansTTL,
		log:      log,
	}
}

// CreateCategory создаёт категорию услуг.
func (s *CatalogService) CreateCategory(ctx context.Context, name, description string) (*models.ServiceCategory, error) {
	const op = "catalog.CreateCategory"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%s: empty name: %w", op, apperr.ErrValidation)
	}
	category, err := s.repo.CreateCategory(ctx, models.ServiceCategory{
		Name:        name,
		Description: strings.TrimSpace(description),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return category, nil
}

// ListCategories возвращает неудалённые категории.
func (s *CatalogService) ListCategories(ctx context.Context) ([]*models.ServiceCategory, error) {
	const op = "catalog.ListCategories"
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return categories, nil
}

// GetCategory возвращает категорию по id.
func (s *CatalogService) GetCategory(ctx context.Context, id string) (*models.ServiceCategory, error) {
	const op = "catalog.GetCategory"
	category, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return category, nil
}

// CreatePlan создаёт тарифный план и сбрасывает кэш списка планов аудитории.
func (s *CatalogService) CreatePlan(ctx context.Context, req models.DummyPlan) (*models.SubscriptionPlan, error) {
	const op = "catalog.CreatePlan"
	if req.OfferPrice != nil && *req.OfferPrice > req.Price {
		return nil, fmt.Errorf("%s: offer price exceeds price: %w", op, apperr.ErrValidation)
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	features := req.Features
	if features == nil {
		features = []models.PlanFeature{}
	}

	plan, err := s.repo.CreatePlan(ctx, models.SubscriptionPlan{
		Name:        strings.TrimSpace(req.Name),
		BillingType: req.BillingType,
		Price:       req.Price,
		OfferPrice:  req.OfferPrice,
		Currency:    currency,
		OfferText:   req.OfferText,
		PlanFor:     req.PlanFor,
		Features:    features,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.Invalidate(ctx, cache.PlansKey(plan.PlanFor)); err != nil {
		s.log.Warn("failed to invalidate plans cache", sl.Op(op), sl.Err(err))
	}
	return plan, nil
}

// ListPlans возвращает планы аудитории planFor, используя кэш.
func (s *CatalogService) ListPlans(ctx context.Context, planFor string) ([]*models.SubscriptionPlan, error) {
	const op = "catalog.ListPlans"
	if planFor != models.RoleClient && planFor != models.RoleHustler {
		return nil, fmt.Errorf("%s: unknown audience %q: %w", op, planFor, apperr.ErrValidation)
	}

	key := cache.PlansKey(planFor)
	var cached []*models.SubscriptionPlan
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read plans cache", sl.Op(op), sl.Err(err))
	}
	if found {
		return cached, nil
	}

	plans, err := s.repo.ListPlansByAudience(ctx, planFor)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, key, plans, s.plansTTL); err != nil {
		s.log.Warn("failed to cache plans", sl.Op(op), sl.Err(err))
	}
	return plans, nil
}

// GetPlan возвращает неудалённый план по id, используя кэш.
func (s *CatalogService) GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error) {
	const op = "catalog.GetPlan"
	key := cache.PlanKey(id)
	var cached models.SubscriptionPlan
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read plan cache", sl.Op(op), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	plan, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, key, plan, s.plansTTL); err != nil {
		s.log.Warn("failed to cache plan", sl.Op(op), sl.Err(err))
	}
	return plan, nil
}

// ListHustlers возвращает страницу исполнителей с их услугами.
// Нулевые и отрицательные page и limit заменяются значениями по умолчанию.
func (s *CatalogService) ListHustlers(ctx context.Context, page, limit int) ([]*models.Hustler, error) {
	const op = "catalog.ListHustlers"
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	hustlers, err := s.repo.ListHustlers(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return hustlers, nil
}

// GetHustler возвращает исполнителя с его услугами.
func (s *CatalogService) GetHustler(ctx context.Context, id string) (*models.Hustler, error) {
	const op = "catalog.GetHustler"
	hustler, err := s.repo.GetHustler(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return hustler, nil
}

// AddService добавляет услугу исполнителю userID.
func (s *CatalogService) AddService(ctx context.Context, userID string, req models.DummyHustlerService, images []string) (*models.HustlerService, error) {
	const op = "catalog.AddService"
	if len(images) > upload.MaxImages {
		return nil, fmt.Errorf("%s: at most %d images allowed: %w", op, upload.MaxImages, apperr.ErrValidation)
	}
	if _, err := s.repo.GetCategory(ctx, req.ServiceCategoryID); err != nil {
		return nil, fmt.Errorf("%s: service category: %w", op, err)
	}
	if images == nil {
		images = []string{}
	}

	id, err := s.repo.CreateHustlerService(ctx, models.HustlerService{
		UserID:            userID,
		Name:              strings.TrimSpace(req.Name),
		Description:       strings.TrimSpace(req.Description),
		Images:            images,
		ServiceCategoryID: req.ServiceCategoryID,
		StartingPrice:     req.StartingPrice,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	svc, err := s.repo.GetHustlerService(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return svc, nil
}

// GetService возвращает услугу вместе с категорией и владельцем.
func (s *CatalogService) GetService(ctx context.Context, id string) (*models.HustlerService, error) {
	const op = "catalog.GetService"
	svc, err := s.repo.GetHustlerService(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return svc, nil
}

// ProvidersByCategory возвращает услуги категории categoryID, кроме услуг самого пользователя.
// Пустая категория означает все услуги.
func (s *CatalogService) ProvidersByCategory(ctx context.Context, categoryID, userID string) ([]*models.HustlerService, error) {
	const op = "catalog.ProvidersByCategory"
	services, err := s.repo.ListProvidersByCategory(ctx, strings.TrimSpace(categoryID), userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return services, nil
}

// SearchByServiceName ищет услуги по подстроке названия без учёта регистра.
func (s *CatalogService) SearchByServiceName(ctx context.Context, term, userID string) ([]*models.HustlerService, error) {
	const op = "catalog.SearchByServiceName"
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%s: empty search term: %w", op, apperr.ErrValidation)
	}
	services, err := s.repo.SearchServicesByName(ctx, term, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return services, nil
}
