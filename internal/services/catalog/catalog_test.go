package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/hustler-sync/internal/apperr"
	"github.com/magabrotheeeer/hustler-sync/internal/cache"
	"github.com/magabrotheeeer/hustler-sync/internal/models"
	services "github.com/magabrotheeeer/hustler-sync/internal/services/catalog"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) CreateCategory(ctx context.Context, c models.ServiceCategory) (*models.ServiceCategory, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceCategory), args.Error(1)
}

func (m *RepoMock) ListCategories(ctx context.Context) ([]*models.ServiceCategory, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ServiceCategory), args.Error(1)
}

func (m *RepoMock) GetCategory(ctx context.Context, id string) (*models.ServiceCategory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceCategory), args.Error(1)
}

func (m *RepoMock) CreatePlan(ctx context.Context, plan models.SubscriptionPlan) (*models.SubscriptionPlan, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionPlan), args.Error(1)
}

func (m *RepoMock) ListPlansByAudience(ctx context.Context, planFor string) ([]*models.SubscriptionPlan, error) {
	args := m.Called(ctx, planFor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SubscriptionPlan), args.Error(1)
}

func (m *RepoMock) GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SubscriptionPlan), args.Error(1)
}

func (m *RepoMock) ListHustlers(ctx context.Context, limit, offset int) ([]*models.Hustler, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Hustler), args.Error(1)
}

func (m *RepoMock) GetHustler(ctx context.Context, id string) (*models.Hustler, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Hustler), args.Error(1)
}

func (m *RepoMock) CreateHustlerService(ctx context.Context, svc models.HustlerService) (string, error) {
	args := m.Called(ctx, svc)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) GetHustlerService(ctx context.Context, id string) (*models.HustlerService, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HustlerService), args.Error(1)
}

func (m *RepoMock) ListProvidersByCategory(ctx context.Context, categoryID, excludeUserID string) ([]*models.HustlerService, error) {
	args := m.Called(ctx, categoryID, excludeUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.HustlerService), args.Error(1)
}

func (m *RepoMock) SearchServicesByName(ctx context.Context, term, excludeUserID string) ([]*models.HustlerService, error) {
	args := m.Called(ctx, term, excludeUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.HustlerService), args.Error(1)
}

type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

const plansTTL = 10 * time.Minute

func newTestService() (*services.CatalogService, *RepoMock, *CacheMock) {
	repo := &RepoMock{}
	c := &CacheMock{}
	return services.NewCatalogService(repo, c, plansTTL, newNoopLogger()), repo, c
}

func ptr(v float64) *float64 { return &v }

func TestCatalogService_CreatePlan(t *testing.T) {
	tests := []struct {
		name       string
		req        models.DummyPlan
		setupMocks func(r *RepoMock, c *CacheMock)
		wantIs     error
	}{
		{
			name: "currency defaults to USD and cache invalidated",
			req:  models.DummyPlan{Name: "Pro", BillingType: models.BillingMonthly, Price: 19.99, OfferPrice: ptr(14.99), PlanFor: models.RoleHustler},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("CreatePlan", mock.Anything, mock.MatchedBy(func(p models.SubscriptionPlan) bool {
					return p.Currency == "USD" && p.Features != nil && *p.OfferPrice == 14.99
				})).Return(&models.SubscriptionPlan{ID: "plan-1", PlanFor: models.RoleHustler}, nil)
				c.On("Invalidate", mock.Anything, []string{cache.PlansKey(models.RoleHustler)}).Return(nil)
			},
		},
		{
			name: "currency upper-cased",
			req:  models.DummyPlan{Name: "Basic", BillingType: models.BillingAnnual, Price: 100, Currency: "eur", PlanFor: models.RoleClient},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				r.On("CreatePlan", mock.Anything, mock.MatchedBy(func(p models.SubscriptionPlan) bool {
					return p.Currency == "EUR"
				})).Return(&models.SubscriptionPlan{ID: "plan-2", PlanFor: models.RoleClient}, nil)
				c.On("Invalidate", mock.Anything, mock.Anything).Return(errors.New("redis down"))
			},
		},
		{
			name:       "offer above price",
			req:        models.DummyPlan{Name: "Bad", BillingType: models.BillingMonthly, Price: 10, OfferPrice: ptr(12), PlanFor: models.RoleClient},
			setupMocks: func(_ *RepoMock, _ *CacheMock) {},
			wantIs:     apperr.ErrValidation,
		},
		{
			name: "duplicate name",
			req:  models.DummyPlan{Name: "Pro", BillingType: models.BillingMonthly, Price: 10, PlanFor: models.RoleClient},
			setupMocks: func(r *RepoMock, _ *CacheMock) {
				r.On("CreatePlan", mock.Anything, mock.Anything).Return(nil, apperr.ErrConflict)
			},
			wantIs: apperr.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, c := newTestService()
			tt.setupMocks(repo, c)

			plan, err := svc.CreatePlan(context.Background(), tt.req)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
				assert.Nil(t, plan)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, plan.ID)
			repo.AssertExpectations(t)
			c.AssertExpectations(t)
		})
	}
}

func TestCatalogService_ListPlans(t *testing.T) {
	plans := []*models.SubscriptionPlan{{ID: "plan-1", PlanFor: models.RoleClient}}

	t.Run("cache miss loads and stores", func(t *testing.T) {
		svc, repo, c := newTestService()
		c.On("Get", mock.Anything, cache.PlansKey(models.RoleClient), mock.Anything).Return(false, nil)
		repo.On("ListPlansByAudience", mock.Anything, models.RoleClient).Return(plans, nil)
		c.On("Set", mock.Anything, cache.PlansKey(models.RoleClient), plans, plansTTL).Return(nil)

		got, err := svc.ListPlans(context.Background(), models.RoleClient)
		require.NoError(t, err)
		assert.Equal(t, plans, got)
		c.AssertExpectations(t)
	})

	t.Run("cache hit skips repository", func(t *testing.T) {
		svc, repo, c := newTestService()
		c.On("Get", mock.Anything, cache.PlansKey(models.RoleClient), mock.Anything).
			Run(func(args mock.Arguments) {
				dst := args.Get(2).(*[]*models.SubscriptionPlan)
				*dst = plans
			}).Return(true, nil)

		got, err := svc.ListPlans(context.Background(), models.RoleClient)
		require.NoError(t, err)
		assert.Len(t, got, 1)
		repo.AssertNotCalled(t, "ListPlansByAudience", mock.Anything, mock.Anything)
	})

	t.Run("cache error falls back to repository", func(t *testing.T) {
		svc, repo, c := newTestService()
		c.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
		repo.On("ListPlansByAudience", mock.Anything, models.RoleHustler).Return(plans, nil)
		c.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

		got, err := svc.ListPlans(context.Background(), models.RoleHustler)
		require.NoError(t, err)
		assert.Equal(t, plans, got)
	})

	t.Run("unknown audience", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.ListPlans(context.Background(), "admin")
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}

func TestCatalogService_GetPlan(t *testing.T) {
	svc, repo, c := newTestService()
	c.On("Get", mock.Anything, cache.PlanKey("missing"), mock.Anything).Return(false, nil)
	repo.On("GetPlan", mock.Anything, "missing").Return(nil, apperr.ErrNotFound)

	_, err := svc.GetPlan(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalogService_ListHustlers(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		limit      int
		wantLimit  int
		wantOffset int
	}{
		{name: "defaults", page: 0, limit: 0, wantLimit: 10, wantOffset: 0},
		{name: "third page", page: 3, limit: 5, wantLimit: 5, wantOffset: 10},
		{name: "limit capped", page: 1, limit: 1000, wantLimit: 100, wantOffset: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService()
			repo.On("ListHustlers", mock.Anything, tt.wantLimit, tt.wantOffset).Return([]*models.Hustler{}, nil)

			_, err := svc.ListHustlers(context.Background(), tt.page, tt.limit)
			require.NoError(t, err)
			repo.AssertExpectations(t)
		})
	}
}

func TestCatalogService_AddService(t *testing.T) {
	req := models.DummyHustlerService{
		Name: "Plumbing", Description: "Fix all the pipes", ServiceCategoryID: "cat-1", StartingPrice: 25,
	}

	t.Run("success", func(t *testing.T) {
		svc, repo, _ := newTestService()
		repo.On("GetCategory", mock.Anything, "cat-1").Return(&models.ServiceCategory{ID: "cat-1"}, nil)
		repo.On("CreateHustlerService", mock.Anything, mock.MatchedBy(func(s models.HustlerService) bool {
			return s.UserID == "user-1" && s.Images != nil && len(s.Images) == 0
		})).Return("svc-1", nil)
		repo.On("GetHustlerService", mock.Anything, "svc-1").Return(&models.HustlerService{ID: "svc-1", UserID: "user-1"}, nil)

		got, err := svc.AddService(context.Background(), "user-1", req, nil)
		require.NoError(t, err)
		assert.Equal(t, "svc-1", got.ID)
	})

	t.Run("unknown category", func(t *testing.T) {
		svc, repo, _ := newTestService()
		repo.On("GetCategory", mock.Anything, "cat-1").Return(nil, apperr.ErrNotFound)

		_, err := svc.AddService(context.Background(), "user-1", req, nil)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("too many images", func(t *testing.T) {
		svc, _, _ := newTestService()
		_, err := svc.AddService(context.Background(), "user-1", req, []string{"a", "b", "c", "d", "e"})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})
}

func TestCatalogService_Search(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.On("SearchServicesByName", mock.Anything, "plumb", "user-1").
		Return([]*models.HustlerService{{ID: "svc-2"}}, nil)
	repo.On("ListProvidersByCategory", mock.Anything, "", "user-1").
		Return([]*models.HustlerService{{ID: "svc-2"}, {ID: "svc-3"}}, nil)

	_, err := svc.SearchByServiceName(context.Background(), "   ", "user-1")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	found, err := svc.SearchByServiceName(context.Background(), " plumb ", "user-1")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	all, err := svc.ProvidersByCategory(context.Background(), "", "user-1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCatalogService_Categories(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.On("CreateCategory", mock.Anything, models.ServiceCategory{Name: "Cleaning", Description: "Homes"}).
		Return(&models.ServiceCategory{ID: "cat-1", Name: "Cleaning"}, nil)

	_, err := svc.CreateCategory(context.Background(), "  ", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	got, err := svc.CreateCategory(context.Background(), " Cleaning ", "Homes")
	require.NoError(t, err)
	assert.Equal(t, "cat-1", got.ID)
}
