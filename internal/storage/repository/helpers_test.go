package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/hustler-sync/internal/migrations"
	"github.com/magabrotheeeer/hustler-sync/internal/models"
)

// setupTestStorage поднимает PostgreSQL в контейнере и применяет миграции проекта.
func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))
	require.NoError(t, CheckDatabaseReady(ctx, storage))

	return storage
}

// testDataFactory создаёт связанные тестовые записи через методы хранилища.
type testDataFactory struct {
	t       *testing.T
	storage *Storage
}

func newTestDataFactory(t *testing.T, storage *Storage) *testDataFactory {
	return &testDataFactory{t: t, storage: storage}
}

func (f *testDataFactory) user(role string) *models.User {
	f.t.Helper()
	u := models.User{
		FullName:     "Test User",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "hashedpassword",
		Role:         role,
	}
	id, err := f.storage.CreateUser(context.Background(), u)
	require.NoError(f.t, err)
	created, err := f.storage.GetUserByID(context.Background(), id)
	require.NoError(f.t, err)
	return created
}

func (f *testDataFactory) category(name string) *models.ServiceCategory {
	f.t.Helper()
	c, err := f.storage.CreateCategory(context.Background(), models.ServiceCategory{Name: name, Description: "test"})
	require.NoError(f.t, err)
	return c
}

func (f *testDataFactory) plan(name, billingType, planFor string) *models.SubscriptionPlan {
	f.t.Helper()
	offer := 14.99
	p, err := f.storage.CreatePlan(context.Background(), models.SubscriptionPlan{
		Name:        name,
		BillingType: billingType,
		Price:       19.99,
		OfferPrice:  &offer,
		Currency:    "USD",
		OfferText:   "launch offer",
		PlanFor:     planFor,
		Features:    []models.PlanFeature{{Feature: "priority listing", Enabled: true}},
	})
	require.NoError(f.t, err)
	return p
}

func activationParams(userID, planID, sessionID string, start time.Time) models.ActivationParams {
	return models.ActivationParams{
		UserID:            userID,
		PlanID:            planID,
		CheckoutSessionID: sessionID,
		PaymentIntentID:   "pi_" + sessionID,
		StartedAt:         start,
		ExpiresAt:         start.AddDate(0, 1, 0),
		AmountPaid:        14.99,
		Currency:          "USD",
		InvoiceURL:        "https://pay.stripe.com/receipts/" + sessionID,
	}
}
