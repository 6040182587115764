package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/hustler-sync/internal/apperr"
	"github.com/magabrotheeeer/hustler-sync/internal/models"
	services "github.com/magabrotheeeer/hustler-sync/internal/services/support"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) CreateSupportMessage(ctx context.Context, msg models.SupportMessage) (*models.SupportMessage, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupportMessage), args.Error(1)
}

func (m *RepoMock) ListSupportMessages(ctx context.Context, userID string) ([]*models.SupportMessage, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SupportMessage), args.Error(1)
}

func (m *RepoMock) GetSupportMessage(ctx context.Context, id, userID string) (*models.SupportMessage, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SupportMessage), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestSupportService_Send(t *testing.T) {
	tests := []struct {
		name       string
		subject    string
		message    string
		setupMocks func(r *RepoMock)
		wantErr    bool
		wantIs     error
	}{
		{
			name:    "success",
			subject: " Payment issue ",
			message: "I was charged twice",
			setupMocks: func(r *RepoMock) {
				r.On("CreateSupportMessage", mock.Anything, models.SupportMessage{
					UserID: "user-1", Subject: "Payment issue", Message: "I was charged twice",
					Image: "https://cdn/receipt.png", Status: models.SupportOpen,
				}).Return(&models.SupportMessage{ID: "msg-1", Status: models.SupportOpen}, nil)
			},
		},
		{
			name:       "empty subject",
			subject:    "  ",
			message:    "hello",
			setupMocks: func(_ *RepoMock) {},
			wantErr:    true,
			wantIs:     apperr.ErrValidation,
		},
		{
			name:    "repository error",
			subject: "Hi",
			message: "Hello",
			setupMocks: func(r *RepoMock) {
				r.On("CreateSupportMessage", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &RepoMock{}
			tt.setupMocks(repo)
			svc := services.NewSupportService(repo, newNoopLogger())

			msg, err := svc.Send(context.Background(), "user-1", tt.subject, tt.message, "https://cdn/receipt.png")
			if tt.wantErr {
				require.Error(t, err)
				if tt.wantIs != nil {
					assert.ErrorIs(t, err, tt.wantIs)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "msg-1", msg.ID)
		})
	}
}

func TestSupportService_ListAndGet(t *testing.T) {
	repo := &RepoMock{}
	repo.On("ListSupportMessages", mock.Anything, "user-1").
		Return([]*models.SupportMessage{{ID: "msg-2"}, {ID: "msg-1"}}, nil)
	repo.On("GetSupportMessage", mock.Anything, "msg-9", "user-1").Return(nil, apperr.ErrNotFound)
	svc := services.NewSupportService(repo, newNoopLogger())

	list, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "msg-2", list[0].ID)

	_, err = svc.Get(context.Background(), "msg-9", "user-1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
