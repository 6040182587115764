package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/hustler-sync/internal/apperr"
	customjwt "github.com/magabrotheeeer/hustler-sync/internal/lib/jwt"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/password"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/hustler-sync/internal/models"
	services "github.com/magabrotheeeer/hustler-sync/internal/services/auth"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *UserRepoMock) CreateHustlerWithService(ctx context.Context, user models.User, svc models.HustlerService) (string, string, error) {
	args := m.Called(ctx, user, svc)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *UserRepoMock) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) SetResetToken(ctx context.Context, userID, token string, expire time.Time) error {
	return m.Called(ctx, userID, token, expire).Error(0)
}

func (m *UserRepoMock) GetUserByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	args := m.Called(ctx, token, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) ResetPassword(ctx context.Context, userID, passwordHash string) error {
	return m.Called(ctx, userID, passwordHash).Error(0)
}

func (m *UserRepoMock) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error) {
	args := m.Called(ctx, userID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return m.Called(ctx, userID, passwordHash).Error(0)
}

func (m *UserRepoMock) UpdatePhone(ctx context.Context, userID, phone string) error {
	return m.Called(ctx, userID, phone).Error(0)
}

type CategoryRepoMock struct {
	mock.Mock
}

func (m *CategoryRepoMock) GetCategory(ctx context.Context, id string) (*models.ServiceCategory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ServiceCategory), args.Error(1)
}

// Мок для jwt.Maker
type JwtMakerMock struct {
	mock.Mock
}

func (m *JwtMakerMock) GenerateToken(userID, role string) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

func (m *JwtMakerMock) ParseToken(token string) (*customjwt.CustomClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customjwt.CustomClaims), args.Error(1)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, message any) error {
	return m.Called(ctx, routingKey, message).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

type authDeps struct {
	users      *UserRepoMock
	categories *CategoryRepoMock
	jwt        *JwtMakerMock
	publisher  *PublisherMock
}

func newAuthService() (*services.AuthService, *authDeps) {
	d := &authDeps{&UserRepoMock{}, &CategoryRepoMock{}, &JwtMakerMock{}, &PublisherMock{}}
	return services.NewAuthService(d.users, d.categories, d.jwt, d.publisher, "https://hustler.test/", newNoopLogger()), d
}

func TestAuthService_RegisterClient(t *testing.T) {
	tests := []struct {
		name       string
		req        models.DummyUser
		setupMocks func(r *UserRepoMock)
		wantID     string
		wantIs     error
	}{
		{
			name: "success with default role",
			req:  models.DummyUser{FullName: " Jane Doe ", Email: "Jane@Example.COM", Password: "secret1"},
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
					return u.Email == "jane@example.com" &&
						u.FullName == "Jane Doe" &&
						u.Role == models.RoleClient &&
						password.CompareHash(u.PasswordHash, "secret1") == nil
				})).Return("user-1", nil)
			},
			wantID: "user-1",
		},
		{
			name: "duplicate email",
			req:  models.DummyUser{FullName: "Jane", Email: "jane@example.com", Password: "secret1"},
			setupMocks: func(r *UserRepoMock) {
				r.On("CreateUser", mock.Anything, mock.Anything).Return("", apperr.ErrConflict)
			},
			wantIs: apperr.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newAuthService()
			tt.setupMocks(d.users)

			id, err := svc.RegisterClient(context.Background(), tt.req)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
			d.users.AssertExpectations(t)
		})
	}
}

func TestAuthService_RegisterHustler(t *testing.T) {
	req := models.DummyHustler{
		FullName: "Bob Builder", Email: "bob@example.com", Password: "secret1", Phone: "+15550001111",
		ServiceCategoryID: "cat-1", BusinessName: "Bob Repairs", StartingPrice: 30,
		BusinessImages: []string{"https://cdn/1.png"},
	}

	t.Run("success", func(t *testing.T) {
		svc, d := newAuthService()
		d.categories.On("GetCategory", mock.Anything, "cat-1").Return(&models.ServiceCategory{ID: "cat-1"}, nil)
		d.users.On("CreateHustlerWithService", mock.Anything,
			mock.MatchedBy(func(u models.User) bool { return u.Role == models.RoleHustler && u.Phone == req.Phone }),
			mock.MatchedBy(func(s models.HustlerService) bool {
				return s.Name == "Bob Repairs" && s.ServiceCategoryID == "cat-1" && len(s.Images) == 1
			})).Return("user-1", "svc-1", nil)

		userID, serviceID, err := svc.RegisterHustler(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "user-1", userID)
		assert.Equal(t, "svc-1", serviceID)
	})

	t.Run("unknown category", func(t *testing.T) {
		svc, d := newAuthService()
		d.categories.On("GetCategory", mock.Anything, "cat-1").Return(nil, apperr.ErrNotFound)

		_, _, err := svc.RegisterHustler(context.Background(), req)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		d.users.AssertNotCalled(t, "CreateHustlerWithService", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthService_Login(t *testing.T) {
	hash, err := password.GetHash("secret1")
	require.NoError(t, err)
	user := &models.User{ID: "user-1", Email: "jane@example.com", PasswordHash: hash, Role: models.RoleHustler}

	tests := []struct {
		name       string
		email      string
		password   string
		setupMocks func(r *UserRepoMock, j *JwtMakerMock)
		wantToken  string
		wantIs     error
	}{
		{
			name:     "success",
			email:    "JANE@example.com",
			password: "secret1",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "jane@example.com").Return(user, nil)
				j.On("GenerateToken", "user-1", models.RoleHustler).Return("token-abc", nil)
			},
			wantToken: "token-abc",
		},
		{
			name:     "unknown email",
			email:    "nobody@example.com",
			password: "secret1",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, apperr.ErrNotFound)
			},
			wantIs: apperr.ErrUnauthorized,
		},
		{
			name:     "wrong password",
			email:    "jane@example.com",
			password: "wrong",
			setupMocks: func(r *UserRepoMock, _ *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "jane@example.com").Return(user, nil)
			},
			wantIs: apperr.ErrUnauthorized,
		},
		{
			name:     "jwt failure",
			email:    "jane@example.com",
			password: "secret1",
			setupMocks: func(r *UserRepoMock, j *JwtMakerMock) {
				r.On("GetUserByEmail", mock.Anything, "jane@example.com").Return(user, nil)
				j.On("GenerateToken", "user-1", models.RoleHustler).Return("", errors.New("jwt error"))
			},
			wantIs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newAuthService()
			tt.setupMocks(d.users, d.jwt)

			token, got, err := svc.Login(context.Background(), tt.email, tt.password)
			if tt.wantToken == "" {
				require.Error(t, err)
				if tt.wantIs != nil {
					assert.ErrorIs(t, err, tt.wantIs)
					assert.Contains(t, err.Error(), "invalid email or password")
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)
			assert.Equal(t, user.ID, got.ID)
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	svc, d := newAuthService()
	d.jwt.On("ParseToken", "good").Return(&customjwt.CustomClaims{UserID: "user-1", Role: models.RoleClient}, nil)
	d.jwt.On("ParseToken", "orphan").Return(&customjwt.CustomClaims{UserID: "gone", Role: models.RoleClient}, nil)
	d.jwt.On("ParseToken", "bad").Return(nil, errors.New("signature is invalid"))
	d.users.On("GetUserByID", mock.Anything, "user-1").Return(&models.User{ID: "user-1", Role: models.RoleClient}, nil)
	d.users.On("GetUserByID", mock.Anything, "gone").Return(nil, apperr.ErrNotFound)

	user, err := svc.Authenticate(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)

	_, err = svc.Authenticate(context.Background(), "bad")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = svc.Authenticate(context.Background(), "orphan")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestAuthService_ForgotPassword(t *testing.T) {
	user := &models.User{ID: "user-1", Email: "jane@example.com", FullName: "Jane"}

	t.Run("publishes reset link", func(t *testing.T) {
		svc, d := newAuthService()
		var token string
		d.users.On("GetUserByEmail", mock.Anything, "jane@example.com").Return(user, nil)
		d.users.On("SetResetToken", mock.Anything, "user-1", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
			Run(func(args mock.Arguments) {
				token = args.String(2)
				expire := args.Get(3).(time.Time)
				assert.WithinDuration(t, time.Now().Add(time.Hour), expire, time.Minute)
			}).Return(nil)
		d.publisher.On("Publish", mock.Anything, rabbitmq.RoutingPasswordReset,
			mock.MatchedBy(func(e models.PasswordResetEvent) bool {
				return e.Email == "jane@example.com" &&
					strings.HasPrefix(e.ResetURL, "https://hustler.test/auth/reset-password/")
			})).Return(nil)

		require.NoError(t, svc.ForgotPassword(context.Background(), "jane@example.com"))
		assert.Len(t, token, 64)
		d.publisher.AssertExpectations(t)
	})

	t.Run("publish failure is not returned", func(t *testing.T) {
		svc, d := newAuthService()
		d.users.On("GetUserByEmail", mock.Anything, "jane@example.com").Return(user, nil)
		d.users.On("SetResetToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		d.publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("amqp closed"))

		assert.NoError(t, svc.ForgotPassword(context.Background(), "jane@example.com"))
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, d := newAuthService()
		d.users.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, apperr.ErrNotFound)

		assert.ErrorIs(t, svc.ForgotPassword(context.Background(), "nobody@example.com"), apperr.ErrNotFound)
	})
}

func TestAuthService_ResetPassword(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc, d := newAuthService()
		d.users.On("GetUserByResetToken", mock.Anything, "tok", mock.Anything).Return(&models.User{ID: "user-1"}, nil)
		d.users.On("ResetPassword", mock.Anything, "user-1", mock.MatchedBy(func(h string) bool {
			return password.CompareHash(h, "newsecret") == nil
		})).Return(nil)

		require.NoError(t, svc.ResetPassword(context.Background(), "tok", "newsecret"))
		d.users.AssertExpectations(t)
	})

	t.Run("expired token", func(t *testing.T) {
		svc, d := newAuthService()
		d.users.On("GetUserByResetToken", mock.Anything, "old", mock.Anything).Return(nil, apperr.ErrNotFound)

		assert.ErrorIs(t, svc.ResetPassword(context.Background(), "old", "newsecret"), apperr.ErrValidation)
	})
}

func TestAuthService_Profile(t *testing.T) {
	hash, err := password.GetHash("current1")
	require.NoError(t, err)

	t.Run("change password requires current", func(t *testing.T) {
		svc, d := newAuthService()
		d.users.On("GetUserByID", mock.Anything, "user-1").Return(&models.User{ID: "user-1", PasswordHash: hash}, nil)

		err := svc.ChangePassword(context.Background(), "user-1", models.PasswordChange{CurrentPassword: "nope", NewPassword: "newpass1"})
		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
		d.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("change password", func(t *testing.T) {
		svc, d := newAuthService()
		d.users.On("GetUserByID", mock.Anything, "user-1").Return(&models.User{ID: "user-1", PasswordHash: hash}, nil)
		d.users.On("UpdatePassword", mock.Anything, "user-1", mock.AnythingOfType("string")).Return(nil)

		err := svc.ChangePassword(context.Background(), "user-1", models.PasswordChange{CurrentPassword: "current1", NewPassword: "newpass1"})
		require.NoError(t, err)
	})

	t.Run("change phone validates length", func(t *testing.T) {
		svc, d := newAuthService()
		assert.ErrorIs(t, svc.ChangePhone(context.Background(), "user-1", "123"), apperr.ErrValidation)

		d.users.On("UpdatePhone", mock.Anything, "user-1", "+15550001111").Return(nil)
		assert.NoError(t, svc.ChangePhone(context.Background(), "user-1", " +15550001111 "))
	})

	t.Run("update profile", func(t *testing.T) {
		svc, d := newAuthService()
		upd := models.ProfileUpdate{FullName: "New Name", Address: &models.Address{City: "Accra"}}
		d.users.On("UpdateProfile", mock.Anything, "user-1", upd).
			Return(&models.User{ID: "user-1", FullName: "New Name"}, nil)
		d.users.On("GetUserByID", mock.Anything, "user-1").Return(&models.User{ID: "user-1"}, nil)

		got, err := svc.UpdateProfile(context.Background(), "user-1", models.ProfileUpdate{
			FullName: "  New Name ", Address: &models.Address{City: "Accra"},
		})
		require.NoError(t, err)
		assert.Equal(t, "New Name", got.FullName)

		profile, err := svc.GetProfile(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, "user-1", profile.ID)
	})
}
