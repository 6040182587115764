package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/hustler-sync/internal/apperr"
	"github.com/magabrotheeeer/hustler-sync/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hustler-sync/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ServiceMock) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error) {
	args := m.Called(ctx, userID, upd)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ServiceMock) ChangePassword(ctx context.Context, userID string, req models.PasswordChange) error {
	return m.Called(ctx, userID, req).Error(0)
}

func (m *ServiceMock) ChangePhone(ctx context.Context, userID, phone string) error {
	return m.Called(ctx, userID, phone).Error(0)
}

type UploaderMock struct {
	mock.Mock
}

func (m *UploaderMock) Upload(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	args := m.Called(ctx, fh)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

var currentUser = &models.User{ID: "u-1", FullName: "Jane Doe", Email: "jane@example.com", Role: models.RoleClient}

func authed(req *http.Request) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
	return req.WithContext(middlewarectx.WithUser(ctx, currentUser))
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	return got
}

func TestHandler_Get(t *testing.T) {
	t.Run("returns profile", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("GetProfile", mock.Anything, "u-1").Return(currentUser, nil).Once()
		rec := httptest.NewRecorder()

		New(newNoopLogger(), svc, new(UploaderMock)).Get(rec, authed(httptest.NewRequest(http.MethodGet, "/profile", nil)))

		assert.Equal(t, http.StatusOK, rec.Code)
		data := decode(t, rec)["data"].(map[string]any)
		assert.Equal(t, "jane@example.com", data["email"])
		svc.AssertExpectations(t)
	})

	t.Run("no user in context", func(t *testing.T) {
		svc := new(ServiceMock)
		rec := httptest.NewRecorder()

		New(newNoopLogger(), svc, new(UploaderMock)).Get(rec, httptest.NewRequest(http.MethodGet, "/profile", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "GetProfile", mock.Anything, mock.Anything)
	})
}

func TestHandler_Update(t *testing.T) {
	t.Run("json update", func(t *testing.T) {
		svc := new(ServiceMock)
		upd := models.ProfileUpdate{FullName: "Jane Smith", Address: &models.Address{City: "Austin"}}
		updated := *currentUser
		updated.FullName = "Jane Smith"
		svc.On("UpdateProfile", mock.Anything, "u-1", upd).Return(&updated, nil).Once()
		rec := httptest.NewRecorder()

		req := authed(httptest.NewRequest(http.MethodPut, "/profile", jsonBody(t, upd)))
		New(newNoopLogger(), svc, new(UploaderMock)).Update(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		data := decode(t, rec)["data"].(map[string]any)
		assert.Equal(t, "Jane Smith", data["full_name"])
		svc.AssertExpectations(t)
	})

	t.Run("multipart with image", func(t *testing.T) {
		svc := new(ServiceMock)
		up := new(UploaderMock)
		up.On("Upload", mock.Anything, mock.Anything).Return("https://cdn/new.png", nil).Once()
		svc.On("UpdateProfile", mock.Anything, "u-1", mock.MatchedBy(func(u models.ProfileUpdate) bool {
			return u.ProfileImage == "https://cdn/new.png" && u.Language == "Spanish"
		})).Return(currentUser, nil).Once()

		body := &bytes.Buffer{}
		w := multipart.NewWriter(body)
		require.NoError(t, w.WriteField("language", "Spanish"))
		fw, err := w.CreateFormFile(ImageField, "new.png")
		require.NoError(t, err)
		_, _ = fw.Write([]byte("png"))
		require.NoError(t, w.Close())

		req := authed(httptest.NewRequest(http.MethodPut, "/profile", body))
		req.Header.Set("Content-Type", w.FormDataContentType())
		rec := httptest.NewRecorder()

		New(newNoopLogger(), svc, up).Update(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
		up.AssertExpectations(t)
	})

	t.Run("short name rejected", func(t *testing.T) {
		svc := new(ServiceMock)
		rec := httptest.NewRecorder()

		req := authed(httptest.NewRequest(http.MethodPut, "/profile", jsonBody(t, map[string]string{"full_name": "J"})))
		New(newNoopLogger(), svc, new(UploaderMock)).Update(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "field FullName must be at least 3 characters", decode(t, rec)["error"])
	})
}

func TestHandler_ChangePassword(t *testing.T) {
	tests := []struct {
		name           string
		body           models.PasswordChange
		mockErr        error
		callService    bool
		wantStatusCode int
		wantError      string
	}{
		{
			name:           "changed",
			body:           models.PasswordChange{CurrentPassword: "oldsecret", NewPassword: "newsecret"},
			callService:    true,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "wrong current password",
			body:           models.PasswordChange{CurrentPassword: "oldsecret", NewPassword: "newsecret"},
			mockErr:        fmt.Errorf("auth: current password is incorrect: %w", apperr.ErrUnauthorized),
			callService:    true,
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "could not change password",
		},
		{
			name:           "new password too short",
			body:           models.PasswordChange{CurrentPassword: "oldsecret", NewPassword: "new"},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field NewPassword must be at least 6 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.callService {
				svc.On("ChangePassword", mock.Anything, "u-1", tt.body).Return(tt.mockErr).Once()
			}
			rec := httptest.NewRecorder()

			req := authed(httptest.NewRequest(http.MethodPut, "/profile/password", jsonBody(t, tt.body)))
			New(newNoopLogger(), svc, new(UploaderMock)).ChangePassword(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			got := decode(t, rec)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				assert.Equal(t, "OK", got["status"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_ChangePhone(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("ChangePhone", mock.Anything, "u-1", "+15551234567").Return(nil).Once()
	rec := httptest.NewRecorder()

	req := authed(httptest.NewRequest(http.MethodPut, "/profile/phone", jsonBody(t, models.PhoneChange{Phone: "+15551234567"})))
	New(newNoopLogger(), svc, new(UploaderMock)).ChangePhone(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
