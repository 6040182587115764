package hustlersync

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/hustler-sync/internal/config"
	"github.com/magabrotheeeer/hustler-sync/internal/http/middlewarectx"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newTestRouter(requests int) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, newNoopLogger(), Deps{
		Env:       "test",
		StartedAt: time.Now(),
		Limiter: middlewarectx.NewIPRateLimiter(config.RateLimit{
			RateLimitRequests: requests,
			RateLimitWindow:   time.Minute,
		}),
		Gatherer: prometheus.NewRegistry(),
	})
	return r
}

func TestRegisterRoutes(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		target         string
		wantStatusCode int
	}{
		{name: "service info", method: http.MethodGet, target: "/api/", wantStatusCode: http.StatusOK},
		{name: "profile requires token", method: http.MethodGet, target: "/api/profile", wantStatusCode: http.StatusUnauthorized},
		{name: "checkout requires token", method: http.MethodPost, target: "/api/payments/subscription-plan/create-session", wantStatusCode: http.StatusUnauthorized},
		{name: "hustler service requires token", method: http.MethodPost, target: "/api/hustlers/hustler-services", wantStatusCode: http.StatusUnauthorized},
		{name: "support requires token", method: http.MethodGet, target: "/api/support-messages", wantStatusCode: http.StatusUnauthorized},
		{name: "metrics", method: http.MethodGet, target: "/metrics", wantStatusCode: http.StatusOK},
		{name: "unknown route", method: http.MethodGet, target: "/api/nope", wantStatusCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestRouter(100).ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))
			assert.Equal(t, tt.wantStatusCode, rec.Code)
		})
	}
}

func TestRegisterRoutes_RateLimit(t *testing.T) {
	router := newTestRouter(2)

	codes := make([]int, 0, 3)
	for range 3 {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/", nil))
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRegisterRoutes_RateLimitIgnoresForwardedHeaders(t *testing.T) {
	router := newTestRouter(2)

	codes := make([]int, 0, 4)
	for i := range 4 {
		req := httptest.NewRequest(http.MethodGet, "/api/", nil)
		req.RemoteAddr = "203.0.113.9:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("10.0.1.%d", i))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}
