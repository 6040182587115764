package info

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_ServeHTTP(t *testing.T) {
	started := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rec := httptest.NewRecorder()

	New("hustler-sync", "local", started).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "OK", got["status"])
	data := got["data"].(map[string]any)
	assert.Equal(t, "hustler-sync", data["service"])
	assert.Equal(t, "local", data["env"])
	assert.Equal(t, "2025-03-01T09:00:00Z", data["started_at"])
}
