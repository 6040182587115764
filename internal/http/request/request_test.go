package request

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/hustler-sync/internal/models"
)

func multipartRequest(t *testing.T, fields map[string]string, files map[string]int) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, count := range files {
		for i := range count {
			fw, err := mw.CreateFormFile(field, "img"+string(rune('a'+i))+".png")
			require.NoError(t, err)
			_, err = fw.Write([]byte("\x89PNG\r\n\x1a\n"))
			require.NoError(t, err)
		}
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestBind(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"full_name":"Jane Doe","email":"jane@example.com","password":"secret1"}`))
		req.Header.Set("Content-Type", "application/json")

		var dst models.DummyUser
		require.NoError(t, Bind(req, &dst))
		assert.Equal(t, "Jane Doe", dst.FullName)
		assert.Equal(t, "jane@example.com", dst.Email)
	})

	t.Run("broken json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"full_name":`))
		var dst models.DummyUser
		assert.ErrorIs(t, Bind(req, &dst), ErrBadBody)
	})

	t.Run("multipart fields and files", func(t *testing.T) {
		req := multipartRequest(t, map[string]string{
			"full_name":           "Bob Builder",
			"email":               "bob@example.com",
			"password":            "secret1",
			"phone":               "+15550001111",
			"service_category_id": "0b6f5a8e-8a47-4a4e-9d77-51e7d7c53f11",
			"business_name":       "Bob Repairs",
			"starting_price":      "30.5",
			"unknown":             "ignored",
		}, map[string]int{"businessImages": 2})

		var dst models.DummyHustler
		require.NoError(t, Bind(req, &dst))
		assert.Equal(t, "Bob Builder", dst.FullName)
		assert.InDelta(t, 30.5, dst.StartingPrice, 0.0001)

		files, err := Files(req, "businessImages")
		require.NoError(t, err)
		assert.Len(t, files, 2)
		assert.Nil(t, File(req, "image"))
	})

	t.Run("multipart unknown keys are ignored", func(t *testing.T) {
		req := multipartRequest(t, map[string]string{
			"subject":  "Billing question",
			"message":  "Charged twice for one plan",
			"priority": "high",
			"extra":    "ignored",
		}, nil)

		var dst models.DummySupportMessage
		require.NoError(t, Bind(req, &dst))
		assert.Equal(t, "Billing question", dst.Subject)
		assert.Equal(t, "Charged twice for one plan", dst.Message)
	})

	t.Run("oversized multipart body", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("subject", "Big upload"))
		fw, err := mw.CreateFormFile("image", "huge.png")
		require.NoError(t, err)
		_, err = fw.Write(bytes.Repeat([]byte{0}, MaxMultipartBody+1))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())

		var dst models.DummySupportMessage
		assert.ErrorIs(t, Bind(req, &dst), ErrBadBody)
	})

	t.Run("too many files", func(t *testing.T) {
		req := multipartRequest(t, map[string]string{"name": "x"}, map[string]int{"serviceImages": 5})
		var dst models.DummyHustlerService
		require.NoError(t, Bind(req, &dst))

		_, err := Files(req, "serviceImages")
		require.Error(t, err)
	})
}
