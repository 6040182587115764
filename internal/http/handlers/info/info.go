// Package info отдаёт сведения о сервисе на корневом маршруте API.
package info

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hustler-sync/internal/http/response"
)

// Handler возвращает имя сервиса, окружение и время запуска.
type Handler struct {
	name      string
	env       string
	startedAt time.Time
}

// New создает новый экземпляр Handler.
func New(name, env string, startedAt time.Time) *Handler {
	return &Handler{name: name, env: env, startedAt: startedAt}
}

// ServeHTTP godoc
// @Summary Сведения о сервисе
// @Tags Info
// @Produce  json
// @Success 200 {object} response.Response "Имя, окружение и время работы"
// @Router / [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"service":    h.name,
		"env":        h.env,
		"started_at": h.startedAt.UTC().Format(time.RFC3339),
		"uptime":     time.Since(h.startedAt).Round(time.Second).String(),
	}))
}
