// Package account реализует HTTP-обработчики текущей подписки и истории оплат пользователя.
package account

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hustler-sync/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hustler-sync/internal/http/response"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/sl"
	"github.com/magabrotheeeer/hustler-sync/internal/models"
)

// Service описывает чтение подписки и счетов.
type Service interface {
	GetCurrentPlan(ctx context.Context, userID string) (*models.CurrentPlan, bool, error)
	BillingHistory(ctx context.Context, userID string) ([]*models.BillingEntry, error)
}

// Handler обрабатывает запросы по подписке пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// CurrentPlan godoc
// @Summary Текущий тарифный план
// @Description Возвращает действующую подписку с планом. Если активного плана нет, data содержит только сообщение.
// @Tags Billing
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Подписка или отсутствие плана"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Router /current-subscription-plan [get]
func (h *Handler) CurrentPlan(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.account.CurrentPlan"

	user, ok := middlewarectx.CurrentUser(w, r)
	if !ok {
		return
	}

	current, found, err := h.service.GetCurrentPlan(r.Context(), user.ID)
	if err != nil {
		h.log.Error("failed to get current plan", sl.Op(op), sl.Err(err))
		response.Fail(w, r, err, "could not get current subscription plan")
		return
	}
	if !found {
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"message": "no active plan",
		}))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(current))
}

// History godoc
// @Summary История оплат
// @Tags Billing
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Счета от новых к старым"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Router /billing-history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.account.History"

	user, ok := middlewarectx.CurrentUser(w, r)
	if !ok {
		return
	}

	entries, err := h.service.BillingHistory(r.Context(), user.ID)
	if err != nil {
		h.log.Error("failed to get billing history", sl.Op(op), sl.Err(err))
		response.Fail(w, r, err, "could not get billing history")
		return
	}
	if entries == nil {
		entries = []*models.BillingEntry{}
	}
	render.JSON(w, r, response.StatusOKWithData(entries))
}
