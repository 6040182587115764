// Package checkout реализует HTTP-обработчики покупки тарифного плана:
// создание checkout-сессии и обработку возврата пользователя со страницы оплаты.
package checkout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/hustler-sync/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hustler-sync/internal/http/request"
	"github.com/magabrotheeeer/hustler-sync/internal/http/response"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/sl"
)

// Request входные данные для создания checkout-сессии.
type Request struct {
	PlanID string `json:"planId" validate:"required"`
}

// Service описывает операции покупки плана.
type Service interface {
	InitiatePurchase(ctx context.Context, userID, role, planID string) (string, error)
	ConfirmPurchase(ctx context.Context, sessionID string) (string, error)
	CancelRedirect() string
}

// Handler обрабатывает запросы оплаты.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// CreateSession godoc
// @Summary Создание checkout-сессии
// @Description Создаёт сессию оплаты плана для текущего пользователя. Аудитория плана должна совпадать с ролью.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "ID плана"
// @Success 200 {object} response.Response "URL страницы оплаты"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 404 {object} response.ErrorResponse "План или пользователь не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 503 {object} response.ErrorResponse "Платёжный шлюз недоступен"
// @Router /payments/subscription-plan/create-session [post]
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.checkout.CreateSession"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.CurrentUser(w, r)
	if !ok {
		return
	}

	var req Request
	if err := request.Bind(r, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Invalid(w, r, err)
		return
	}

	url, err := h.service.InitiatePurchase(r.Context(), user.ID, user.Role, req.PlanID)
	if err != nil {
		log.Error("failed to create checkout session", sl.Err(err))
		response.Fail(w, r, err, "could not create checkout session")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"url": url,
	}))
}

// Success godoc
// @Summary Возврат после успешной оплаты
// @Description Проверяет оплату сессии, активирует подписку и перенаправляет на клиент.
// @Tags Payments
// @Produce  json
// @Param session_id query string true "ID checkout-сессии"
// @Success 302 "Редирект на страницу успеха"
// @Failure 402 {object} response.ErrorResponse "Оплата не завершена"
// @Failure 404 {object} response.ErrorResponse "Сессия не найдена"
// @Failure 503 {object} response.ErrorResponse "Платёжный шлюз недоступен"
// @Router /payment/subscription-plan/success [get]
func (h *Handler) Success(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.checkout.Success"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	target, err := h.service.ConfirmPurchase(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		log.Error("failed to confirm purchase", sl.Err(err))
		response.Fail(w, r, err, "could not confirm payment")
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Cancel godoc
// @Summary Возврат после отмены оплаты
// @Tags Payments
// @Success 302 "Редирект на страницу отмены"
// @Router /payment/subscription-plan/cancel [get]
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.service.CancelRedirect(), http.StatusFound)
}
