// Package plan реализует HTTP-обработчики тарифных планов.
package plan

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/hustler-sync/internal/http/request"
	"github.com/magabrotheeeer/hustler-sync/internal/http/response"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/sl"
	"github.com/magabrotheeeer/hustler-sync/internal/models"
)

// Service описывает операции над тарифными планами.
type Service interface {
	CreatePlan(ctx context.Context, req models.DummyPlan) (*models.SubscriptionPlan, error)
	ListPlans(ctx context.Context, planFor string) ([]*models.SubscriptionPlan, error)
	GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error)
}

// Handler обрабатывает запросы к тарифным планам.
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

// Create godoc
// @Summary Создание тарифного плана
// @Tags Plans
// @Accept  json
// @Produce  json
// @Param request body models.DummyPlan true "Тарифный план"
// @Success 201 {object} response.Response "План создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /subscription-plans [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.plan.Create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyPlan
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

	plan, err := h.service.CreatePlan(r.Context(), req)
	if err != nil {
		log.Error("failed to create plan", sl.Err(err))
		response.Fail(w, r, err, "could not create subscription plan")
		return
	}
	log.Info("plan created", slog.String("plan_id", plan.ID), slog.String("plan_for", plan.PlanFor))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(plan))
}

// ListFor возвращает обработчик списка планов аудитории planFor.
//
// @Summary Список тарифных планов
// @Tags Plans
// @Produce  json
// @Success 200 {object} response.Response "Планы"
// @Router /subscription-plans/client [get]
// @Router /subscription-plans/hustler [get]
func (h *Handler) ListFor(planFor string) http.HandlerFunc {
	const op = "handlers.catalog.plan.List"
	return func(w http.ResponseWriter, r *http.Request) {
		plans, err := h.service.ListPlans(r.Context(), planFor)
		if err != nil {
			h.log.Error("failed to list plans", sl.Op(op), slog.String("plan_for", planFor), sl.Err(err))
			response.Fail(w, r, err, "could not list subscription plans")
			return
		}
		render.JSON(w, r, response.StatusOKWithData(plans))
	}
}

// Get godoc
// @Summary Тарифный план
// @Tags Plans
// @Produce  json
// @Param id path string true "ID плана"
// @Success 200 {object} response.Response "План"
// @Failure 404 {object} response.ErrorResponse "План не найден"
// @Router /subscription-plans/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.plan.Get"

	plan, err := h.service.GetPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.log.Warn("failed to get plan", sl.Op(op), sl.Err(err))
		response.Fail(w, r, err, "could not get subscription plan")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(plan))
}
