// Package category реализует HTTP-обработчики справочника категорий услуг.
package category

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

// Request входные данные новой категории.
type Request struct {
	Name        string `json:"name" validate:"required,min=2"`
	Description string `json:"description"`
}

// Service описывает операции над категориями.
type Service interface {
	CreateCategory(ctx context.Context, name, description string) (*models.ServiceCategory, error)
	ListCategories(ctx context.Context) ([]*models.ServiceCategory, error)
	GetCategory(ctx context.Context, id string) (*models.ServiceCategory, error)
}

// Handler обрабатывает запросы к категориям.
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
// @Summary Создание категории услуг
// @Tags Catalog
// @Accept  json
// @Produce  json
// @Param request body Request true "Категория"
// @Success 201 {object} response.Response "Категория создана"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Категория уже существует"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /service-categories [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.category.Create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

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

	category, err := h.service.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		log.Error("failed to create category", sl.Err(err))
		response.Fail(w, r, err, "could not create category")
		return
	}
	log.Info("category created", slog.String("category_id", category.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(category))
}

// List godoc
// @Summary Список категорий услуг
// @Tags Catalog
// @Produce  json
// @Success 200 {object} response.Response "Категории"
// @Router /service-categories [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.category.List"

	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.log.Error("failed to list categories", sl.Op(op), sl.Err(err))
		response.Fail(w, r, err, "could not list categories")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(categories))
}

// Get godoc
// @Summary Категория услуг
// @Tags Catalog
// @Produce  json
// @Param id path string true "ID категории"
// @Success 200 {object} response.Response "Категория"
// @Failure 404 {object} response.ErrorResponse "Категория не найдена"
// @Router /service-categories/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.category.Get"

	category, err := h.service.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.log.Warn("failed to get category", sl.Op(op), sl.Err(err))
		response.Fail(w, r, err, "could not get category")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(category))
}
