// Package hustler реализует HTTP-обработчики каталога исполнителей и их услуг:
// постраничный список, карточку исполнителя, добавление услуги, поиск по категории и названию.
package hustler

import (
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/hustler-sync/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hustler-sync/internal/http/request"
	"github.com/magabrotheeeer/hustler-sync/internal/http/response"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/sl"
	"github.com/magabrotheeeer/hustler-sync/internal/models"
)

// ServiceImagesField поле multipart-формы с изображениями услуги.
const ServiceImagesField = "serviceImages"

// Service описывает операции каталога исполнителей.
type Service interface {
	ListHustlers(ctx context.Context, page, limit int) ([]*models.Hustler, error)
	GetHustler(ctx context.Context, id string) (*models.Hustler, error)
	AddService(ctx context.Context, userID string, req models.DummyHustlerService, images []string) (*models.HustlerService, error)
	GetService(ctx context.Context, id string) (*models.HustlerService, error)
	ProvidersByCategory(ctx context.Context, categoryID, userID string) ([]*models.HustlerService, error)
	SearchByServiceName(ctx context.Context, term, userID string) ([]*models.HustlerService, error)
}

// Uploader сохраняет изображения и возвращает их URL.
type Uploader interface {
	UploadMany(ctx context.Context, files []*multipart.FileHeader) ([]string, error)
}

// Handler обрабатывает запросы к каталогу исполнителей.
type Handler struct {
	log      *slog.Logger
	service  Service
	uploader Uploader
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, uploader Uploader) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		uploader: uploader,
		validate: validator.New(),
	}
}

// queryInt читает целочисленный параметр запроса. Пустое значение даёт 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// List godoc
// @Summary Список исполнителей
// @Tags Hustlers
// @Produce  json
// @Security BearerAuth
// @Param page query int false "Номер страницы, по умолчанию 1"
// @Param limit query int false "Размер страницы, по умолчанию 10, не больше 100"
// @Success 200 {object} response.Response "Исполнители"
// @Failure 422 {object} response.ErrorResponse "Некорректные параметры"
// @Router /hustlers [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.hustler.List"

	page, err := queryInt(r, "page")
	if err != nil {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("page must be a number"))
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("limit must be a number"))
		return
	}

	hustlers, err := h.service.ListHustlers(r.Context(), page, limit)
	if err != nil {
		h.log.Error("failed to list hustlers", sl.Op(op), sl.Err(err))
		response.Fail(w, r, err, "could not list hustlers")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(hustlers))
}

// Get godoc
// @Summary Карточка исполнителя
// @Tags Hustlers
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID исполнителя"
// @Success 200 {object} response.Response "Исполнитель с услугами"
// @Failure 404 {object} response.ErrorResponse "Исполнитель не найден"
// @Router /hustlers/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.hustler.Get"

	hustler, err := h.service.GetHustler(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.log.Warn("failed to get hustler", sl.Op(op), sl.Err(err))
		response.Fail(w, r, err, "could not get hustler")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(hustler))
}

// AddService godoc
// @Summary Добавление услуги
// @Description Доступно только исполнителям. Принимает multipart/form-data с файлами serviceImages (до 4).
// @Tags Hustlers
// @Accept  mpfd,json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyHustlerService true "Услуга"
// @Success 201 {object} response.Response "Услуга создана"
// @Failure 403 {object} response.ErrorResponse "Пользователь не исполнитель"
// @Failure 404 {object} response.ErrorResponse "Категория не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /hustlers/hustler-services [post]
func (h *Handler) AddService(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.hustler.AddService"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.CurrentUser(w, r)
	if !ok {
		return
	}

	var req models.DummyHustlerService
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
	files, err := request.Files(r, ServiceImagesField)
	if err != nil {
		response.Invalid(w, r, err)
		return
	}

	var images []string
	if len(files) > 0 {
		images, err = h.uploader.UploadMany(r.Context(), files)
		if err != nil {
			log.Error("failed to upload service images", sl.Err(err))
			response.Fail(w, r, err, "could not upload service images")
			return
		}
	}

	svc, err := h.service.AddService(r.Context(), user.ID, req, images)
	if err != nil {
		log.Error("failed to add service", sl.Err(err))
		response.Fail(w, r, err, "could not add service")
		return
	}
	log.Info("service added", slog.String("service_id", svc.ID), slog.String("user_id", user.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(svc))
}

// GetService godoc
// @Summary Услуга исполнителя
// @Tags Hustlers
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID услуги"
// @Success 200 {object} response.Response "Услуга"
// @Failure 404 {object} response.ErrorResponse "Услуга не найдена"
// @Router /hustlers/hustler-services/{id} [get]
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.hustler.GetService"

	svc, err := h.service.GetService(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.log.Warn("failed to get service", sl.Op(op), sl.Err(err))
		response.Fail(w, r, err, "could not get service")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(svc))
}

// ByCategory godoc
// @Summary Исполнители по категории
// @Description Возвращает услуги категории, кроме услуг текущего пользователя. Без serviceCatId возвращает все.
// @Tags Hustlers
// @Produce  json
// @Security BearerAuth
// @Param serviceCatId query string false "ID категории"
// @Success 200 {object} response.Response "Услуги"
// @Router /service-provider-by-category [get]
func (h *Handler) ByCategory(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.hustler.ByCategory"

	user, ok := middlewarectx.CurrentUser(w, r)
	if !ok {
		return
	}

	services, err := h.service.ProvidersByCategory(r.Context(), r.URL.Query().Get("serviceCatId"), user.ID)
	if err != nil {
		h.log.Error("failed to list providers", sl.Op(op), sl.Err(err))
		response.Fail(w, r, err, "could not list service providers")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(services))
}

// Search godoc
// @Summary Поиск услуг по названию
// @Tags Hustlers
// @Produce  json
// @Security BearerAuth
// @Param serviceName query string true "Часть названия"
// @Success 200 {object} response.Response "Услуги"
// @Failure 422 {object} response.ErrorResponse "Пустой запрос"
// @Router /hustlers-search-by-service-name [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.hustler.Search"

	user, ok := middlewarectx.CurrentUser(w, r)
	if !ok {
		return
	}

	services, err := h.service.SearchByServiceName(r.Context(), r.URL.Query().Get("serviceName"), user.ID)
	if err != nil {
		h.log.Warn("search failed", sl.Op(op), sl.Err(err))
		response.Fail(w, r, err, "could not search services")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(services))
}
