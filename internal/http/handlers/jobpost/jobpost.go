// Package jobpost реализует HTTP-обработчики заявок клиентов на поиск исполнителя.
//
// Список и карточка заявки показывают только чужие заявки: автор свою заявку здесь не видит.
package jobpost

import (
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"

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

// ImagesField поле multipart-формы с изображениями заявки.
const ImagesField = "images"

// Service описывает операции над заявками.
type Service interface {
	Create(ctx context.Context, userID string, req models.DummyJobPost, images []string) (*models.JobPost, error)
	List(ctx context.Context, userID string) ([]*models.JobPost, error)
	Get(ctx context.Context, id, userID string) (*models.JobPost, error)
}

// Uploader сохраняет изображения и возвращает их URL.
type Uploader interface {
	UploadMany(ctx context.Context, files []*multipart.FileHeader) ([]string, error)
}

// Handler обрабатывает запросы к заявкам.
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

// Create godoc
// @Summary Публикация заявки
// @Description Принимает multipart/form-data с файлами images (до 4). languages: JSON-массив или список через запятую.
// @Tags JobPosts
// @Accept  mpfd,json
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummyJobPost true "Заявка"
// @Success 201 {object} response.Response "Заявка создана"
// @Failure 404 {object} response.ErrorResponse "Категория не найдена"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /hustler-finding-posts [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.jobpost.Create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.CurrentUser(w, r)
	if !ok {
		return
	}

	var req models.DummyJobPost
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
	files, err := request.Files(r, ImagesField)
	if err != nil {
		response.Invalid(w, r, err)
		return
	}

	var images []string
	if len(files) > 0 {
		if images, err = h.uploader.UploadMany(r.Context(), files); err != nil {
			log.Error("failed to upload job post images", sl.Err(err))
			response.Fail(w, r, err, "could not upload images")
			return
		}
	}

	post, err := h.service.Create(r.Context(), user.ID, req, images)
	if err != nil {
		log.Error("failed to create job post", sl.Err(err))
		response.Fail(w, r, err, "could not create job post")
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(post))
}

// List godoc
// @Summary Заявки других пользователей
// @Tags JobPosts
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Заявки"
// @Router /hustler-finding-posts [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.jobpost.List"

	user, ok := middlewarectx.CurrentUser(w, r)
	if !ok {
		return
	}

	posts, err := h.service.List(r.Context(), user.ID)
	if err != nil {
		h.log.Error("failed to list job posts", sl.Op(op), sl.Err(err))
		response.Fail(w, r, err, "could not list job posts")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(posts))
}

// Get godoc
// @Summary Заявка
// @Tags JobPosts
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID заявки"
// @Success 200 {object} response.Response "Заявка"
// @Failure 404 {object} response.ErrorResponse "Заявка не найдена"
// @Router /hustler-finding-posts/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.jobpost.Get"

	user, ok := middlewarectx.CurrentUser(w, r)
	if !ok {
		return
	}

	post, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		h.log.Warn("failed to get job post", sl.Op(op), sl.Err(err))
		response.Fail(w, r, err, "could not get job post")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(post))
}
