// Package register реализует HTTP-обработчики регистрации клиента и исполнителя.
//
// Запрос принимается как JSON или multipart/form-data. Изображения из формы
// загружаются в объектное хранилище до создания пользователя, в базу попадают только их URL.
package register

import (
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/hustler-sync/internal/http/request"
	"github.com/magabrotheeeer/hustler-sync/internal/http/response"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/sl"
	"github.com/magabrotheeeer/hustler-sync/internal/models"
)

// Поля multipart-формы с изображениями.
const (
	ProfileImageField   = "image"
	BusinessImagesField = "businessImages"
)

// Service описывает интерфейс бизнес-логики регистрации.
type Service interface {
	RegisterClient(ctx context.Context, req models.DummyUser) (string, error)
	RegisterHustler(ctx context.Context, req models.DummyHustler) (string, string, error)
}

// Uploader сохраняет изображения и возвращает их URL.
type Uploader interface {
	Upload(ctx context.Context, fh *multipart.FileHeader) (string, error)
	UploadMany(ctx context.Context, files []*multipart.FileHeader) ([]string, error)
}

// Handler обрабатывает запросы регистрации.
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

// Client godoc
// @Summary Регистрация клиента
// @Description Создаёт пользователя. Принимает JSON или multipart/form-data с необязательным файлом image.
// @Tags Auth
// @Accept  json,mpfd
// @Produce  json
// @Param request body models.DummyUser true "Данные пользователя"
// @Success 201 {object} response.Response "Пользователь создан"
// @Failure 400 {object} response.ErrorResponse "Некорректное тело запроса"
// @Failure 409 {object} response.ErrorResponse "Email уже занят"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/register-client [post]
func (h *Handler) Client(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register.Client"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyUser
	if err := request.Bind(r, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		response.Invalid(w, r, err)
		return
	}

	if fh := request.File(r, ProfileImageField); fh != nil {
		url, err := h.uploader.Upload(r.Context(), fh)
		if err != nil {
			log.Error("failed to upload profile image", sl.Err(err))
			response.Fail(w, r, err, "could not upload profile image")
			return
		}
		req.ProfileImage = url
	}

	id, err := h.service.RegisterClient(r.Context(), req)
	if err != nil {
		log.Error("registration failed", sl.Err(err))
		response.Fail(w, r, err, "could not register user")
		return
	}

	log.Info("user registered", slog.String("user_id", id))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":      id,
		"message": "user created successfully",
	}))
}

// Hustler godoc
// @Summary Регистрация исполнителя
// @Description Создаёт исполнителя и его первую услугу. Файлы: image и до 4 businessImages.
// @Tags Auth
// @Accept  mpfd,json
// @Produce  json
// @Param request body models.DummyHustler true "Данные исполнителя"
// @Success 201 {object} response.Response "Исполнитель создан"
// @Failure 400 {object} response.ErrorResponse "Некорректное тело запроса"
// @Failure 404 {object} response.ErrorResponse "Категория не найдена"
// @Failure 409 {object} response.ErrorResponse "Email уже занят"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /auth/register-hustler [post]
func (h *Handler) Hustler(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register.Hustler"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyHustler
	if err := request.Bind(r, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		response.Invalid(w, r, err)
		return
	}
	files, err := request.Files(r, BusinessImagesField)
	if err != nil {
		response.Invalid(w, r, err)
		return
	}

	if fh := request.File(r, ProfileImageField); fh != nil {
		url, err := h.uploader.Upload(r.Context(), fh)
		if err != nil {
			log.Error("failed to upload profile image", sl.Err(err))
			response.Fail(w, r, err, "could not upload profile image")
			return
		}
		req.ProfileImage = url
	}
	if len(files) > 0 {
		urls, err := h.uploader.UploadMany(r.Context(), files)
		if err != nil {
			log.Error("failed to upload business images", sl.Err(err))
			response.Fail(w, r, err, "could not upload business images")
			return
		}
		req.BusinessImages = urls
	}

	userID, serviceID, err := h.service.RegisterHustler(r.Context(), req)
	if err != nil {
		log.Error("registration failed", sl.Err(err))
		response.Fail(w, r, err, "could not register hustler")
		return
	}

	log.Info("hustler registered", slog.String("user_id", userID), slog.String("service_id", serviceID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":         userID,
		"service_id": serviceID,
		"message":    "hustler created successfully",
	}))
}

