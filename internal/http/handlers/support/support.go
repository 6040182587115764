// Package support реализует HTTP-обработчики обращений в поддержку.
package support

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

// ImageField поле multipart-формы со скриншотом.
const ImageField = "image"

// Service описывает операции над обращениями.
type Service interface {
	Send(ctx context.Context, userID, subject, message, image string) (*models.SupportMessage, error)
	List(ctx context.Context, userID string) ([]*models.SupportMessage, error)
	Get(ctx context.Context, id, userID string) (*models.SupportMessage, error)
}

// Uploader сохраняет изображение и возвращает его URL.
type Uploader interface {
	Upload(ctx context.Context, fh *multipart.FileHeader) (string, error)
}

// Handler обрабатывает запросы к поддержке.
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
// @Summary Обращение в поддержку
// @Description Принимает JSON или multipart/form-data с необязательным файлом image.
// @Tags Support
// @Accept  json,mpfd
// @Produce  json
// @Security BearerAuth
// @Param request body models.DummySupportMessage true "Обращение"
// @Success 201 {object} response.Response "Обращение создано"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /support-messages [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.support.Create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.CurrentUser(w, r)
	if !ok {
		return
	}

	var req models.DummySupportMessage
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

	var image string
	if fh := request.File(r, ImageField); fh != nil {
		url, err := h.uploader.Upload(r.Context(), fh)
		if err != nil {
			log.Error("failed to upload support image", sl.Err(err))
			response.Fail(w, r, err, "could not upload image")
			return
		}
		image = url
	}

	msg, err := h.service.Send(r.Context(), user.ID, req.Subject, req.Message, image)
	if err != nil {
		log.Error("failed to send support message", sl.Err(err))
		response.Fail(w, r, err, "could not send support message")
		return
	}
	log.Info("support message created", slog.String("message_id", msg.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(msg))
}

// List godoc
// @Summary Обращения пользователя
// @Tags Support
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Обращения"
// @Router /support-messages [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.support.List"

	user, ok := middlewarectx.CurrentUser(w, r)
	if !ok {
		return
	}
	messages, err := h.service.List(r.Context(), user.ID)
	if err != nil {
		h.log.Error("failed to list support messages", sl.Op(op), sl.Err(err))
		response.Fail(w, r, err, "could not list support messages")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(messages))
}

// Get godoc
// @Summary Обращение
// @Tags Support
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID обращения"
// @Success 200 {object} response.Response "Обращение"
// @Failure 404 {object} response.ErrorResponse "Обращение не найдено"
// @Router /support-messages/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.support.Get"

	user, ok := middlewarectx.CurrentUser(w, r)
	if !ok {
		return
	}
	msg, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), user.ID)
	if err != nil {
		h.log.Warn("failed to get support message", sl.Op(op), sl.Err(err))
		response.Fail(w, r, err, "could not get support message")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(msg))
}
