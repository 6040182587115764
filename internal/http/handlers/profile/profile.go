// Package profile реализует HTTP-обработчики профиля авторизованного пользователя.
package profile

import (
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/hustler-sync/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hustler-sync/internal/http/request"
	"github.com/magabrotheeeer/hustler-sync/internal/http/response"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/sl"
	"github.com/magabrotheeeer/hustler-sync/internal/models"
)

// ImageField поле multipart-формы с новой фотографией профиля.
const ImageField = "image"

// Service описывает операции над профилем.
type Service interface {
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, userID string, req models.PasswordChange) error
	ChangePhone(ctx context.Context, userID, phone string) error
}

// Uploader сохраняет изображение и возвращает его URL.
type Uploader interface {
	Upload(ctx context.Context, fh *multipart.FileHeader) (string, error)
}

// Handler обрабатывает запросы к профилю.
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

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Get godoc
// @Summary Профиль пользователя
// @Tags Profile
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Профиль"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Router /profile [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.Get"
	log := h.logger(r, op)

	user, ok := middlewarectx.CurrentUser(w, r)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(r.Context(), user.ID)
	if err != nil {
		log.Error("failed to get profile", sl.Err(err))
		response.Fail(w, r, err, "could not get profile")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(profile))
}

// Update godoc
// @Summary Обновление профиля
// @Description Меняет переданные поля профиля. Принимает JSON или multipart/form-data с файлом image.
// @Tags Profile
// @Accept  json,mpfd
// @Produce  json
// @Security BearerAuth
// @Param request body models.ProfileUpdate true "Изменяемые поля"
// @Success 200 {object} response.Response "Обновлённый профиль"
// @Failure 400 {object} response.ErrorResponse "Некорректное тело запроса"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /profile [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.Update"
	log := h.logger(r, op)

	user, ok := middlewarectx.CurrentUser(w, r)
	if !ok {
		return
	}

	var req models.ProfileUpdate
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
	if fh := request.File(r, ImageField); fh != nil {
		url, err := h.uploader.Upload(r.Context(), fh)
		if err != nil {
			log.Error("failed to upload profile image", sl.Err(err))
			response.Fail(w, r, err, "could not upload profile image")
			return
		}
		req.ProfileImage = url
	}

	updated, err := h.service.UpdateProfile(r.Context(), user.ID, req)
	if err != nil {
		log.Error("failed to update profile", sl.Err(err))
		response.Fail(w, r, err, "could not update profile")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(updated))
}

// ChangePassword godoc
// @Summary Смена пароля
// @Tags Profile
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.PasswordChange true "Текущий и новый пароль"
// @Success 200 {object} response.Response "Пароль изменён"
// @Failure 401 {object} response.ErrorResponse "Неверный текущий пароль"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /profile/password [put]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.ChangePassword"
	log := h.logger(r, op)

	user, ok := middlewarectx.CurrentUser(w, r)
	if !ok {
		return
	}

	var req models.PasswordChange
	if err := request.Bind(r, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Invalid(w, r, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), user.ID, req); err != nil {
		log.Warn("failed to change password", sl.Err(err))
		response.Fail(w, r, err, "could not change password")
		return
	}
	log.Info("password changed", slog.String("user_id", user.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "password updated successfully",
	}))
}

// ChangePhone godoc
// @Summary Смена телефона
// @Tags Profile
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.PhoneChange true "Новый номер"
// @Success 200 {object} response.Response "Телефон изменён"
// @Failure 401 {object} response.ErrorResponse "Не авторизован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /profile/phone [put]
func (h *Handler) ChangePhone(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.ChangePhone"
	log := h.logger(r, op)

	user, ok := middlewarectx.CurrentUser(w, r)
	if !ok {
		return
	}

	var req models.PhoneChange
	if err := request.Bind(r, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Invalid(w, r, err)
		return
	}

	if err := h.service.ChangePhone(r.Context(), user.ID, req.Phone); err != nil {
		log.Error("failed to change phone", sl.Err(err))
		response.Fail(w, r, err, "could not change phone")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "phone updated successfully",
	}))
}
