// Package password реализует HTTP-обработчики восстановления пароля:
// запрос ссылки на сброс и установку нового пароля по токену из письма.
package password

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

// Service описывает операции восстановления пароля.
type Service interface {
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Handler обрабатывает запросы восстановления пароля.
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

// Forgot godoc
// @Summary Запрос сброса пароля
// @Description Отправляет на email письмо со ссылкой для сброса пароля. Ссылка действует 15 минут.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body models.ForgotPasswordRequest true "Email пользователя"
// @Success 200 {object} response.Response "Письмо поставлено в очередь"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /auth/forgot-password [post]
func (h *Handler) Forgot(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.password.Forgot"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.ForgotPasswordRequest
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

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		log.Warn("forgot password failed", sl.Err(err))
		response.Fail(w, r, err, "could not send reset link")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "password reset link sent to your email",
	}))
}

// Reset godoc
// @Summary Сброс пароля
// @Description Устанавливает новый пароль по действующему токену сброса.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param token path string true "Токен из письма"
// @Param request body models.ResetPasswordRequest true "Новый пароль"
// @Success 200 {object} response.Response "Пароль изменён"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Токен недействителен, истёк или пароль слишком короткий"
// @Router /auth/reset-password/{token} [post]
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.password.Reset"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.ResetPasswordRequest
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

	token := chi.URLParam(r, "token")
	if err := h.service.ResetPassword(r.Context(), token, req.Password); err != nil {
		log.Warn("reset password failed", sl.Err(err))
		response.Fail(w, r, err, "invalid or expired reset token")
		return
	}

	log.Info("password reset")
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "password has been reset",
	}))
}
