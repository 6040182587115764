// Package services содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/hustler-sync/internal/apperr"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/jwt"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/password"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/hustler-sync/internal/lib/sl"
	"github.com/magabrotheeeer/hustler-sync/internal/models"
)

// ResetTokenTTL срок действия ссылки на сброс пароля.
const ResetTokenTTL = time.Hour

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	CreateHustlerWithService(ctx context.Context, user models.User, service models.HustlerService) (string, string, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetResetToken(ctx context.Context, userID, token string, expire time.Time) error
	GetUserByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error)
	ResetPassword(ctx context.Context, userID, passwordHash string) error
	UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdatePhone(ctx context.Context, userID, phone string) error
}

// CategoryRepository проверка существования категории услуг.
type CategoryRepository interface {
	GetCategory(ctx context.Context, id string) (*models.ServiceCategory, error)
}

// Publisher публикует события уведомлений.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// ErrInvalidCredentials неверная пара email и пароль.
var ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", apperr.ErrUnauthorized)

// AuthService отвечает за регистрацию, вход, сброс пароля и профиль.
type AuthService struct {
	users      UserRepository
	categories CategoryRepository
	jwtMaker   jwt.Maker
	publisher  Publisher
	clientURL  string
	log        *slog.Logger
	now        func() time.Time
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, categories CategoryRepository, jwtMaker jwt.Maker,
	publisher Publisher, clientURL string, log *slog.Logger) *AuthService {
	return &AuthService{
		users:      users,
		categories: categories,
		jwtMaker:   jwtMaker,
		publisher:  publisher,
		clientURL:  strings.TrimSuffix(clientURL, "/"),
		log:        log,
		now:        time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterClient создаёт пользователя с хэшированным паролем. Роль по умолчанию client.
func (s *AuthService) RegisterClient(ctx context.Context, req models.DummyUser) (string, error) {
	const op = "auth.RegisterClient"
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	role := req.Role
	if role == "" {
		role = models.RoleClient
	}
	id, err := s.users.CreateUser(ctx, models.User{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hashed,
		Role:         role,
		Language:     req.Language,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// RegisterHustler создаёт исполнителя и его первую услугу в одной транзакции.
func (s *AuthService) RegisterHustler(ctx context.Context, req models.DummyHustler) (string, string, error) {
	const op = "auth.RegisterHustler"
	if _, err := s.categories.GetCategory(ctx, req.ServiceCategoryID); err != nil {
		return "", "", fmt.Errorf("%s: service category: %w", op, err)
	}
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        normalizeEmail(req.Email),
		Phone:        req.Phone,
		PasswordHash: hashed,
		Role:         models.RoleHustler,
		Language:     req.Language,
		ProfileImage: req.ProfileImage,
	}
	service := models.HustlerService{
		Name:              req.BusinessName,
		Description:       req.BusinessDescription,
		Images:            req.BusinessImages,
		ServiceCategoryID: req.ServiceCategoryID,
		StartingPrice:     req.StartingPrice,
	}
	userID, serviceID, err := s.users.CreateHustlerWithService(ctx, user, service)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return userID, serviceID, nil
}

// Login проверяет пароль пользователя и выпускает JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	const op = "auth.Login"
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, apperr.ErrNotFound) {
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	token, err := s.jwtMaker.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

// Authenticate проверяет JWT и загружает неудалённого пользователя из хранилища.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	const op = "auth.Authenticate"
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", op, err, apperr.ErrUnauthorized)
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, fmt.Errorf("%s: user no longer exists: %w", op, apperr.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// ForgotPassword выпускает токен сброса и публикует событие со ссылкой.
// Ошибка публикации только логируется.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	const op = "auth.ForgotPassword"
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	token, err := password.NewResetToken()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	expire := s.now().Add(ResetTokenTTL)
	if err := s.users.SetResetToken(ctx, user.ID, token, expire); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	event := models.PasswordResetEvent{
		Email:     user.Email,
		FullName:  user.FullName,
		ResetURL:  s.clientURL + "/auth/reset-password/" + token,
		ExpiresAt: expire,
	}
	if err := s.publisher.Publish(ctx, rabbitmq.RoutingPasswordReset, event); err != nil {
		s.log.Error("failed to publish password reset event", sl.Op(op), sl.Err(err))
	}
	return nil
}

// ResetPassword устанавливает новый пароль по действующему токену и гасит токен.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	const op = "auth.ResetPassword"
	if token == "" {
		return fmt.Errorf("%s: empty token: %w", op, apperr.ErrValidation)
	}
	user, err := s.users.GetUserByResetToken(ctx, token, s.now())
	if errors.Is(err, apperr.ErrNotFound) {
		return fmt.Errorf("%s: invalid or expired token: %w", op, apperr.ErrValidation)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	hashed, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.ResetPassword(ctx, user.ID, hashed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetProfile возвращает профиль пользователя.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	const op = "auth.GetProfile"
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// UpdateProfile обновляет непустые поля профиля. Адрес сливается с текущим.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error) {
	const op = "auth.UpdateProfile"
	upd.FullName = strings.TrimSpace(upd.FullName)
	user, err := s.users.UpdateProfile(ctx, userID, upd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// ChangePassword меняет пароль после проверки текущего.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req models.PasswordChange) error {
	const op = "auth.ChangePassword"
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, req.CurrentPassword); err != nil {
		return fmt.Errorf("%s: current password is incorrect: %w", op, apperr.ErrUnauthorized)
	}
	hashed, err := password.GetHash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hashed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ChangePhone меняет номер телефона.
func (s *AuthService) ChangePhone(ctx context.Context, userID, phone string) error {
	const op = "auth.ChangePhone"
	phone = strings.TrimSpace(phone)
	if len(phone) < 10 {
		return fmt.Errorf("%s: phone must be at least 10 characters: %w", op, apperr.ErrValidation)
	}
	if err := s.users.UpdatePhone(ctx, userID, phone); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
