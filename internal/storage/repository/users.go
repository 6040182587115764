package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/hustler-sync/internal/models"
)

const userColumns = `u.id, u.full_name, u.email, u.phone, u.password_hash, u.role, u.profile_image,
	u.address_street, u.address_city, u.address_state, u.address_country, u.address_zip,
	u.is_verified, u.language, COALESCE(u.reset_password_token, ''), u.reset_password_expire,
	u.active_subscription_id, u.created_at, u.updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var resetExpire sql.NullTime
	var activeSub sql.NullString
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.ProfileImage,
		&u.Address.Street, &u.Address.City, &u.Address.State, &u.Address.Country, &u.Address.Zip,
		&u.IsVerified, &u.Language, &u.ResetPasswordToken, &resetExpire,
		&activeSub, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if resetExpire.Valid {
		u.ResetPasswordExpire = &resetExpire.Time
	}
	if activeSub.Valid {
		u.ActiveSubscriptionID = &activeSub.String
	}
	return u, nil
}

// CreateUser сохраняет нового пользователя и возвращает его ID.
// Занятый email возвращается как apperr.ErrConflict.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newID string
	if err := insertUser(ctx, s.DB, user).Scan(&newID); err != nil {
		return "", mapError(op, err)
	}
	return newID, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertUser(ctx context.Context, q queryRower, user models.User) *sql.Row {
	language := user.Language
	if language == "" {
		language = models.DefaultLanguage
	}
	query := `INSERT INTO users (full_name, email, phone, password_hash, role, profile_image,
			      address_street, address_city, address_state, address_country, address_zip, language)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  RETURNING id;`
	return q.QueryRowContext(ctx, query,
		user.FullName, user.Email, user.Phone, user.PasswordHash, user.Role, user.ProfileImage,
		user.Address.Street, user.Address.City, user.Address.State, user.Address.Country, user.Address.Zip,
		language)
}

// CreateHustlerWithService в одной транзакции создаёт исполнителя и его первую услугу.
func (s *Storage) CreateHustlerWithService(ctx context.Context, user models.User, service models.HustlerService) (string, string, error) {
	const op = "storage.CreateHustlerWithService"
	select {
	case <-ctx.Done():
		return "", "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var userID, serviceID string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertUser(ctx, tx, user).Scan(&userID); err != nil {
			return err
		}
		service.UserID = userID
		return insertService(ctx, tx, service).Scan(&serviceID)
	})
	if err != nil {
		return "", "", mapError(op, err)
	}
	return userID, serviceID, nil
}

// GetUserByID возвращает неудалённого пользователя по ID.
func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUserByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1 AND NOT u.is_deleted`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает неудалённого пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users u WHERE u.email = $1 AND NOT u.is_deleted`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// GetUserByIDAndRole возвращает пользователя, только если его роль совпадает с role.
func (s *Storage) GetUserByIDAndRole(ctx context.Context, id, role string) (*models.User, error) {
	const op = "storage.GetUserByIDAndRole"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1 AND u.role = $2 AND NOT u.is_deleted`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id, role))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// SetResetToken сохраняет токен сброса пароля и срок его действия.
func (s *Storage) SetResetToken(ctx context.Context, userID, token string, expire time.Time) error {
	const op = "storage.SetResetToken"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET reset_password_token = $1, reset_password_expire = $2, updated_at = NOW()
			  WHERE id = $3 AND NOT is_deleted`
	return execOne(ctx, s.DB, op, query, token, expire, userID)
}

// GetUserByResetToken ищет пользователя с действующим на момент now токеном сброса.
func (s *Storage) GetUserByResetToken(ctx context.Context, token string, now time.Time) (*models.User, error) {
	const op = "storage.GetUserByResetToken"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users u
			  WHERE u.reset_password_token = $1 AND u.reset_password_expire > $2 AND NOT u.is_deleted`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, token, now))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// ResetPassword меняет хеш пароля и гасит токен сброса.
func (s *Storage) ResetPassword(ctx context.Context, userID, passwordHash string) error {
	const op = "storage.ResetPassword"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET password_hash = $1, reset_password_token = NULL,
			      reset_password_expire = NULL, updated_at = NOW()
			  WHERE id = $2 AND NOT is_deleted`
	return execOne(ctx, s.DB, op, query, passwordHash, userID)
}

// UpdatePassword меняет хеш пароля пользователя.
func (s *Storage) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	const op = "storage.UpdatePassword"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2 AND NOT is_deleted`
	return execOne(ctx, s.DB, op, query, passwordHash, userID)
}

// UpdatePhone меняет номер телефона пользователя.
func (s *Storage) UpdatePhone(ctx context.Context, userID, phone string) error {
	const op = "storage.UpdatePhone"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET phone = $1, updated_at = NOW() WHERE id = $2 AND NOT is_deleted`
	return execOne(ctx, s.DB, op, query, phone, userID)
}

// UpdateProfile частично обновляет профиль: пустые поля сохраняют прежние значения.
func (s *Storage) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error) {
	const op = "storage.UpdateProfile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var addr models.Address
	if upd.Address != nil {
		addr = *upd.Address
	}
	query := `UPDATE users u SET
			      full_name = COALESCE(NULLIF($1, ''), u.full_name),
			      phone = COALESCE(NULLIF($2, ''), u.phone),
			      language = COALESCE(NULLIF($3, ''), u.language),
			      profile_image = COALESCE(NULLIF($4, ''), u.profile_image),
			      address_street = COALESCE(NULLIF($5, ''), u.address_street),
			      address_city = COALESCE(NULLIF($6, ''), u.address_city),
			      address_state = COALESCE(NULLIF($7, ''), u.address_state),
			      address_country = COALESCE(NULLIF($8, ''), u.address_country),
			      address_zip = COALESCE(NULLIF($9, ''), u.address_zip),
			      updated_at = NOW()
			  WHERE u.id = $10 AND NOT u.is_deleted
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query,
		upd.FullName, upd.Phone, upd.Language, upd.ProfileImage,
		addr.Street, addr.City, addr.State, addr.Country, addr.Zip, userID))
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// ListHustlers возвращает страницу исполнителей вместе с их услугами.
func (s *Storage) ListHustlers(ctx context.Context, limit, offset int) ([]*models.Hustler, error) {
	const op = "storage.ListHustlers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users u
			  WHERE u.role = 'hustler' AND NOT u.is_deleted
			  ORDER BY u.created_at DESC, u.id
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	var res []*models.Hustler
	var ids []string
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, mapError(op, err)
		}
		res = append(res, &models.Hustler{User: *u, Services: []*models.HustlerService{}})
		ids = append(ids, u.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	if len(ids) == 0 {
		return res, nil
	}

	services, err := s.servicesByOwners(ctx, ids)
	if err != nil {
		return nil, mapError(op, err)
	}
	for _, h := range res {
		if list, ok := services[h.ID]; ok {
			h.Services = list
		}
	}
	return res, nil
}

// GetHustler возвращает исполнителя с его услугами.
func (s *Storage) GetHustler(ctx context.Context, id string) (*models.Hustler, error) {
	const op = "storage.GetHustler"

	u, err := s.GetUserByIDAndRole(ctx, id, models.RoleHustler)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	services, err := s.servicesByOwners(ctx, []string{id})
	if err != nil {
		return nil, mapError(op, err)
	}
	h := &models.Hustler{User: *u, Services: services[id]}
	if h.Services == nil {
		h.Services = []*models.HustlerService{}
	}
	return h, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execOne выполняет запрос и возвращает ErrNotFound, если не затронута ни одна строка.
func execOne(ctx context.Context, db execer, op, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return mapError(op, sql.ErrNoRows)
	}
	return nil
}
