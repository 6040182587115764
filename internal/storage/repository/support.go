package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/hustler-sync/internal/models"
)

const supportColumns = `id, user_id, subject, message, image, admin_reply_text, admin_replied_at, status, created_at`

func scanSupport(row rowScanner) (*models.SupportMessage, error) {
	m := &models.SupportMessage{}
	var repliedAt sql.NullTime
	if err := row.Scan(&m.ID, &m.UserID, &m.Subject, &m.Message, &m.Image,
		&m.AdminReply.Text, &repliedAt, &m.Status, &m.CreatedAt); err != nil {
		return nil, err
	}
	if repliedAt.Valid {
		m.AdminReply.RepliedAt = &repliedAt.Time
	}
	return m, nil
}

// CreateSupportMessage сохраняет обращение со статусом open.
func (s *Storage) CreateSupportMessage(ctx context.Context, msg models.SupportMessage) (*models.SupportMessage, error) {
	const op = "storage.CreateSupportMessage"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO support_messages (user_id, subject, message, image)
			  VALUES ($1, $2, $3, $4)
			  RETURNING ` + supportColumns
	res, err := scanSupport(s.DB.QueryRowContext(ctx, query, msg.UserID, msg.Subject, msg.Message, msg.Image))
	if err != nil {
		return nil, mapError(op, err)
	}
	return res, nil
}

// ListSupportMessages возвращает неудалённые обращения пользователя от новых к старым.
func (s *Storage) ListSupportMessages(ctx context.Context, userID string) ([]*models.SupportMessage, error) {
	const op = "storage.ListSupportMessages"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+supportColumns+` FROM support_messages
		WHERE user_id = $1 AND NOT is_deleted ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer rows.Close()

	res := []*models.SupportMessage{}
	for rows.Next() {
		m, err := scanSupport(rows)
		if err != nil {
			return nil, mapError(op, err)
		}
		res = append(res, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return res, nil
}

// GetSupportMessage возвращает обращение по ID, только если оно принадлежит userID.
func (s *Storage) GetSupportMessage(ctx context.Context, id, userID string) (*models.SupportMessage, error) {
	const op = "storage.GetSupportMessage"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	m, err := scanSupport(s.DB.QueryRowContext(ctx, `SELECT `+supportColumns+` FROM support_messages
		WHERE id = $1 AND user_id = $2 AND NOT is_deleted`, id, userID))
	if err != nil {
		return nil, mapError(op, err)
	}
	return m, nil
}
