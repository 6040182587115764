// Package services реализует обращения пользователей в поддержку.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/hustler-sync/internal/apperr"
	"github.com/magabrotheeeer/hustler-sync/internal/models"
)

// Repository методы хранилища для обращений.
type Repository interface {
	CreateSupportMessage(ctx context.Context, msg models.SupportMessage) (*models.SupportMessage, error)
	ListSupportMessages(ctx context.Context, userID string) ([]*models.SupportMessage, error)
	GetSupportMessage(ctx context.Context, id, userID string) (*models.SupportMessage, error)
}

// SupportService сервис обращений в поддержку.
type SupportService struct {
	repo Repository
	log  *slog.Logger
}

// NewSupportService создаёт новый экземпляр SupportService.
func NewSupportService(repo Repository, log *slog.Logger) *SupportService {
	return &SupportService{
		repo: repo,
		log:  log,
	}
}

// Send сохраняет обращение пользователя userID со статусом open.
func (s *SupportService) Send(ctx context.Context, userID, subject, message, image string) (*models.SupportMessage, error) {
	const op = "support.Send"
	subject = strings.TrimSpace(subject)
	message = strings.TrimSpace(message)
	if subject == "" || message == "" {
		return nil, fmt.Errorf("%s: subject and message are required: %w", op, apperr.ErrValidation)
	}

	msg, err := s.repo.CreateSupportMessage(ctx, models.SupportMessage{
		UserID:  userID,
		Subject: subject,
		Message: message,
		Image:   image,
		Status:  models.SupportOpen,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return msg, nil
}

// List возвращает обращения пользователя, новые первыми.
func (s *SupportService) List(ctx context.Context, userID string) ([]*models.SupportMessage, error) {
	const op = "support.List"
	messages, err := s.repo.ListSupportMessages(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return messages, nil
}

// Get возвращает обращение пользователя по id.
func (s *SupportService) Get(ctx context.Context, id, userID string) (*models.SupportMessage, error) {
	const op = "support.Get"
	msg, err := s.repo.GetSupportMessage(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return msg, nil
}
