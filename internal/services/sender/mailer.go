package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v3"
)

// Email письмо, готовое к отправке.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// EmailsAPI часть клиента Resend, отправляющая письма.
type EmailsAPI interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendMailer отправляет письма через Resend.
type ResendMailer struct {
	emails EmailsAPI
	from   string
	log    *slog.Logger
}

// NewResendMailer создаёт ResendMailer поверх клиента с ключом apiKey.
func NewResendMailer(apiKey, from string, log *slog.Logger) *ResendMailer {
	return NewResendMailerWithAPI(resend.NewClient(apiKey).Emails, from, log)
}

// NewResendMailerWithAPI создаёт ResendMailer поверх готового EmailsAPI.
func NewResendMailerWithAPI(emails EmailsAPI, from string, log *slog.Logger) *ResendMailer {
	return &ResendMailer{emails: emails, from: from, log: log}
}

// Send отправляет письмо.
func (m *ResendMailer) Send(ctx context.Context, email Email) error {
	const op = "sender.ResendMailer.Send"
	sent, err := m.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{email.To},
		Subject: email.Subject,
		Html:    email.HTML,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	m.log.Debug("email sent via resend", slog.String("to", email.To), slog.String("id", sent.Id))
	return nil
}

// LogMailer пишет письма в журнал вместо отправки. Используется, когда ключ Resend не задан.
type LogMailer struct {
	log *slog.Logger
}

// NewLogMailer создаёт LogMailer.
func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// Send логирует письмо.
func (m *LogMailer) Send(_ context.Context, email Email) error {
	m.log.Info("email not sent, mail provider is not configured",
		slog.String("to", email.To),
		slog.String("subject", email.Subject),
		slog.Int("html_bytes", len(email.HTML)),
	)
	return nil
}
