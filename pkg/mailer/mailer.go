package mailer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Config contains credentials for transactional email delivery.
type Config struct {
	APIKey    string
	FromName  string
	FromEmail string
	ResetURL  string
}

// Service delivers transactional email via SendGrid. When no API key is
// configured it logs the message instead, which keeps local development
// working without credentials.
type Service struct {
	key      string
	from     *sgmail.Email
	resetURL string
	logger   zerolog.Logger
}

// New constructs a mailer.
func New(cfg Config, logger zerolog.Logger) *Service {
	return &Service{
		key:      cfg.APIKey,
		from:     sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
		resetURL: cfg.ResetURL,
		logger:   logger.With().Str("component", "mailer").Logger(),
	}
}

// SendWelcome greets a freshly registered account.
func (s *Service) SendWelcome(ctx context.Context, to, name string) error {
	subject := "Welcome to EduTrack"
	text := fmt.Sprintf("Hi %s,\n\nYour EduTrack account has been created.\n", name)
	html := fmt.Sprintf("<p>Hi %s,</p><p>Your EduTrack account has been created.</p>", name)

	return s.send(ctx, to, name, subject, text, html)
}

// SendPasswordReset delivers a reset link carrying the one-time token.
func (s *Service) SendPasswordReset(ctx context.Context, to, name, token string) error {
	link := s.resetURL + "?token=" + token
	subject := "Reset your EduTrack password"
	text := fmt.Sprintf("Hi %s,\n\nReset your password here: %s\n\nThe link expires in 30 minutes.\n", name, link)
	html := fmt.Sprintf("<p>Hi %s,</p><p><a href=%q>Reset your password</a>. The link expires in 30 minutes.</p>", name, link)

	return s.send(ctx, to, name, subject, text, html)
}

func (s *Service) send(ctx context.Context, to, name, subject, text, html string) error {
	if s.key == "" {
		s.logger.Info().Str("to", to).Str("subject", subject).Msg("email delivery skipped, no api key configured")
		return nil
	}

	message := sgmail.NewSingleEmail(s.from, subject, sgmail.NewEmail(name, to), text, html)

	client := sendgrid.NewSendClient(s.key)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("email delivery rejected with status %d", response.StatusCode)
	}

	s.logger.Debug().Str("to", to).Str("subject", subject).Msg("email sent")

	return nil
}
