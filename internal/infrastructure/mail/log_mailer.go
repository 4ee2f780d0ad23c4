package mail

import (
	"context"

	"github.com/rs/zerolog"
)

// LogMailer writes the lifecycle emails to the log instead of delivering
// them. Used in development when no Mailtrap token is configured.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendVerification(_ context.Context, email, code string) error {
	m.log.Info().Str("email", email).Str("code", code).Msg("verification mail (dev)")
	return nil
}

func (m *LogMailer) SendWelcome(_ context.Context, email, name string) error {
	m.log.Info().Str("email", email).Str("name", name).Msg("welcome mail (dev)")
	return nil
}

func (m *LogMailer) SendPasswordReset(_ context.Context, email, resetURL string) error {
	m.log.Info().Str("email", email).Str("url", resetURL).Msg("password reset mail (dev)")
	return nil
}

func (m *LogMailer) SendResetSuccess(_ context.Context, email string) error {
	m.log.Info().Str("email", email).Msg("reset success mail (dev)")
	return nil
}
