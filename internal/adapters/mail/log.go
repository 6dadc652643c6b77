package mail

import (
	"context"

	"go.uber.org/zap"
)

// LogMailer writes outbound mails to the log instead of delivering them.
// Used in development and tests.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SendMagicLink(_ context.Context, email, link string) error {
	m.log.Info("magic link mail", zap.String("to", email), zap.String("link", link))
	return nil
}

func (m *LogMailer) SendInvitation(_ context.Context, email, link string) error {
	m.log.Info("invitation mail", zap.String("to", email), zap.String("link", link))
	return nil
}

func (m *LogMailer) SendPasswordReset(_ context.Context, email, link string) error {
	m.log.Info("password reset mail", zap.String("to", email), zap.String("link", link))
	return nil
}
