package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	customErrors "github.com/harborworks/teamhq/auth-service/internal/domain/auth/errors"
	"github.com/harborworks/teamhq/auth-service/internal/infra/config"
)

// SMTPMailer delivers the three transactional mails over plain SMTP with
// AUTH PLAIN. Delivery is synchronous; there is no retry here.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	var auth smtp.Auth
	if cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		auth: auth,
		from: cfg.SMTPFrom,
	}
}

func (m *SMTPMailer) SendMagicLink(ctx context.Context, email, link string) error {
	return m.send(ctx, email, "Your sign-in link",
		"Click the link below to sign in. It expires in a few minutes.\r\n\r\n"+link)
}

func (m *SMTPMailer) SendInvitation(ctx context.Context, email, link string) error {
	return m.send(ctx, email, "You have been invited",
		"You have been invited to join a team. Follow the link to create your account.\r\n\r\n"+link)
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, email, link string) error {
	return m.send(ctx, email, "Reset your password",
		"Follow the link below to choose a new password.\r\n\r\n"+link)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)
	msg.WriteString("\r\n")

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg.String())); err != nil {
		return customErrors.WrapInternal(err, "send mail")
	}
	return nil
}
