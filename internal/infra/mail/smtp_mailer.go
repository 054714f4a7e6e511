package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/pkg/errors"

	"procura/config"
	"procura/internal/domain/service"
)

// smtpMailer implements Mailer over a plain SMTP relay. Only the worker
// process constructs one.
type smtpMailer struct {
	cfg    config.SMTPConfig
	logger *slog.Logger
}

// NewSMTPMailer creates the Mailer used by the worker to deliver emails.
func NewSMTPMailer(cfg *config.Config, logger *slog.Logger) (service.Mailer, error) {
	if cfg.Mail == nil || cfg.Mail.SMTP.Host == "" {
		return nil, errors.New("smtp host must be configured for the mail worker")
	}

	return &smtpMailer{cfg: cfg.Mail.SMTP, logger: logger}, nil
}

// SendVerificationEmail delivers the email-verification message.
func (m *smtpMailer) SendVerificationEmail(ctx context.Context, recipient, token string) error {
	link := fmt.Sprintf("%s/verify-email?token=%s", strings.TrimRight(m.cfg.PortalBaseURL, "/"), token)
	body := fmt.Sprintf("請點擊以下連結完成信箱驗證（24 小時內有效）：\r\n%s\r\n", link)

	return m.send(ctx, recipient, "信箱驗證", body)
}

// SendPasswordResetEmail delivers the password-reset message.
func (m *smtpMailer) SendPasswordResetEmail(ctx context.Context, recipient, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(m.cfg.PortalBaseURL, "/"), token)
	body := fmt.Sprintf("請點擊以下連結重設密碼，若非本人操作請忽略此信：\r\n%s\r\n", link)

	return m.send(ctx, recipient, "重設密碼", body)
}

func (m *smtpMailer) send(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + recipient,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		body,
	}, "\r\n")

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{recipient}, []byte(msg)); err != nil {
		return errors.Wrap(err, "failed to send email")
	}

	m.logger.Info("email delivered",
		slog.String("recipient", recipient),
		slog.String("subject", subject),
	)

	return nil
}
