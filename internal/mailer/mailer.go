// Package mailer sends the transactional emails of the admin back office.
package mailer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"couponhub/internal/config"
)

// Mailer delivers password reset links. expiresIn is how long the link
// stays valid.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetURL string, expiresIn time.Duration) error
}

// New returns an SMTP mailer, or a log-only mailer when no SMTP host is
// configured.
func New(cfg config.SMTPConfig, logger *zap.Logger) Mailer {
	if cfg.Host == "" {
		return NewLogMailer(logger)
	}
	return NewSMTPMailer(cfg)
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   from,
	}
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, resetURL string, expiresIn time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Password reset request")
	msg.SetBody("text/plain", resetText(resetURL, expiresIn))
	msg.AddAlternative("text/html", resetHTML(resetURL, expiresIn))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send password reset email to %s: %w", to, err)
	}
	return nil
}

// LogMailer writes the reset link to the log instead of sending it.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendPasswordReset(_ context.Context, to, resetURL string, expiresIn time.Duration) error {
	m.logger.Info("password reset requested (SMTP disabled)",
		zap.String("to", to),
		zap.String("reset_url", resetURL),
		zap.Duration("expires_in", expiresIn))
	return nil
}

func resetText(resetURL string, expiresIn time.Duration) string {
	return "You requested a password reset for your admin account.\n\n" +
		"Open the following link within " + humanDuration(expiresIn) + " to choose a new password:\n" +
		resetURL + "\n\nIf you did not request this, ignore this email."
}

func resetHTML(resetURL string, expiresIn time.Duration) string {
	return fmt.Sprintf(`<p>You requested a password reset for your admin account.</p>
<p><a href="%s">Choose a new password</a>. The link expires in %s.</p>
<p>If you did not request this, ignore this email.</p>`, resetURL, humanDuration(expiresIn))
}

// humanDuration renders whole hours or minutes in words and falls back to
// Duration.String otherwise.
func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
