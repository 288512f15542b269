package services

import (
	"context"
	"errors"
	"time"

	"github.com/wneessen/go-mail"
)

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Subject  string
	Timeout  time.Duration
}

// EmailService delivers plain-text notifications over SMTP.
type EmailService struct {
	cfg EmailConfig
}

// NewEmailService constructs an EmailService.
func NewEmailService(cfg EmailConfig) *EmailService {
	if cfg.Subject == "" {
		cfg.Subject = "Account notification"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultExternalTimeout
	}
	return &EmailService{cfg: cfg}
}

// Send delivers message to the email address.
func (s *EmailService) Send(ctx context.Context, address, message string) error {
	if s.cfg.Host == "" {
		return errors.New("smtp is not configured")
	}

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return err
	}
	if err := msg.To(address); err != nil {
		return err
	}
	msg.Subject(s.cfg.Subject)
	msg.SetBodyString(mail.TypeTextPlain, message)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(s.cfg.Timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return err
	}

	return client.DialAndSendWithContext(ctx, msg)
}
