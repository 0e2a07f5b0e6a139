package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gopkg.in/mail.v2"
)

const defaultSMTPTimeout = 10 * time.Second

type smtpClient struct {
	config Config
}

// NewSMTPClient creates an SMTP-backed email sender.
func NewSMTPClient(cfg Config) (EmailSender, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("%w: SMTPHost is required", ErrInvalidConfig)
	}
	if cfg.SMTPPort <= 0 {
		return nil, fmt.Errorf("%w: SMTPPort must be positive", ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" || !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	return &smtpClient{config: cfg}, nil
}

// SendEmail dials the server for every message; the dial timeout follows
// the context deadline when one is set.
func (c *smtpClient) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}

	m := mail.NewMessage()
	m.SetHeader("From", c.config.SenderEmail)
	m.SetHeader("To", params.SendTo)
	if c.config.SupportEmail != "" {
		m.SetHeader("Reply-To", c.config.SupportEmail)
	}
	m.SetHeader("Subject", params.Subject)
	if params.Tag != "" {
		m.SetHeader("X-Tag", params.Tag)
	}
	m.SetBody("text/html", params.BodyHTML)

	d := mail.NewDialer(c.config.SMTPHost, c.config.SMTPPort, c.config.SMTPUser, c.config.SMTPPassword)
	d.Timeout = defaultSMTPTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left > 0 {
			d.Timeout = left
		}
	}

	if err := d.DialAndSend(m); err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	return nil
}
