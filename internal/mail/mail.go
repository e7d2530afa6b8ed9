package mail

// Package mail sends the workflow's notification emails. Delivery itself is
// an external collaborator; the service layer only depends on the Mailer
// interface, so tests swap in a mock and deployments without SMTP get the
// noop implementation.

import (
	"context"
	"fmt"
	"net/smtp"

	"signapi/internal/config"
)

// Message is a single outbound email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// smtpMailer delivers via plain SMTP.
type smtpMailer struct {
	cfg config.SMTPConfig
}

// NewSMTP builds a Mailer from SMTP settings. When no host is configured a
// noop mailer is returned so local development works without a mail server.
func NewSMTP(cfg config.SMTPConfig) Mailer {
	if cfg.Host == "" {
		return noopMailer{}
	}
	return &smtpMailer{cfg: cfg}
}

func (m *smtpMailer) Send(_ context.Context, msg Message) error {
	addr := m.cfg.Host + ":" + m.cfg.Port

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	body := fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s <%s>\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		m.cfg.FromName, m.cfg.FromAddress, msg.ToName, msg.To, msg.Subject, msg.Body,
	)

	if err := smtp.SendMail(addr, auth, m.cfg.FromAddress, []string{msg.To}, []byte(body)); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// noopMailer drops messages. Used when SMTP is not configured.
type noopMailer struct{}

func (noopMailer) Send(context.Context, Message) error { return nil }
