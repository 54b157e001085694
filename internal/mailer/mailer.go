package mailer

import (
	"fmt"
	"log"

	"routemeet/backend/internal/config"

	gomail "gopkg.in/gomail.v2"
)

// Sender delivers transactional email.
type Sender interface {
	Send(to, subject, body string) error
}

// SMTPSender sends mail through the configured SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// LogSender logs instead of sending. Used when SMTP is not configured, so
// development environments still see the codes they would have mailed.
type LogSender struct{}

func (LogSender) Send(to, subject, body string) error {
	log.Printf("mailer (simulated): to=%s subject=%q body=%q", to, subject, body)
	return nil
}

// New picks the SMTP sender when the config carries SMTP settings and the
// simulated sender otherwise.
func New(cfg *config.Config) Sender {
	if cfg.MailHost == "" || cfg.MailUsername == "" || cfg.MailPassword == "" || cfg.MailFrom == "" {
		log.Println("Warning: SMTP not configured, emails will be logged instead of sent")
		return LogSender{}
	}
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.MailHost, cfg.MailPort, cfg.MailUsername, cfg.MailPassword),
		from:   cfg.MailFrom,
	}
}

func (s *SMTPSender) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to, err)
	}
	return nil
}
