package mailer

import (
	"errors"
	"strings"

	gomail "gopkg.in/gomail.v2"

	"github.com/meghshyam-labs/vyapar-backend/pkg/config"
)

// Sender delivers one rendered message. Implementations must be safe for
// concurrent use; the SMTP sender dials per call instead of sharing a
// module-level connection.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// SMTPSender sends mail through a configured SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender validates the relay configuration and returns a sender.
func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("smtp host is required")
	}
	if cfg.Port <= 0 {
		return nil, errors.New("smtp port must be positive")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("smtp from address is required")
	}
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}, nil
}

// Send dials the relay and delivers a single message.
func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	if strings.TrimSpace(to) == "" {
		return errors.New("recipient is required")
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)
	return s.dialer.DialAndSend(m)
}
