package mailer

import (
	"context"
	"net"
	"net/smtp"
	"strconv"

	"github.com/jordan-wright/email"

	"contact-form-service-go/internal/config"
)

// SMTPTransport delivers mail over plain SMTP or SMTP with TLS
type SMTPTransport struct {
	addr string
	auth smtp.Auth
	ssl  bool
}

// NewSMTPTransport creates an SMTP transport from configuration
func NewSMTPTransport(cfg config.SMTPConfig) *SMTPTransport {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return &SMTPTransport{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		auth: auth,
		ssl:  cfg.SSL,
	}
}

func (t *SMTPTransport) Send(ctx context.Context, e *email.Email) error {
	if t.ssl {
		return e.SendWithTLS(t.addr, t.auth, nil)
	}
	return e.Send(t.addr, t.auth)
}
