package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/mail"
	"net/url"

	"github.com/dajohi/goemail"

	"github.com/yndnr/gatekeep/internal/core/domain"
)

// SMTPConfig configures an SMTPMailer.
type SMTPConfig struct {
	// Host is host[:port] of an implicit-TLS (smtps) server.
	Host     string
	User     string
	Password string
	// From is the sender address, optionally with a display name
	// ("Portfolio <me@example.com>").
	From string
	// TLSConfig overrides the TLS client configuration.
	TLSConfig *tls.Config
}

// SMTPMailer sends email over SMTP.
//
// Recipients are added as BCC so addresses are never disclosed to each
// other.
type SMTPMailer struct {
	client  *goemail.SMTP
	name    string
	address string
}

// NewSMTPMailer creates an SMTPMailer.
func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}

	from, err := mail.ParseAddress(cfg.From)
	if err != nil {
		return nil, fmt.Errorf("parse from address: %w", err)
	}

	u := &url.URL{
		Scheme: "smtps",
		Host:   cfg.Host,
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}

	tlsConfig := cfg.TLSConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client, err := goemail.NewSMTP(u.String(), tlsConfig)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPMailer{
		client:  client,
		name:    from.Name,
		address: from.Address,
	}, nil
}

// Send implements service.Mailer. The message is sent as plain text.
//
// The SMTP client has no context support; ctx is only checked before the
// send starts.
func (m *SMTPMailer) Send(ctx context.Context, email *domain.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(email.To) == 0 {
		return errors.New("no recipients")
	}

	msg := goemail.NewMessage(m.address, email.Subject, email.Text)
	if m.name != "" {
		msg.SetName(m.name)
	}
	for _, to := range email.To {
		msg.AddBCC(to)
	}

	if err := m.client.Send(msg); err != nil {
		return domain.ErrMailProvider.WithDetails(err.Error()).WithCause(err)
	}
	return nil
}
