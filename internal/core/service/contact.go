package service

import (
	"bytes"
	"context"
	"html/template"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/gatekeep/internal/core/domain"
)

// Mailer delivers outbound email.
type Mailer interface {
	Send(ctx context.Context, email *domain.Email) error
}

// ContactArchive stores accepted contact messages.
type ContactArchive interface {
	Put(ctx context.Context, rec *domain.ContactRecord) error
}

// ContactObserver receives contact submission outcomes.
type ContactObserver interface {
	ObserveContact(result string)
}

// Contact submission results.
const (
	ContactResultSent     = "sent"
	ContactResultInvalid  = "invalid"
	ContactResultFailed   = "failed"
	ContactResultDisabled = "unconfigured"
)

// headerSafe keeps user input from breaking out of a mail header.
var headerSafe = strings.NewReplacer("\r", " ", "\n", " ")

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var contactTemplate = template.Must(template.New("contact").Parse(`
<div style="font-family: system-ui, -apple-system, Segoe UI, Roboto, Helvetica, Arial, sans-serif; line-height: 1.6;">
  <h2 style="margin: 0 0 8px;">New message</h2>
  <p style="margin: 0 0 8px;"><strong>From:</strong> {{.Name}} &lt;{{.Email}}&gt;</p>
  <p style="white-space: pre-wrap; margin: 16px 0 0;">{{.Message}}</p>
</div>
`))

// ContactServiceConfig holds configuration for ContactService.
type ContactServiceConfig struct {
	From string
	To   []string
}

// Receipt describes an accepted contact message.
type Receipt struct {
	ID string
	// ArchiveErr is set when the message was delivered but could not be
	// archived.
	ArchiveErr error
}

// ContactService validates contact form messages and forwards them by
// email.
type ContactService struct {
	config   ContactServiceConfig
	mailer   Mailer
	archive  ContactArchive
	observer ContactObserver
	now      func() time.Time
}

// ContactOption configures a ContactService.
type ContactOption func(*ContactService)

// WithArchive stores every delivery attempt in a.
func WithArchive(a ContactArchive) ContactOption {
	return func(s *ContactService) {
		s.archive = a
	}
}

// WithContactObserver sets the outcome observer.
func WithContactObserver(o ContactObserver) ContactOption {
	return func(s *ContactService) {
		s.observer = o
	}
}

// WithContactClock overrides the time source.
func WithContactClock(now func() time.Time) ContactOption {
	return func(s *ContactService) {
		s.now = now
	}
}

// NewContactService creates a ContactService. A nil mailer or an empty
// recipient list leaves the service unconfigured.
func NewContactService(config ContactServiceConfig, mailer Mailer, opts ...ContactOption) *ContactService {
	s := &ContactService{
		config: config,
		mailer: mailer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports whether messages can be delivered.
func (s *ContactService) Configured() bool {
	return s.mailer != nil && len(s.config.To) > 0 && s.config.From != ""
}

// ValidateContact checks a message and returns it normalized.
func ValidateContact(msg domain.ContactMessage) (domain.ContactMessage, error) {
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		return msg, domain.ErrMissingArgument
	}

	msg.Email = strings.TrimSpace(msg.Email)
	if !emailPattern.MatchString(msg.Email) {
		return msg, domain.ErrValidation.
			WithMessage("Invalid email").
			WithField("email", "Please enter a valid email.")
	}
	if utf8.RuneCountInString(strings.TrimSpace(msg.Name)) < domain.MinContactNameLength {
		return msg, domain.ErrValidation.
			WithMessage("Invalid name").
			WithField("name", "Name must be at least 2 characters.")
	}
	if utf8.RuneCountInString(strings.TrimSpace(msg.Message)) < domain.MinContactMessageLength {
		return msg, domain.ErrValidation.
			WithMessage("Message too short").
			WithField("message", "Message must be at least 10 characters.")
	}
	return msg, nil
}

// Submit validates msg and emails it to the configured recipients.
func (s *ContactService) Submit(ctx context.Context, msg domain.ContactMessage, clientIP string) (*Receipt, error) {
	msg, err := ValidateContact(msg)
	if err != nil {
		s.observe(ContactResultInvalid)
		return nil, err
	}

	if !s.Configured() {
		s.observe(ContactResultDisabled)
		return nil, domain.ErrNotConfigured
	}

	email, err := s.render(msg)
	if err != nil {
		s.observe(ContactResultFailed)
		return nil, domain.ErrInternal.WithCause(err)
	}

	now := s.now()
	rec := &domain.ContactRecord{
		ID:         ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Message:    msg,
		ReceivedAt: now.UTC(),
		Delivery:   domain.DeliverySent,
		ClientIP:   clientIP,
	}

	sendErr := s.mailer.Send(ctx, email)
	if sendErr != nil {
		rec.Delivery = domain.DeliveryFailed
	}

	var archiveErr error
	if s.archive != nil {
		archiveErr = s.archive.Put(ctx, rec)
	}

	if sendErr != nil {
		s.observe(ContactResultFailed)
		if domain.IsDomainError(sendErr, "") {
			return nil, sendErr
		}
		return nil, domain.ErrInternal.WithCause(sendErr)
	}

	s.observe(ContactResultSent)
	return &Receipt{ID: rec.ID, ArchiveErr: archiveErr}, nil
}

func (s *ContactService) render(msg domain.ContactMessage) (*domain.Email, error) {
	var buf bytes.Buffer
	if err := contactTemplate.Execute(&buf, msg); err != nil {
		return nil, err
	}

	text := "From: " + msg.Name + " <" + msg.Email + ">\n\n" + msg.Message
	return &domain.Email{
		From:    s.config.From,
		To:      s.config.To,
		Subject: "New portfolio message from " + headerSafe.Replace(msg.Name),
		HTML:    buf.String(),
		Text:    text,
	}, nil
}

func (s *ContactService) observe(result string) {
	if s.observer != nil {
		s.observer.ObserveContact(result)
	}
}
