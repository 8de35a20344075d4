package service

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yndnr/gatekeep/internal/core/domain"
	"github.com/yndnr/gatekeep/pkg/token"
)

// Results reported to a GateObserver.
const (
	ResultOK           = "ok"
	ResultDenied       = "denied"
	ResultThrottled    = "throttled"
	ResultUnconfigured = "unconfigured"
	ResultMissing      = "missing"
	ResultMalformed    = "malformed"
	ResultSignature    = "signature"
	ResultExpired      = "expired"
)

// GateObserver receives login and verification outcomes, typically to feed
// metrics. Implementations must be safe for concurrent use.
type GateObserver interface {
	ObserveLogin(surface, result string)
	ObserveVerification(surface, result string)
}

type nopObserver struct{}

func (nopObserver) ObserveLogin(string, string)        {}
func (nopObserver) ObserveVerification(string, string) {}

// Session is a freshly issued session.
type Session struct {
	Token   string
	Payload token.Payload
	// MaxAge is the cookie Max-Age in seconds; it equals the surface TTL.
	MaxAge int
}

// GateService guards one surface with a password and a signed session
// cookie.
type GateService struct {
	surface  domain.Surface
	signer   *token.Signer // nil when no secret is configured
	limiter  *LimiterRegistry
	observer GateObserver
	now      func() time.Time
	wait     func(ctx context.Context, d time.Duration) error
}

// GateOption configures a GateService.
type GateOption func(*GateService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) GateOption {
	return func(s *GateService) {
		s.now = now
	}
}

// WithDelay overrides how the failure delay is waited out.
func WithDelay(wait func(ctx context.Context, d time.Duration) error) GateOption {
	return func(s *GateService) {
		s.wait = wait
	}
}

// WithObserver sets the outcome observer.
func WithObserver(o GateObserver) GateOption {
	return func(s *GateService) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewGateService creates a GateService for surface.
//
// A surface without a secret or password is accepted: every operation that
// needs the missing value fails with domain.ErrNotConfigured.
func NewGateService(surface domain.Surface, opts ...GateOption) (*GateService, error) {
	if err := surface.Validate(); err != nil {
		return nil, err
	}

	s := &GateService{
		surface:  surface,
		limiter:  NewLimiterRegistry(surface.LoginRate, surface.LoginBurst),
		observer: nopObserver{},
		now:      time.Now,
		wait:     sleepContext,
	}

	if surface.Secret != "" {
		signer, err := token.NewSigner([]byte(surface.Secret))
		if err != nil {
			return nil, err
		}
		s.signer = signer
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Surface returns the guarded surface's name.
func (s *GateService) Surface() string {
	return s.surface.Name
}

// CookieName returns the session cookie name.
func (s *GateService) CookieName() string {
	return s.surface.CookieName
}

// Configured reports whether both the password and the secret are set.
func (s *GateService) Configured() bool {
	return s.signer != nil && s.surface.HasPassword()
}

// Login checks candidate and, on a match, issues a new session.
//
// A wrong password is reported only after the surface failure delay.
func (s *GateService) Login(ctx context.Context, candidate, clientIP string) (*Session, error) {
	if s.signer == nil {
		s.observer.ObserveLogin(s.surface.Name, ResultUnconfigured)
		return nil, domain.ErrNotConfigured
	}
	if err := s.CheckPassword(ctx, candidate, clientIP); err != nil {
		return nil, err
	}
	return s.issue()
}

// CheckPassword verifies candidate without issuing a session. Only the
// password has to be configured.
func (s *GateService) CheckPassword(ctx context.Context, candidate, clientIP string) error {
	if !s.surface.HasPassword() {
		s.observer.ObserveLogin(s.surface.Name, ResultUnconfigured)
		return domain.ErrNotConfigured
	}

	if !s.limiter.Allow(clientIP) {
		s.observer.ObserveLogin(s.surface.Name, ResultThrottled)
		return domain.ErrTooManyAttempts
	}

	if !matchPassword(candidate, s.surface.Password) {
		// The delay result is ignored: the caller is told "unauthorized"
		// whether or not it stayed for the full wait.
		_ = s.wait(ctx, s.surface.FailureDelay)
		s.observer.ObserveLogin(s.surface.Name, ResultDenied)
		return domain.ErrUnauthorized
	}

	s.observer.ObserveLogin(s.surface.Name, ResultOK)
	return nil
}

func (s *GateService) issue() (*Session, error) {
	tok, payload, err := s.signer.Issue(s.surface.TTL, s.now())
	if err != nil {
		return nil, domain.ErrInternal.WithCause(err)
	}
	return &Session{
		Token:   tok,
		Payload: payload,
		MaxAge:  s.surface.MaxAge(),
	}, nil
}

// AuthorizeRequest verifies the session cookie carried by r.
func (s *GateService) AuthorizeRequest(r *http.Request) error {
	return s.AuthorizeCookie(strings.Join(r.Header.Values("Cookie"), "; "))
}

// AuthorizeCookie verifies the session cookie found in a raw Cookie header.
//
// It returns nil, domain.ErrUnauthorized or domain.ErrNotConfigured. It
// never modifies state.
func (s *GateService) AuthorizeCookie(header string) error {
	if s.signer == nil {
		s.observer.ObserveVerification(s.surface.Name, ResultUnconfigured)
		return domain.ErrNotConfigured
	}

	value := ReadCookie(header, s.surface.CookieName)
	if value == "" {
		s.observer.ObserveVerification(s.surface.Name, ResultMissing)
		return domain.ErrUnauthorized
	}

	if _, err := s.signer.Verify(value, s.now()); err != nil {
		s.observer.ObserveVerification(s.surface.Name, verificationResult(err))
		return domain.ErrUnauthorized.WithCause(err)
	}

	s.observer.ObserveVerification(s.surface.Name, ResultOK)
	return nil
}

// Authorized is the boolean form of AuthorizeCookie. An unconfigured surface
// is never authorized.
func (s *GateService) Authorized(header string) bool {
	return s.AuthorizeCookie(header) == nil
}

// SessionCookie returns the Set-Cookie value for sess.
func (s *GateService) SessionCookie(sess *Session) *http.Cookie {
	return &http.Cookie{
		Name:     s.surface.CookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   sess.MaxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: sameSiteMode(s.surface.SameSite),
	}
}

// ClearCookie returns a cookie that overwrites the session with an empty,
// already expired value.
func (s *GateService) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     s.surface.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // serialized as Max-Age=0
		HttpOnly: true,
		Secure:   true,
		SameSite: sameSiteMode(s.surface.SameSite),
	}
}

// ReadCookie returns the URL-decoded value of the first cookie called name
// in a raw Cookie header, or "" when absent or undecodable.
func ReadCookie(header, name string) string {
	prefix := name + "="
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if !strings.HasPrefix(part, prefix) {
			continue
		}
		value, err := url.PathUnescape(part[len(prefix):])
		if err != nil {
			return ""
		}
		return value
	}
	return ""
}

func verificationResult(err error) string {
	switch {
	case errors.Is(err, token.ErrExpired):
		return ResultExpired
	case errors.Is(err, token.ErrSignature):
		return ResultSignature
	default:
		return ResultMalformed
	}
}

func sameSiteMode(v string) http.SameSite {
	if v == domain.SameSiteStrict {
		return http.SameSiteStrictMode
	}
	return http.SameSiteLaxMode
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
