package domain

import (
	"strings"
	"time"
)

// SameSite values accepted by Surface.
const (
	SameSiteLax    = "Lax"
	SameSiteStrict = "Strict"
)

// Well-known surface names.
const (
	SurfaceNordlys = "nordlys"
	SurfaceVault   = "vault"
)

// Default session lifetimes.
const (
	DefaultLoginTTL = 24 * time.Hour
	DefaultVaultTTL = 7 * 24 * time.Hour

	// MinVaultTTL is the smallest vault TTL override that is honored.
	MinVaultTTL = 60 * time.Second
)

// Default artificial delays applied after a failed password check.
const (
	DefaultLoginFailureDelay = 300 * time.Millisecond
	DefaultVaultFailureDelay = 250 * time.Millisecond
)

// Surface is one password-gated area. Every surface has its own cookie name
// and its own HMAC secret.
type Surface struct {
	Name       string
	CookieName string
	SameSite   string
	TTL        time.Duration

	// Password is the expected password, either plaintext or an argon2id
	// PHC string ("$argon2id$...").
	Password string

	// Secret is the HMAC signing key for session tokens.
	Secret string

	// FailureDelay is waited before reporting a wrong password.
	FailureDelay time.Duration

	// LoginRate is the steady-state number of failed attempts allowed per
	// client IP per second. Zero disables throttling.
	LoginRate  float64
	LoginBurst int
}

// NordlysSurface returns the login-flow surface defaults.
func NordlysSurface() Surface {
	return Surface{
		Name:         SurfaceNordlys,
		CookieName:   "nla",
		SameSite:     SameSiteLax,
		TTL:          DefaultLoginTTL,
		FailureDelay: DefaultLoginFailureDelay,
	}
}

// VaultSurface returns the vault surface defaults.
//
// The __Host- prefix requires Secure, Path=/ and no Domain attribute.
func VaultSurface() Surface {
	return Surface{
		Name:         SurfaceVault,
		CookieName:   "__Host-vault",
		SameSite:     SameSiteStrict,
		TTL:          DefaultVaultTTL,
		FailureDelay: DefaultVaultFailureDelay,
	}
}

// HasPassword reports whether a password is configured.
func (s Surface) HasPassword() bool {
	return s.Password != ""
}

// Configured reports whether the surface can issue and verify sessions.
func (s Surface) Configured() bool {
	return s.Password != "" && s.Secret != ""
}

// MaxAge returns the cookie Max-Age in whole seconds.
func (s Surface) MaxAge() int {
	return int(s.TTL / time.Second)
}

// Validate checks the static shape of a surface. Missing credentials are not
// an error here: such surfaces fail closed at request time.
func (s Surface) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrValidation.WithDetails("surface name is required")
	}
	if s.CookieName == "" || strings.ContainsAny(s.CookieName, " ;=,\t\r\n") {
		return ErrValidation.WithDetails("surface " + s.Name + ": invalid cookie name")
	}
	if s.SameSite != SameSiteLax && s.SameSite != SameSiteStrict {
		return ErrValidation.WithDetails("surface " + s.Name + ": same_site must be Lax or Strict")
	}
	if s.TTL < time.Second {
		return ErrValidation.WithDetails("surface " + s.Name + ": ttl must be at least 1s")
	}
	if s.FailureDelay < 0 {
		return ErrValidation.WithDetails("surface " + s.Name + ": failure_delay must not be negative")
	}
	if s.LoginRate < 0 || s.LoginBurst < 0 {
		return ErrValidation.WithDetails("surface " + s.Name + ": login rate must not be negative")
	}
	return nil
}
