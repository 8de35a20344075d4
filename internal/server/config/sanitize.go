package config

import "strings"

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	// Create a shallow copy
	sanitized := *cfg

	sanitized.Gate.Nordlys = sanitizeSurface(cfg.Gate.Nordlys)
	sanitized.Gate.Vault = sanitizeSurface(cfg.Gate.Vault)

	sanitized.Contact.APIKey = maskSecret(cfg.Contact.APIKey)
	sanitized.Contact.SMTPPassword = maskSecret(cfg.Contact.SMTPPassword)
	sanitized.Contact.To = append([]string(nil), cfg.Contact.To...)

	return &sanitized
}

func sanitizeSurface(s SurfaceConfig) SurfaceConfig {
	s.Password = maskSecret(s.Password)
	s.Secret = maskSecret(s.Secret)
	return s
}

// maskSecret masks a secret value for safe logging. Empty stays empty so
// an unset secret is still visible as such.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
