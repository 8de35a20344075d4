package logger

import (
	"log/slog"
	"strings"

	"github.com/yndnr/gatekeep/pkg/token"
)

// Values with these prefixes are partially masked whatever their key.
var sensitiveValuePrefixes = []string{
	"re_", // Resend API key
}

// Keys containing any of these are redacted when their value is non-empty.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"key",
	"credential",
	"auth",
	"bearer",
	"cookie",
}

const (
	redactedValue = "***REDACTED***"
	argon2Prefix  = "$argon2id$"
)

// signatureLength is the encoded length of an HMAC-SHA256 signature.
const signatureLength = 43

func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		v := a.Value.String()
		if masked, ok := maskKnown(v); ok {
			return slog.String(a.Key, masked)
		}
		if v != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// maskKnown masks values recognised by their shape.
func maskKnown(v string) (string, bool) {
	if strings.HasPrefix(v, argon2Prefix) {
		return argon2Prefix + "***", true
	}
	for _, prefix := range sensitiveValuePrefixes {
		if strings.HasPrefix(v, prefix) {
			return maskValue(v, prefix), true
		}
	}
	if looksLikeSessionToken(v) {
		return "token:" + token.Fingerprint(v), true
	}
	return "", false
}

// looksLikeSessionToken matches "<payload>.<signature>" with both segments
// in unpadded base64url.
func looksLikeSessionToken(v string) bool {
	payload, sig, ok := strings.Cut(v, ".")
	if !ok || payload == "" || len(sig) != signatureLength {
		return false
	}
	return isBase64URL(payload) && isBase64URL(sig)
}

func isBase64URL(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// maskValue keeps the prefix plus three characters from each end.
func maskValue(value, prefix string) string {
	body := value[len(prefix):]
	if len(body) <= 6 {
		return prefix + "***"
	}
	return prefix + body[:3] + "..." + body[len(body)-3:]
}

// RedactString masks value if it is a known secret format and returns it
// unchanged otherwise.
func RedactString(value string) string {
	if masked, ok := maskKnown(value); ok {
		return masked
	}
	return value
}

// IsSensitiveKey reports whether a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue reports whether a value has a known secret format.
func IsSensitiveValue(value string) bool {
	_, ok := maskKnown(value)
	return ok
}
