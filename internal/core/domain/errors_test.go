package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "error without details",
			err:      NewDomainError("GK-TEST-1000", "test message"),
			expected: "[GK-TEST-1000] test message",
		},
		{
			name:     "error with details",
			err:      NewDomainError("GK-TEST-1001", "test message").WithDetails("extra info"),
			expected: "[GK-TEST-1001] test message: extra info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", ErrUnauthorized.WithDetails("bad password"))

	if !errors.Is(wrapped, ErrUnauthorized) {
		t.Error("errors.Is should match the same code through wrapping")
	}
	if errors.Is(wrapped, ErrNotConfigured) {
		t.Error("errors.Is should not match a different code")
	}
	if errors.Is(ErrUnauthorized, errors.New("Unauthorized")) {
		t.Error("errors.Is should not match a non-DomainError")
	}
}

func TestDomainError_CopiesAreIndependent(t *testing.T) {
	withField := ErrValidation.WithField("email", "Please enter a valid email.")
	second := withField.WithField("name", "Name must be at least 2 characters.")

	if ErrValidation.Fields != nil {
		t.Error("WithField should not modify the sentinel")
	}
	if len(withField.Fields) != 1 {
		t.Errorf("first copy has %d fields, want 1", len(withField.Fields))
	}
	if len(second.Fields) != 2 {
		t.Errorf("second copy has %d fields, want 2", len(second.Fields))
	}

	msg := ErrMissingArgument.WithMessage("Missing id")
	if ErrMissingArgument.Message != "Missing required fields" {
		t.Error("WithMessage should not modify the sentinel")
	}
	if msg.Message != "Missing id" {
		t.Errorf("Message = %q, want %q", msg.Message, "Missing id")
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := ErrMailProvider.WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if errors.Unwrap(ErrMailProvider) != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestGetErrorCode(t *testing.T) {
	if code := GetErrorCode(fmt.Errorf("x: %w", ErrAssetNotFound)); code != "GK-ASSET-4040" {
		t.Errorf("GetErrorCode() = %q, want GK-ASSET-4040", code)
	}
	if code := GetErrorCode(errors.New("plain")); code != "" {
		t.Errorf("GetErrorCode(plain) = %q, want empty", code)
	}
	if !IsDomainError(ErrInternal, "") {
		t.Error("IsDomainError(ErrInternal, \"\") should be true")
	}
	if IsDomainError(ErrInternal, "GK-SYS-5001") {
		t.Error("IsDomainError should compare codes")
	}
}
