package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

var testNow = time.Unix(1_700_000_000, 0)

func newTestSigner(t *testing.T, secret string) *Signer {
	t.Helper()
	s, err := NewSigner([]byte(secret))
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}
	return s
}

func TestNewSigner_EmptySecret(t *testing.T) {
	if _, err := NewSigner(nil); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("NewSigner(nil) error = %v, want ErrEmptySecret", err)
	}
}

func TestSigner_IssueVerify(t *testing.T) {
	s := newTestSigner(t, "hunter2-secret")

	ttls := []time.Duration{time.Second, time.Hour, 24 * time.Hour, 7 * 24 * time.Hour}
	for _, ttl := range ttls {
		t.Run(ttl.String(), func(t *testing.T) {
			tok, p, err := s.Issue(ttl, testNow)
			if err != nil {
				t.Fatalf("Issue() error = %v", err)
			}
			if p.Exp != testNow.Add(ttl).Unix() {
				t.Errorf("Exp = %d, want %d", p.Exp, testNow.Add(ttl).Unix())
			}
			if p.V != CurrentVersion {
				t.Errorf("V = %d, want %d", p.V, CurrentVersion)
			}

			got, err := s.Verify(tok, testNow.Add(ttl-time.Second))
			if err != nil {
				t.Fatalf("Verify() before expiry error = %v", err)
			}
			if got != p {
				t.Errorf("Verify() payload = %+v, want %+v", got, p)
			}
		})
	}
}

func TestSigner_Issue_InvalidTTL(t *testing.T) {
	s := newTestSigner(t, "secret")
	for _, ttl := range []time.Duration{0, -time.Second} {
		if _, _, err := s.Issue(ttl, testNow); !errors.Is(err, ErrInvalidTTL) {
			t.Errorf("Issue(%v) error = %v, want ErrInvalidTTL", ttl, err)
		}
	}
}

func TestSigner_Verify_Expiry(t *testing.T) {
	s := newTestSigner(t, "secret")
	tok, p, err := s.Issue(24*time.Hour, testNow)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name    string
		now     time.Time
		wantErr error
	}{
		{"one second before", p.ExpiresAt().Add(-time.Second), nil},
		{"exactly at expiry", p.ExpiresAt(), ErrExpired},
		{"one second after", p.ExpiresAt().Add(time.Second), ErrExpired},
		{"a year after", p.ExpiresAt().AddDate(1, 0, 0), ErrExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Verify(tok, tt.now)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSigner_Verify_PastExpiryWithValidSignature(t *testing.T) {
	s := newTestSigner(t, "secret")
	tok, err := s.Encode(Payload{Exp: testNow.Add(-time.Minute).Unix(), V: 1})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if s.Valid(tok, testNow) {
		t.Error("Valid() = true for a correctly signed token that already expired")
	}
}

func TestSigner_Verify_WrongSecret(t *testing.T) {
	a := newTestSigner(t, "secret-a")
	b := newTestSigner(t, "secret-b")

	tok, _, err := a.Issue(time.Hour, testNow)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := b.Verify(tok, testNow); !errors.Is(err, ErrSignature) {
		t.Errorf("Verify() with other secret error = %v, want ErrSignature", err)
	}
}

func TestSigner_Verify_BitFlips(t *testing.T) {
	s := newTestSigner(t, "secret")
	tok, _, err := s.Issue(time.Hour, testNow)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	for i := 0; i < len(tok); i++ {
		if tok[i] == '.' {
			continue
		}
		for bit := 0; bit < 8; bit++ {
			b := []byte(tok)
			b[i] ^= 1 << bit
			if s.Valid(string(b), testNow) {
				t.Fatalf("Valid() = true after flipping bit %d of byte %d", bit, i)
			}
		}
	}
}

func TestSigner_Verify_Malformed(t *testing.T) {
	s := newTestSigner(t, "secret")

	signed := func(raw string) string {
		data := base64.RawURLEncoding.EncodeToString([]byte(raw))
		return data + Separator + s.sign(data)
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty", "", ErrMalformed},
		{"no separator", "abc", ErrMalformed},
		{"empty payload", ".sig", ErrMalformed},
		{"empty signature", "payload.", ErrMalformed},
		{"extra segment", "a.b.c", ErrMalformed},
		{"garbage signature", "abc.def", ErrSignature},
		{"signed non-base64", "!!!" + Separator + s.sign("!!!"), ErrMalformed},
		{"signed non-json", signed("not json"), ErrMalformed},
		{"signed missing exp", signed(`{"v":1}`), ErrMalformed},
		{"signed string exp", signed(`{"exp":"soon","v":1}`), ErrMalformed},
		{"signed negative exp", signed(`{"exp":-5,"v":1}`), ErrMalformed},
		{"signed json array", signed(`[1,2,3]`), ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Verify(tt.token, testNow)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify(%q) error = %v, want %v", tt.token, err, tt.wantErr)
			}
		})
	}
}

func TestSigner_EncodedForm(t *testing.T) {
	s := newTestSigner(t, "secret")
	tok, p, err := s.Issue(time.Hour, testNow)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	data, sig, ok := strings.Cut(tok, Separator)
	if !ok {
		t.Fatalf("token %q has no separator", tok)
	}
	if strings.ContainsAny(tok, "+/=") {
		t.Errorf("token %q is not unpadded base64url", tok)
	}

	raw, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		t.Fatalf("payload is not base64url: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if decoded["exp"] != float64(p.Exp) || decoded["v"] != float64(1) {
		t.Errorf("payload = %v, want exp=%d v=1", decoded, p.Exp)
	}

	rawSig, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		t.Fatalf("signature is not base64url: %v", err)
	}
	if len(rawSig) != 32 {
		t.Errorf("signature length = %d, want 32", len(rawSig))
	}
}

func BenchmarkSigner_Verify(b *testing.B) {
	s, _ := NewSigner([]byte("benchmark-secret"))
	tok, _, _ := s.Issue(time.Hour, testNow)
	for i := 0; i < b.N; i++ {
		s.Verify(tok, testNow)
	}
}
