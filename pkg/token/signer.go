package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// CurrentVersion is the payload version written by Issue.
const CurrentVersion = 1

// Separator joins the encoded payload and signature.
const Separator = "."

// Verification errors.
var (
	ErrEmptySecret = errors.New("token: empty secret")
	ErrInvalidTTL  = errors.New("token: ttl must be positive")
	ErrMalformed   = errors.New("token: malformed")
	ErrSignature   = errors.New("token: signature mismatch")
	ErrExpired     = errors.New("token: expired")
)

var encoding = base64.RawURLEncoding

// Payload is the signed body of a session token.
type Payload struct {
	// Exp is the absolute expiry in unix seconds.
	Exp int64 `json:"exp"`
	// V is the payload version.
	V int `json:"v"`
}

// ExpiresAt returns Exp as a time.
func (p Payload) ExpiresAt() time.Time {
	return time.Unix(p.Exp, 0)
}

// Signer issues and verifies session tokens under one HMAC secret.
//
// A Signer is safe for concurrent use.
type Signer struct {
	secret []byte
}

// NewSigner creates a Signer. The secret is copied.
func NewSigner(secret []byte) (*Signer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	s := make([]byte, len(secret))
	copy(s, secret)
	return &Signer{secret: s}, nil
}

// Issue mints a token that expires ttl after now.
func (s *Signer) Issue(ttl time.Duration, now time.Time) (string, Payload, error) {
	if ttl <= 0 {
		return "", Payload{}, ErrInvalidTTL
	}

	p := Payload{
		Exp: now.Add(ttl).Unix(),
		V:   CurrentVersion,
	}
	tok, err := s.Encode(p)
	if err != nil {
		return "", Payload{}, err
	}
	return tok, p, nil
}

// Encode signs an arbitrary payload.
func (s *Signer) Encode(p Payload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	data := encoding.EncodeToString(raw)
	return data + Separator + s.sign(data), nil
}

// Verify checks the signature and expiry of tok at time now.
//
// The signature is checked before the payload is decoded, so nothing in an
// unsigned payload is ever parsed.
func (s *Signer) Verify(tok string, now time.Time) (Payload, error) {
	data, sig, ok := strings.Cut(tok, Separator)
	if !ok || data == "" || sig == "" || strings.Contains(sig, Separator) {
		return Payload{}, ErrMalformed
	}

	if !Equal(sig, s.sign(data)) {
		return Payload{}, ErrSignature
	}

	raw, err := encoding.DecodeString(data)
	if err != nil {
		return Payload{}, ErrMalformed
	}

	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, ErrMalformed
	}
	if p.Exp <= 0 {
		return Payload{}, ErrMalformed
	}

	if now.Unix() >= p.Exp {
		return p, ErrExpired
	}
	return p, nil
}

// Valid reports whether tok verifies at time now.
func (s *Signer) Valid(tok string, now time.Time) bool {
	_, err := s.Verify(tok, now)
	return err == nil
}

func (s *Signer) sign(data string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(data))
	return encoding.EncodeToString(mac.Sum(nil))
}
