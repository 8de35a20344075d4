package token

import (
	"crypto/rand"
	"encoding/base64"
)

// DefaultIDLength is the default random identifier length in bytes.
const DefaultIDLength = 16

// RandomID returns a URL-safe random identifier built from length bytes.
func RandomID(length int) (string, error) {
	b, err := RandomBytes(length)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// RandomBytes returns length bytes read from crypto/rand.
func RandomBytes(length int) ([]byte, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
