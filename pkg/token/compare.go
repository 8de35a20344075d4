package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Equal reports whether a and b are equal in time independent of where
// they differ.
//
// Inputs of different length are padded with zero bytes to the longer
// length and still compared, then reported as not equal.
func Equal(a, b string) bool {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}

	pa := make([]byte, n)
	pb := make([]byte, n)
	copy(pa, a)
	copy(pb, b)

	same := subtle.ConstantTimeCompare(pa, pb)
	sameLen := subtle.ConstantTimeEq(int32(len(a)), int32(len(b)))
	return same&sameLen == 1
}

// Fingerprint returns a short, non-reversible identifier for a token,
// safe to put in logs.
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:6])
}
