package service

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/yndnr/gatekeep/pkg/token"
)

// argon2idPrefix marks a configured password as an argon2id PHC hash.
const argon2idPrefix = "$argon2id$"

// Argon2Params are the argon2id cost parameters used by HashPassword.
type Argon2Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params returns interactive-login parameters.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024,
		Time:        2,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

var errBadHash = errors.New("invalid argon2id hash")

// HashPassword returns an argon2id PHC string for password.
// Format: $argon2id$v=19$m=<mem>,t=<time>,p=<par>$<salt>$<hash>
func HashPassword(password string, p Argon2Params) (string, error) {
	if password == "" {
		return "", errors.New("password must not be empty")
	}
	salt, err := token.RandomBytes(int(p.SaltLength))
	if err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idPrefix,
		argon2.Version,
		p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// IsPasswordHash reports whether configured holds an argon2id hash rather
// than a plaintext password.
func IsPasswordHash(configured string) bool {
	return strings.HasPrefix(configured, argon2idPrefix)
}

// matchPassword compares a candidate against the configured password in
// constant time. configured may be plaintext or an argon2id hash.
func matchPassword(candidate, configured string) bool {
	if !IsPasswordHash(configured) {
		return token.Equal(candidate, configured)
	}
	ok, err := verifyArgon2id(candidate, configured)
	return err == nil && ok
}

func verifyArgon2id(candidate, encoded string) (bool, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, hash
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, errBadHash
	}

	version, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return false, errBadHash
	}
	if v, err := strconv.Atoi(version); err != nil || v != argon2.Version {
		return false, errBadHash
	}

	var memory, timeCost uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &parallelism); err != nil {
		return false, errBadHash
	}
	if memory == 0 || timeCost == 0 || parallelism == 0 {
		return false, errBadHash
	}

	salt, err := decodeB64(parts[4])
	if err != nil {
		return false, errBadHash
	}
	want, err := decodeB64(parts[5])
	if err != nil || len(want) == 0 {
		return false, errBadHash
	}

	got := argon2.IDKey([]byte(candidate), salt, timeCost, memory, parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// decodeB64 accepts both unpadded and padded standard base64.
func decodeB64(s string) ([]byte, error) {
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.StdEncoding.DecodeString(s)
}
