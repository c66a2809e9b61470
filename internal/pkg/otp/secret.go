package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
)

// DefaultSecretLength is the number of base32 symbols generated when the
// caller does not configure one. 32 symbols carry 160 bits of entropy, the
// RFC 4226 recommendation.
const DefaultSecretLength = 32

// base32Alphabet is the RFC 4648 alphabet shared OTP secrets are written in.
const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// ErrEntropyUnavailable indicates the OS random source could not be read.
//
// Callers must treat this as fatal for the enclosing operation. There is no
// weaker fallback source.
var ErrEntropyUnavailable = errors.New("otp: entropy source unavailable")

// SecretGenerator produces shared secrets for new OTP records.
type SecretGenerator interface {
	// Generate returns a uniformly random base32 string of length symbols.
	Generate(length int) (string, error)
}

// Base32Secret generates secrets over the base32 alphabet using crypto/rand.
type Base32Secret struct{}

// NewBase32Secret returns a Base32Secret generator.
func NewBase32Secret() *Base32Secret {
	return &Base32Secret{}
}

// Generate returns a uniformly random base32 string of length symbols.
//
// A non-positive length falls back to DefaultSecretLength. Each symbol is
// drawn independently; the alphabet size of 32 divides 256, so rejection
// sampling is not needed for uniformity.
func (g *Base32Secret) Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultSecretLength
	}

	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("%w: %w", ErrEntropyUnavailable, err)
	}

	var sb strings.Builder
	sb.Grow(length)
	for _, b := range raw {
		sb.WriteByte(base32Alphabet[int(b)%len(base32Alphabet)])
	}

	return sb.String(), nil
}
