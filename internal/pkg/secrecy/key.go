package secrecy

import (
	"encoding/base64"
	"fmt"
)

// StaticKey is a KeyProvider holding a single key for every scope.
type StaticKey struct {
	key []byte
}

// NewStaticKey decodes a base64 encoded 32-byte key.
func NewStaticKey(encoded string) (*StaticKey, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("secrecy: key is not valid base64: %w", err)
	}
	if len(key) != keyLen {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeyLength, len(key), keyLen)
	}

	return &StaticKey{key: key}, nil
}

// Key returns the static key regardless of scope.
func (s *StaticKey) Key(Scope) ([]byte, error) {
	return s.key, nil
}
