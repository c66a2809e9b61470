package secrecy

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
)

// Ciphertext layout before base64 encoding:
// [0..1]   uint16 format version (currently 1)
// [2..13]  12-byte nonce
// [14..]   gcm.Seal output (ciphertext + tag)
const formatVersion uint16 = 1

const (
	nonceSize = 12
	keyLen    = 32
)

// AESGCM implements Encryptor using AES-256-GCM.
type AESGCM struct {
	keys KeyProvider
}

// NewAESGCM constructs an AES-GCM encryptor over the given key provider.
func NewAESGCM(keys KeyProvider) *AESGCM {
	return &AESGCM{keys: keys}
}

// EncryptString returns the base64 ciphertext of plaintext under scope.
func (e *AESGCM) EncryptString(plaintext string, scope Scope) (string, error) {
	if e == nil || e.keys == nil {
		return "", ErrEncryptorNotConfigured
	}
	if plaintext == "" {
		return "", ErrPlaintextEmpty
	}

	gcm, err := e.cipher(scope)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secrecy: nonce generation failed: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), scope.aad())

	out := make([]byte, 2+nonceSize+len(sealed))
	binary.BigEndian.PutUint16(out[0:2], formatVersion)
	copy(out[2:2+nonceSize], nonce)
	copy(out[2+nonceSize:], sealed)

	return base64.StdEncoding.EncodeToString(out), nil
}

// DecryptString reverses EncryptString under the same scope.
func (e *AESGCM) DecryptString(ciphertext string, scope Scope) (string, error) {
	if e == nil || e.keys == nil {
		return "", ErrEncryptorNotConfigured
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCiphertextInvalid, err)
	}
	if len(raw) < 2+nonceSize+1 {
		return "", ErrCiphertextInvalid
	}

	if version := binary.BigEndian.Uint16(raw[0:2]); version != formatVersion {
		return "", fmt.Errorf("%w: unsupported version %d", ErrCiphertextInvalid, version)
	}

	gcm, err := e.cipher(scope)
	if err != nil {
		return "", err
	}

	plain, err := gcm.Open(nil, raw[2:2+nonceSize], raw[2+nonceSize:], scope.aad())
	if err != nil {
		return "", ErrDecryptFailed
	}

	return string(plain), nil
}

func (e *AESGCM) cipher(scope Scope) (cipher.AEAD, error) {
	key, err := e.keys.Key(scope)
	if err != nil {
		return nil, fmt.Errorf("secrecy: key provider error: %w", err)
	}
	if len(key) != keyLen {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidKeyLength, len(key), keyLen)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("secrecy: aes init failed: %w", err)
	}

	return cipher.NewGCM(block)
}

func (s Scope) aad() []byte {
	return []byte("record:" + s.RecordID)
}
