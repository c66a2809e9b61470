// Package secrecy encrypts OTP shared secrets before they reach the
// database, so a leaked table dump alone cannot derive valid codes.
package secrecy

import "errors"

var (
	// ErrEncryptorNotConfigured indicates a missing key provider.
	ErrEncryptorNotConfigured = errors.New("secrecy: encryptor not configured")
	// ErrPlaintextEmpty indicates an empty plaintext input.
	ErrPlaintextEmpty = errors.New("secrecy: plaintext is empty")
	// ErrInvalidKeyLength indicates the key is not 32 bytes.
	ErrInvalidKeyLength = errors.New("secrecy: invalid key length")
	// ErrCiphertextInvalid indicates a malformed or truncated ciphertext.
	ErrCiphertextInvalid = errors.New("secrecy: ciphertext invalid")
	// ErrDecryptFailed indicates authentication or decryption failure.
	ErrDecryptFailed = errors.New("secrecy: decrypt failed")
)

// Scope binds a ciphertext to the record that owns it. It is fed into the
// cipher as additional authenticated data, so a ciphertext copied onto
// another record row fails to decrypt.
type Scope struct {
	// RecordID is the owning record identifier.
	RecordID string
}

// Encryptor encrypts and decrypts short secrets as transport-safe strings.
type Encryptor interface {
	// EncryptString returns the base64 ciphertext of plaintext under scope.
	EncryptString(plaintext string, scope Scope) (string, error)
	// DecryptString reverses EncryptString under the same scope.
	DecryptString(ciphertext string, scope Scope) (string, error)
}

// KeyProvider supplies the raw 32-byte AES key for a scope. Implementations
// may key per environment or per tenant.
type KeyProvider interface {
	Key(scope Scope) ([]byte, error)
}
