package secrecy

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func newTestEncryptor(t *testing.T) *AESGCM {
	t.Helper()

	keys, err := NewStaticKey(base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32))))
	if err != nil {
		t.Fatalf("failed to build key provider: %v", err)
	}

	return NewAESGCM(keys)
}

func TestAESGCMRoundTrip(t *testing.T) {
	e := newTestEncryptor(t)
	scope := Scope{RecordID: "0fb9c1f6-4f61-4a52-a9ef-2de2efb7a0b1"}

	ciphertext, err := e.EncryptString("GEZDGNBVGY3TQOJQ", scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ciphertext == "GEZDGNBVGY3TQOJQ" {
		t.Fatal("ciphertext equals plaintext")
	}

	plain, err := e.DecryptString(ciphertext, scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plain != "GEZDGNBVGY3TQOJQ" {
		t.Fatalf("got %q, want the original plaintext", plain)
	}
}

func TestAESGCMScopeBinding(t *testing.T) {
	e := newTestEncryptor(t)

	ciphertext, err := e.EncryptString("secret", Scope{RecordID: "record-a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := e.DecryptString(ciphertext, Scope{RecordID: "record-b"}); !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("got %v, want %v for a foreign scope", err, ErrDecryptFailed)
	}
}

func TestAESGCMTamperDetection(t *testing.T) {
	e := newTestEncryptor(t)
	scope := Scope{RecordID: "record-a"}

	ciphertext, err := e.EncryptString("secret", scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	raw[len(raw)-1] ^= 0x01

	_, err = e.DecryptString(base64.StdEncoding.EncodeToString(raw), scope)
	if !errors.Is(err, ErrDecryptFailed) {
		t.Fatalf("got %v, want %v for a tampered ciphertext", err, ErrDecryptFailed)
	}
}

func TestAESGCMRejectsBadInput(t *testing.T) {
	e := newTestEncryptor(t)
	scope := Scope{RecordID: "record-a"}

	t.Run("EmptyPlaintext", func(t *testing.T) {
		if _, err := e.EncryptString("", scope); !errors.Is(err, ErrPlaintextEmpty) {
			t.Fatalf("got %v, want %v", err, ErrPlaintextEmpty)
		}
	})

	t.Run("NotBase64", func(t *testing.T) {
		if _, err := e.DecryptString("%%%", scope); !errors.Is(err, ErrCiphertextInvalid) {
			t.Fatalf("got %v, want %v", err, ErrCiphertextInvalid)
		}
	})

	t.Run("Truncated", func(t *testing.T) {
		short := base64.StdEncoding.EncodeToString([]byte{0, 1, 2})
		if _, err := e.DecryptString(short, scope); !errors.Is(err, ErrCiphertextInvalid) {
			t.Fatalf("got %v, want %v", err, ErrCiphertextInvalid)
		}
	})
}

func TestNewStaticKey(t *testing.T) {
	t.Run("WrongLength", func(t *testing.T) {
		short := base64.StdEncoding.EncodeToString([]byte("too-short"))
		if _, err := NewStaticKey(short); !errors.Is(err, ErrInvalidKeyLength) {
			t.Fatalf("got %v, want %v", err, ErrInvalidKeyLength)
		}
	})

	t.Run("NotBase64", func(t *testing.T) {
		if _, err := NewStaticKey("%%%"); err == nil {
			t.Fatal("expected an error for invalid base64")
		}
	})
}
