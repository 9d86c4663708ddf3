package crypto

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c, err := NewCipher(testKey)
	if err != nil {
		t.Fatalf("new cipher failed: %v", err)
	}

	plaintext := "supplier-123456"
	encrypted, err := c.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if encrypted == plaintext {
		t.Fatalf("expected ciphertext to differ from plaintext")
	}

	decrypted, err := c.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if decrypted != plaintext {
		t.Fatalf("expected %q, got: %q", plaintext, decrypted)
	}
}

func TestEncryptEmptyStringPassthrough(t *testing.T) {
	c, err := NewCipher(testKey)
	if err != nil {
		t.Fatalf("new cipher failed: %v", err)
	}

	encrypted, err := c.Encrypt("")
	if err != nil {
		t.Fatalf("encrypt empty failed: %v", err)
	}
	if encrypted != "" {
		t.Fatalf("expected empty ciphertext, got: %q", encrypted)
	}

	decrypted, err := c.Decrypt("")
	if err != nil {
		t.Fatalf("decrypt empty failed: %v", err)
	}
	if decrypted != "" {
		t.Fatalf("expected empty plaintext, got: %q", decrypted)
	}
}

func TestNewCipherAcceptsBase64Key(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte(testKey))
	c, err := NewCipher(encoded)
	if err != nil {
		t.Fatalf("new cipher with base64 key failed: %v", err)
	}

	encrypted, err := c.Encrypt("secret")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	decrypted, err := c.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if decrypted != "secret" {
		t.Fatalf("expected secret, got: %q", decrypted)
	}
}

func TestNewCipherRejectsBadKey(t *testing.T) {
	cases := []string{"", "short", strings.Repeat("x", 33)}
	for _, key := range cases {
		if _, err := NewCipher(key); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("key %q: expected ErrInvalidKey, got: %v", key, err)
		}
	}
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	c1, err := NewCipher(testKey)
	if err != nil {
		t.Fatalf("new cipher failed: %v", err)
	}
	c2, err := NewCipher("fedcba9876543210fedcba9876543210")
	if err != nil {
		t.Fatalf("new cipher failed: %v", err)
	}

	encrypted, err := c1.Encrypt("secret")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if _, err := c2.Decrypt(encrypted); !errors.Is(err, ErrCiphertextInvalid) {
		t.Fatalf("expected ErrCiphertextInvalid, got: %v", err)
	}
}

func TestDecryptGarbageFails(t *testing.T) {
	c, err := NewCipher(testKey)
	if err != nil {
		t.Fatalf("new cipher failed: %v", err)
	}

	for _, garbage := range []string{"not-base64!!", base64.StdEncoding.EncodeToString([]byte("tiny"))} {
		if _, err := c.Decrypt(garbage); !errors.Is(err, ErrCiphertextInvalid) {
			t.Fatalf("garbage %q: expected ErrCiphertextInvalid, got: %v", garbage, err)
		}
	}
}
