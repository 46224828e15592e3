package backup

import (
	"bytes"
	"errors"
	"testing"
)

func TestGenerateSalt(t *testing.T) {
	salt1, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}
	if len(salt1) != saltSize {
		t.Errorf("salt length = %d, want %d", len(salt1), saltSize)
	}

	salt2, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt 2: %v", err)
	}
	if bytes.Equal(salt1, salt2) {
		t.Error("two salts should not be equal")
	}
}

func TestDeriveKeyDeterminism(t *testing.T) {
	salt := []byte("1234567890abcdef")

	key1 := DeriveKey("mypassphrase", salt)
	key2 := DeriveKey("mypassphrase", salt)

	if !bytes.Equal(key1, key2) {
		t.Error("same passphrase+salt should produce same key")
	}
	if len(key1) != keySize {
		t.Errorf("key length = %d, want %d", len(key1), keySize)
	}
	if bytes.Equal(key1, DeriveKey("otherpassphrase", salt)) {
		t.Error("different passphrases should produce different keys")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	original := []byte(`{"profile":{"name":"Аня"}}`)
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}

	encrypted, err := Encrypt(original, "test-passphrase-123", salt)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(encrypted, original) {
		t.Error("encrypted content should not contain the plaintext")
	}
	if !bytes.Equal(encrypted[:saltSize], salt) {
		t.Error("encrypted data should start with the salt")
	}

	decrypted, err := Decrypt(encrypted, "test-passphrase-123")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(decrypted, original) {
		t.Errorf("decrypted = %q, want %q", decrypted, original)
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	salt, _ := GenerateSalt()
	encrypted, err := Encrypt([]byte("secret"), "correct", salt)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := Decrypt(encrypted, "wrong"); err == nil {
		t.Error("expected error with wrong passphrase")
	}
}

func TestDecryptTamperedData(t *testing.T) {
	salt, _ := GenerateSalt()
	encrypted, _ := Encrypt([]byte("secret data"), "pass", salt)
	encrypted[len(encrypted)-1] ^= 0xff
	if _, err := Decrypt(encrypted, "pass"); err == nil {
		t.Error("expected error for tampered ciphertext")
	}
}

func TestDecryptTooSmall(t *testing.T) {
	if _, err := Decrypt([]byte("short"), "pass"); !errors.Is(err, ErrTooSmall) {
		t.Errorf("err = %v, want ErrTooSmall", err)
	}
}

func TestEncryptRejectsBadSalt(t *testing.T) {
	if _, err := Encrypt([]byte("x"), "pass", []byte("short")); err == nil {
		t.Error("expected error for short salt")
	}
}
