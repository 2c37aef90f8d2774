package backup

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
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
	if bytes.Equal(key1, DeriveKey("other", salt)) {
		t.Error("different passphrases should produce different keys")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	original := []byte(`{"listkeeper:shoppingLists":"[]"}`)
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}

	encrypted, err := Encrypt(original, "test-passphrase-123", salt)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(encrypted, original) {
		t.Error("encrypted content should not contain plaintext")
	}
	if !bytes.Equal(encrypted[:saltSize], salt) {
		t.Error("encrypted payload should start with salt")
	}

	decrypted, err := Decrypt(encrypted, "test-passphrase-123")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(original, decrypted) {
		t.Error("decrypted content should match original")
	}
}

func TestEncryptEmptyPayload(t *testing.T) {
	salt, _ := GenerateSalt()
	encrypted, err := Encrypt(nil, "password", salt)
	if err != nil {
		t.Fatalf("encrypt empty: %v", err)
	}
	decrypted, err := Decrypt(encrypted, "password")
	if err != nil {
		t.Fatalf("decrypt empty: %v", err)
	}
	if len(decrypted) != 0 {
		t.Errorf("expected empty plaintext, got %d bytes", len(decrypted))
	}
}

func TestEncryptRejectsBadSalt(t *testing.T) {
	if _, err := Encrypt([]byte("x"), "password", []byte("short")); err == nil {
		t.Fatal("expected error for short salt")
	}
}

func TestDecryptWrongPassphrase(t *testing.T) {
	salt, _ := GenerateSalt()
	encrypted, err := Encrypt([]byte("secret data"), "correct-password", salt)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := Decrypt(encrypted, "wrong-password"); err == nil {
		t.Fatal("expected error with wrong passphrase")
	}
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	salt, _ := GenerateSalt()
	encrypted, err := Encrypt([]byte("secret data"), "password", salt)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	encrypted[saltSize+nonceSize+1] ^= 0xFF

	if _, err := Decrypt(encrypted, "password"); err == nil {
		t.Fatal("expected error with tampered ciphertext")
	}
}

func TestDecryptTooSmall(t *testing.T) {
	_, err := Decrypt([]byte("too short"), "password")
	if !errors.Is(err, ErrCiphertextTooShort) {
		t.Fatalf("err = %v, want ErrCiphertextTooShort", err)
	}
}

func TestDecryptFile(t *testing.T) {
	dir := t.TempDir()
	encPath := filepath.Join(dir, "backup.json.enc")
	decPath := filepath.Join(dir, "backup.json")

	salt, _ := GenerateSalt()
	encrypted, err := Encrypt([]byte(`{"k":"v"}`), "password", salt)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if err := os.WriteFile(encPath, encrypted, 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := DecryptFile(encPath, decPath, "password"); err != nil {
		t.Fatalf("decrypt file: %v", err)
	}
	got, _ := os.ReadFile(decPath)
	if string(got) != `{"k":"v"}` {
		t.Errorf("decrypted = %q", got)
	}

	if err := DecryptFile(filepath.Join(dir, "missing"), decPath, "password"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
