package crypto

import (
	"bytes"
	"testing"
)

func TestEncryptDecrypt(t *testing.T) {
	key, err := GenerateRandom(KeySize)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	enc, err := NewEncryptor(key)
	if err != nil {
		t.Fatalf("Failed to create encryptor: %v", err)
	}
	defer enc.Destroy()

	plaintext := []byte("connection-string=secret")
	aad := []byte("header")

	ciphertext, err := enc.Encrypt(plaintext, aad)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if len(ciphertext) != NonceSize+len(plaintext)+TagSize {
		t.Errorf("Unexpected ciphertext length: got %d", len(ciphertext))
	}

	decrypted, err := enc.Decrypt(ciphertext, aad)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("Plaintext mismatch: got %q, want %q", decrypted, plaintext)
	}

	// Wrong associated data must fail authentication
	if _, err := enc.Decrypt(ciphertext, []byte("other")); err != ErrAuthFailed {
		t.Errorf("Expected ErrAuthFailed, got %v", err)
	}

	// Tampered ciphertext must fail authentication
	ciphertext[len(ciphertext)-1] ^= 0xff
	if _, err := enc.Decrypt(ciphertext, aad); err != ErrAuthFailed {
		t.Errorf("Expected ErrAuthFailed for tampered data, got %v", err)
	}
}

func TestDecryptShortCiphertext(t *testing.T) {
	enc, err := NewEncryptor(make([]byte, KeySize))
	if err != nil {
		t.Fatalf("Failed to create encryptor: %v", err)
	}

	if _, err := enc.Decrypt([]byte("short"), nil); err != ErrInvalidCiphertext {
		t.Errorf("Expected ErrInvalidCiphertext, got %v", err)
	}
}

func TestNewEncryptorKeySize(t *testing.T) {
	if _, err := NewEncryptor([]byte("too short")); err != ErrInvalidKeySize {
		t.Errorf("Expected ErrInvalidKeySize, got %v", err)
	}
}

func TestDeriveKey(t *testing.T) {
	master := []byte("master-secret-material")
	salt := []byte("salt")

	k1, err := DeriveKey(master, salt, "scope a")
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	k2, err := DeriveKey(master, salt, "scope a")
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	k3, err := DeriveKey(master, salt, "scope b")
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}

	if len(k1) != KeySize {
		t.Errorf("Key length: got %d, want %d", len(k1), KeySize)
	}
	if !bytes.Equal(k1, k2) {
		t.Error("Same inputs should derive the same key")
	}
	if bytes.Equal(k1, k3) {
		t.Error("Different info should derive different keys")
	}
}

func TestClearBytes(t *testing.T) {
	b := []byte("sensitive")
	ClearBytes(b)
	for i, c := range b {
		if c != 0 {
			t.Fatalf("Byte %d not cleared: %x", i, c)
		}
	}
}
