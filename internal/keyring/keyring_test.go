package keyring

import (
	"bytes"
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestGetOrCreateKey(t *testing.T) {
	keyring.MockInit()
	k := New("")

	if k.Service() != DefaultService {
		t.Errorf("Service: got %s, want %s", k.Service(), DefaultService)
	}
	if k.HasKey("LocalMachine") {
		t.Fatal("Mock keyring should start empty")
	}

	first, err := k.GetOrCreateKey("LocalMachine", 32)
	if err != nil {
		t.Fatalf("GetOrCreateKey failed: %v", err)
	}
	if len(first) != 32 {
		t.Errorf("Key length: got %d, want 32", len(first))
	}

	second, err := k.GetOrCreateKey("LocalMachine", 32)
	if err != nil {
		t.Fatalf("GetOrCreateKey failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("Second call should return the stored key")
	}
	if !k.HasKey("LocalMachine") {
		t.Error("Key should be stored")
	}
}

func TestDeleteKey(t *testing.T) {
	keyring.MockInit()
	k := New("credseal-test")

	if err := k.SaveKey("CurrentUser:alice", []byte("0123456789")); err != nil {
		t.Fatalf("SaveKey failed: %v", err)
	}
	if err := k.DeleteKey("CurrentUser:alice"); err != nil {
		t.Fatalf("DeleteKey failed: %v", err)
	}
	if _, err := k.GetKey("CurrentUser:alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := k.DeleteKey("CurrentUser:alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestGetKeyCorrupt(t *testing.T) {
	keyring.MockInit()
	if err := keyring.Set(DefaultService, "broken", "not base64!"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := New("").GetKey("broken"); err == nil {
		t.Error("Expected error for corrupt entry")
	}
}
