package keyring

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/illarion/credseal/internal/crypto"
	"github.com/zalando/go-keyring"
)

// DefaultService is the keyring service name master keys are filed under
const DefaultService = "credseal"

// ErrNotFound is returned when no key is stored for an account
var ErrNotFound = keyring.ErrNotFound

// Keyring stores master keys in the OS keyring
type Keyring struct {
	service string
}

// New returns a Keyring for service, or DefaultService when empty
func New(service string) *Keyring {
	if service == "" {
		service = DefaultService
	}
	return &Keyring{service: service}
}

// Service returns the keyring service name
func (k *Keyring) Service() string {
	return k.service
}

// SaveKey stores a key in the OS keyring
func (k *Keyring) SaveKey(account string, key []byte) error {
	return keyring.Set(k.service, account, base64.StdEncoding.EncodeToString(key))
}

// GetKey retrieves a key from the OS keyring.
// The caller is responsible for calling crypto.ClearBytes on the result.
func (k *Keyring) GetKey(account string) ([]byte, error) {
	encoded, err := keyring.Get(k.service, account)
	if err != nil {
		return nil, err
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("corrupt keyring entry %s/%s: %w", k.service, account, err)
	}
	return key, nil
}

// GetOrCreateKey retrieves a key, generating and storing size random bytes
// on first use
func (k *Keyring) GetOrCreateKey(account string, size int) ([]byte, error) {
	key, err := k.GetKey(account)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, keyring.ErrNotFound) {
		return nil, err
	}

	key, err = crypto.GenerateRandom(size)
	if err != nil {
		return nil, err
	}
	if err := k.SaveKey(account, key); err != nil {
		crypto.ClearBytes(key)
		return nil, fmt.Errorf("failed to save key to keyring: %w", err)
	}
	return key, nil
}

// DeleteKey removes a key from the OS keyring
func (k *Keyring) DeleteKey(account string) error {
	return keyring.Delete(k.service, account)
}

// HasKey checks if a key is stored in the keyring
func (k *Keyring) HasKey(account string) bool {
	_, err := keyring.Get(k.service, account)
	return err == nil
}
