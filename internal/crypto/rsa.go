package crypto

import (
	gocrypto "crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
)

// OAEP hash names accepted by NewRSACipher
const (
	HashSHA1   = "sha1"
	HashSHA256 = "sha256"
)

var (
	ErrNoPrivateKey      = errors.New("certificate has no private key")
	ErrUnsupportedKey    = errors.New("certificate key is not RSA")
	ErrKeySetUnavailable = errors.New("private key not available in requested key set")
	ErrUnsupportedHash   = errors.New("unsupported OAEP hash")
)

// KeyPair is a certificate's key material as seen by the cipher.
// MachineKeySet reports whether the private key belongs to the
// machine-wide key set rather than the current user's.
type KeyPair interface {
	PublicKey() gocrypto.PublicKey
	PrivateKey() gocrypto.PrivateKey
	MachineKeySet() bool
}

// RSACipher encrypts with a certificate's RSA public key and decrypts with
// its private key using OAEP padding.
type RSACipher struct {
	newHash func() hash.Hash
}

// NewRSACipher returns a cipher using the named OAEP hash (sha1 or sha256).
func NewRSACipher(hashName string) (*RSACipher, error) {
	switch hashName {
	case HashSHA1, "":
		return &RSACipher{newHash: sha1.New}, nil
	case HashSHA256:
		return &RSACipher{newHash: sha256.New}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedHash, hashName)
	}
}

// Encrypt encrypts data with the public key of pair. Public-key operations
// do not touch a key set, so useMachineKeySet is accepted for symmetry
// with Decrypt only.
func (c *RSACipher) Encrypt(data []byte, useMachineKeySet bool, pair KeyPair) ([]byte, error) {
	pub, ok := pair.PublicKey().(*rsa.PublicKey)
	if !ok {
		return nil, ErrUnsupportedKey
	}

	encrypted, err := rsa.EncryptOAEP(c.newHash(), rand.Reader, pub, data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt: %w", err)
	}
	return encrypted, nil
}

// Decrypt decrypts data with the private key of pair, which must live in
// the key set selected by useMachineKeySet.
func (c *RSACipher) Decrypt(data []byte, useMachineKeySet bool, pair KeyPair) ([]byte, error) {
	if pair.MachineKeySet() != useMachineKeySet {
		return nil, ErrKeySetUnavailable
	}

	key := pair.PrivateKey()
	if key == nil {
		return nil, ErrNoPrivateKey
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrUnsupportedKey
	}

	decrypted, err := rsa.DecryptOAEP(c.newHash(), nil, priv, data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return decrypted, nil
}
