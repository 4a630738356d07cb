package core

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/illarion/credseal/internal/certstore"
	"github.com/illarion/credseal/internal/crypto"
	"github.com/illarion/credseal/internal/metrics"
	"go.uber.org/zap"
)

const (
	opEncrypt = "encrypt"
	opDecrypt = "decrypt"
)

// CertificateStore looks certificates up by thumbprint. A certificate that
// is not installed is reported as nil, nil.
type CertificateStore interface {
	Load(name certstore.StoreName, location certstore.StoreLocation, thumbprint string) (*certstore.Certificate, error)
}

// AsymmetricCipher encrypts and decrypts with a certificate's key pair
type AsymmetricCipher interface {
	Encrypt(data []byte, useMachineKeySet bool, pair crypto.KeyPair) ([]byte, error)
	Decrypt(data []byte, useMachineKeySet bool, pair crypto.KeyPair) ([]byte, error)
}

// Transformer encrypts and decrypts short text with installed certificates
type Transformer struct {
	store    CertificateStore
	cipher   AsymmetricCipher
	name     certstore.StoreName
	location certstore.StoreLocation
	logger   *zap.Logger
}

// TransformerOption configures a Transformer
type TransformerOption func(*Transformer)

// WithLogger sets the logger used for swallowed failures
func WithLogger(logger *zap.Logger) TransformerOption {
	return func(t *Transformer) {
		t.logger = logger
	}
}

// WithStore changes the store certificates are looked up in
func WithStore(name certstore.StoreName, location certstore.StoreLocation) TransformerOption {
	return func(t *Transformer) {
		t.name = name
		t.location = location
	}
}

// NewTransformer creates a Transformer reading certificates from the
// My store of LocalMachine
func NewTransformer(store CertificateStore, cipher AsymmetricCipher, opts ...TransformerOption) *Transformer {
	t := &Transformer{
		store:    store,
		cipher:   cipher,
		name:     certstore.My,
		location: certstore.LocalMachine,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Encrypt encrypts plaintext with the certificate identified by thumbprint
// and returns it base64 encoded. It returns "" when the certificate is not
// installed or encryption fails.
func (t *Transformer) Encrypt(plaintext, thumbprint string) string {
	encrypted, err := t.encrypt(plaintext, thumbprint)
	if err != nil {
		t.softFail(opEncrypt, thumbprint, err)
		return ""
	}
	metrics.ObserveOK(opEncrypt)
	return encrypted
}

func (t *Transformer) encrypt(plaintext, thumbprint string) (string, error) {
	cert, err := t.load(thumbprint)
	if err != nil {
		return "", err
	}

	encoded := []byte(plaintext)
	defer crypto.ClearBytes(encoded)

	encrypted, err := t.cipher.Encrypt(encoded, true, cert)
	if err != nil {
		return "", &softFailure{reason: reasonCipherError, err: err}
	}
	return base64.StdEncoding.EncodeToString(encrypted), nil
}

// Decrypt decrypts base64 ciphertext with the certificate identified by
// thumbprint. It returns "" when the certificate is not installed or
// decryption fails, and an ErrFormat error when ciphertext is not valid
// base64.
func (t *Transformer) Decrypt(ciphertext, thumbprint string) (string, error) {
	plaintext, err := t.decrypt(ciphertext, thumbprint)
	if err != nil {
		var soft *softFailure
		if errors.As(err, &soft) {
			t.softFail(opDecrypt, thumbprint, soft)
			return "", nil
		}
		metrics.ObserveError(opDecrypt)
		return "", err
	}
	metrics.ObserveOK(opDecrypt)
	return plaintext, nil
}

func (t *Transformer) decrypt(ciphertext, thumbprint string) (string, error) {
	// Lookup comes first: without a certificate even malformed input
	// yields an empty result
	cert, err := t.load(thumbprint)
	if err != nil {
		return "", err
	}

	encrypted, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFormat, err)
	}

	decrypted, err := t.cipher.Decrypt(encrypted, true, cert)
	if err != nil {
		return "", &softFailure{reason: reasonCipherError, err: err}
	}
	defer crypto.ClearBytes(decrypted)

	return strings.ToValidUTF8(string(decrypted), "\uFFFD"), nil
}

func (t *Transformer) load(thumbprint string) (*certstore.Certificate, error) {
	cert, err := t.store.Load(t.name, t.location, thumbprint)
	if err != nil {
		return nil, &softFailure{reason: reasonStoreError, err: err}
	}
	if cert == nil {
		return nil, &softFailure{reason: reasonCertNotFound, err: ErrCertificateNotFound}
	}
	return cert, nil
}

func (t *Transformer) softFail(operation, thumbprint string, err error) {
	reason := reasonCipherError
	var soft *softFailure
	if errors.As(err, &soft) {
		reason = soft.reason
	}

	metrics.ObserveSoftFailure(operation, reason)
	t.logger.Debug("certificate operation failed, returning empty result",
		zap.String("operation", operation),
		zap.String("reason", reason),
		zap.String("thumbprint", thumbprint),
		zap.String("store", fmt.Sprintf("%s/%s", t.location, t.name)),
		zap.Error(err))
}
