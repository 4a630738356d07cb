package certstore

import (
	"bytes"
	gocrypto "crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/illarion/credseal/internal/crypto"
	"golang.org/x/crypto/pkcs12"
)

var (
	ErrNoCertificate = errors.New("no certificate found")
	ErrNoKey         = errors.New("no private key found")
	ErrEncryptedKey  = errors.New("encrypted PEM private keys are not supported, export as PFX instead")
)

// ParsePEM returns the first certificate and the first private key found
// in PEM data. The key is nil when the data holds none. Key blocks are
// wiped after parsing.
func ParsePEM(data []byte) (*x509.Certificate, gocrypto.PrivateKey, error) {
	cert, key, err := parsePEMBlocks(data)
	if err != nil {
		return nil, nil, err
	}
	if cert == nil {
		return nil, nil, ErrNoCertificate
	}
	return cert, key, nil
}

// ParseKeyPEM returns the first private key found in PEM data
func ParseKeyPEM(data []byte) (gocrypto.PrivateKey, error) {
	_, key, err := parsePEMBlocks(data)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, ErrNoKey
	}
	return key, nil
}

func parsePEMBlocks(data []byte) (*x509.Certificate, gocrypto.PrivateKey, error) {
	var cert *x509.Certificate
	var key gocrypto.PrivateKey

	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}

		var err error
		switch block.Type {
		case "CERTIFICATE":
			if cert == nil {
				cert, err = x509.ParseCertificate(block.Bytes)
			}
		case "PRIVATE KEY":
			if key == nil {
				key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
			}
			crypto.ClearBytes(block.Bytes)
		case "RSA PRIVATE KEY":
			if key == nil {
				key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
			}
			crypto.ClearBytes(block.Bytes)
		case "EC PRIVATE KEY":
			if key == nil {
				key, err = x509.ParseECPrivateKey(block.Bytes)
			}
			crypto.ClearBytes(block.Bytes)
		case "ENCRYPTED PRIVATE KEY":
			return nil, nil, ErrEncryptedKey
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s block: %w", block.Type, err)
		}
	}

	return cert, key, nil
}

// ParsePKCS12 decodes a PFX/PKCS#12 bundle holding one certificate and key
func ParsePKCS12(data []byte, password string) (*x509.Certificate, gocrypto.PrivateKey, error) {
	key, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode PKCS#12 data: %w", err)
	}
	return cert, key, nil
}

// IsPEM reports whether data looks like PEM text
func IsPEM(data []byte) bool {
	return bytes.Contains(data, []byte("-----BEGIN "))
}

// ParseFile parses certificate file contents in PEM, DER (.cer) or
// PKCS#12 (.pfx) form. password is only used for PKCS#12.
func ParseFile(data []byte, password string) (*x509.Certificate, gocrypto.PrivateKey, error) {
	if IsPEM(data) {
		return ParsePEM(data)
	}
	if cert, err := x509.ParseCertificate(data); err == nil {
		return cert, nil, nil
	}
	return ParsePKCS12(data, password)
}
