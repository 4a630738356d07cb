package certstore

import (
	gocrypto "crypto"
	"crypto/sha1"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// StoreLocation is the physical partition of the store (machine-wide or per-user)
type StoreLocation string

const (
	LocalMachine StoreLocation = "LocalMachine"
	CurrentUser  StoreLocation = "CurrentUser"
)

// ParseLocation validates a store location name
func ParseLocation(s string) (StoreLocation, error) {
	switch StoreLocation(s) {
	case LocalMachine, CurrentUser:
		return StoreLocation(s), nil
	}
	return "", fmt.Errorf("unknown store location %q (want %s or %s)", s, LocalMachine, CurrentUser)
}

// StoreName is the logical store within a location
type StoreName string

const (
	My            StoreName = "My"
	Root          StoreName = "Root"
	CA            StoreName = "CA"
	TrustedPeople StoreName = "TrustedPeople"
)

// Certificate is a certificate loaded from the store together with its
// private key, if one was imported.
type Certificate struct {
	Thumbprint string
	Location   StoreLocation
	Name       StoreName
	Cert       *x509.Certificate

	key gocrypto.PrivateKey
}

// PublicKey returns the certificate's public key
func (c *Certificate) PublicKey() gocrypto.PublicKey {
	return c.Cert.PublicKey
}

// PrivateKey returns the private key or nil when none was imported
func (c *Certificate) PrivateKey() gocrypto.PrivateKey {
	if c.key == nil {
		return nil
	}
	return c.key
}

// HasPrivateKey reports whether a private key was loaded
func (c *Certificate) HasPrivateKey() bool {
	return c.key != nil
}

// MachineKeySet reports whether the private key belongs to the machine key set
func (c *Certificate) MachineKeySet() bool {
	return c.Location == LocalMachine
}

// Entry represents a certificate in the public index
type Entry struct {
	Thumbprint    string    `json:"thumbprint"`
	Subject       string    `json:"subject"`
	Issuer        string    `json:"issuer"`
	SerialNumber  string    `json:"serialNumber"`
	NotBefore     time.Time `json:"notBefore"`
	NotAfter      time.Time `json:"notAfter"`
	HasPrivateKey bool      `json:"hasPrivateKey"`
	Imported      time.Time `json:"imported"`
}

// Expired reports whether the certificate is outside its validity period at t
func (e Entry) Expired(t time.Time) bool {
	return t.Before(e.NotBefore) || t.After(e.NotAfter)
}

func newEntry(cert *x509.Certificate, thumbprint string, hasKey bool) Entry {
	return Entry{
		Thumbprint:    thumbprint,
		Subject:       cert.Subject.String(),
		Issuer:        cert.Issuer.String(),
		SerialNumber:  cert.SerialNumber.Text(16),
		NotBefore:     cert.NotBefore,
		NotAfter:      cert.NotAfter,
		HasPrivateKey: hasKey,
		Imported:      time.Now(),
	}
}

// Thumbprint computes the upper-case hex SHA-1 thumbprint of a certificate
func Thumbprint(cert *x509.Certificate) string {
	sum := sha1.Sum(cert.Raw)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// NormalizeThumbprint removes separators and invisible marks and upper-cases
// the result. It returns ErrInvalidThumbprint if anything but hex remains.
func NormalizeThumbprint(s string) (string, error) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ' ' || r == ':' || r == '\t' || r == '\u200e' || r == '\u200f' || r == '\ufeff':
			continue
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
			b.WriteRune(r)
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidThumbprint, s)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: empty", ErrInvalidThumbprint)
	}
	return strings.ToUpper(b.String()), nil
}
