package protect

import (
	"errors"
	"fmt"
	"os/user"

	"github.com/illarion/credseal/internal/crypto"
	"github.com/illarion/credseal/internal/keyring"
)

// Scope selects who may unprotect a blob
type Scope byte

const (
	ScopeMachine Scope = 1
	ScopeUser    Scope = 2
)

func (s Scope) String() string {
	switch s {
	case ScopeMachine:
		return "machine"
	case ScopeUser:
		return "user"
	}
	return fmt.Sprintf("scope(%d)", byte(s))
}

// ParseScope parses "machine" or "user"
func ParseScope(s string) (Scope, error) {
	switch s {
	case "machine":
		return ScopeMachine, nil
	case "user":
		return ScopeUser, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScope, s)
}

const (
	version       = 1
	saltSize      = 16
	headerSize    = 4 + saltSize
	masterKeySize = 32
)

var magic = [2]byte{'C', 'P'}

var (
	ErrMalformedBlob = errors.New("malformed protected blob")
	ErrScopeMismatch = errors.New("protected blob scope does not match")
	ErrNoMasterKey   = errors.New("no master key for scope")
	ErrUnknownScope  = errors.New("unknown protection scope")
)

// KeyStore holds per-scope master keys
type KeyStore interface {
	GetKey(account string) ([]byte, error)
	GetOrCreateKey(account string, size int) ([]byte, error)
	DeleteKey(account string) error
	HasKey(account string) bool
}

// KeyringProtector protects data with master keys held in a KeyStore
type KeyringProtector struct {
	keys  KeyStore
	login string
}

// Option configures a KeyringProtector
type Option func(*KeyringProtector)

// WithLogin overrides the login name used for the user scope account
func WithLogin(login string) Option {
	return func(p *KeyringProtector) {
		p.login = login
	}
}

// NewKeyringProtector creates a protector backed by keys
func NewKeyringProtector(keys KeyStore, opts ...Option) (*KeyringProtector, error) {
	p := &KeyringProtector{keys: keys}
	for _, opt := range opts {
		opt(p)
	}

	if p.login == "" {
		u, err := user.Current()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve current user: %w", err)
		}
		p.login = u.Username
	}
	return p, nil
}

// Account returns the keyring account holding the master key for scope
func (p *KeyringProtector) Account(scope Scope) (string, error) {
	switch scope {
	case ScopeMachine:
		return "LocalMachine", nil
	case ScopeUser:
		return "CurrentUser:" + p.login, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownScope, scope)
}

// Protect encrypts data for scope, creating the scope's master key if needed
func (p *KeyringProtector) Protect(data []byte, scope Scope) ([]byte, error) {
	account, err := p.Account(scope)
	if err != nil {
		return nil, err
	}

	master, err := p.keys.GetOrCreateKey(account, masterKeySize)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s master key: %w", scope, err)
	}
	defer crypto.ClearBytes(master)

	salt, err := crypto.GenerateRandom(saltSize)
	if err != nil {
		return nil, err
	}

	header := make([]byte, 0, headerSize)
	header = append(header, magic[0], magic[1], version, byte(scope))
	header = append(header, salt...)

	enc, err := newEncryptor(master, salt, scope)
	if err != nil {
		return nil, err
	}
	defer enc.Destroy()

	sealed, err := enc.Encrypt(data, header)
	if err != nil {
		return nil, err
	}

	blob := make([]byte, 0, len(header)+len(sealed))
	blob = append(blob, header...)
	return append(blob, sealed...), nil
}

// Unprotect decrypts a blob produced by Protect with the same scope
func (p *KeyringProtector) Unprotect(blob []byte, scope Scope) ([]byte, error) {
	if len(blob) < headerSize {
		return nil, ErrMalformedBlob
	}
	if blob[0] != magic[0] || blob[1] != magic[1] || blob[2] != version {
		return nil, ErrMalformedBlob
	}
	if Scope(blob[3]) != scope {
		return nil, fmt.Errorf("%w: blob is %s, requested %s", ErrScopeMismatch, Scope(blob[3]), scope)
	}

	account, err := p.Account(scope)
	if err != nil {
		return nil, err
	}

	master, err := p.keys.GetKey(account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNoMasterKey, scope)
		}
		return nil, fmt.Errorf("failed to get %s master key: %w", scope, err)
	}
	defer crypto.ClearBytes(master)

	header := blob[:headerSize]
	enc, err := newEncryptor(master, header[4:], scope)
	if err != nil {
		return nil, err
	}
	defer enc.Destroy()

	return enc.Decrypt(blob[headerSize:], header)
}

// HasKey reports whether a master key exists for scope
func (p *KeyringProtector) HasKey(scope Scope) bool {
	account, err := p.Account(scope)
	if err != nil {
		return false
	}
	return p.keys.HasKey(account)
}

// DeleteKey removes the master key for scope. Every blob protected with
// it becomes unrecoverable.
func (p *KeyringProtector) DeleteKey(scope Scope) error {
	account, err := p.Account(scope)
	if err != nil {
		return err
	}
	return p.keys.DeleteKey(account)
}

func newEncryptor(master, salt []byte, scope Scope) (*crypto.Encryptor, error) {
	key, err := crypto.DeriveKey(master, salt, "credseal data protection "+scope.String())
	if err != nil {
		return nil, err
	}
	return crypto.NewEncryptor(key)
}
