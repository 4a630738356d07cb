package secure

import (
	"errors"
	"fmt"
	"sync"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/awnumar/memguard"
	"golang.org/x/text/encoding/unicode"
)

const minCapacity = 32

var (
	ErrInvalidArgument = errors.New("invalid argument: input string is empty and cannot be made into a secret")
	ErrReadOnly        = errors.New("secret is read-only")
	ErrDestroyed       = errors.New("secret has been destroyed")
	ErrOddLength       = errors.New("UTF-16 data has odd length")
)

// wipe zeroes transient plaintext copies; replaced in tests
var wipe = memguard.WipeBytes

// Secret is sensitive text held in protected memory
type Secret struct {
	mu        sync.Mutex
	buf       *memguard.LockedBuffer // growth buffer, nil once sealed
	n         int                    // bytes of UTF-16LE data
	enclave   *memguard.Enclave      // sealed contents, nil when empty
	sealed    bool
	destroyed bool
}

// New returns an empty, writable secret
func New() *Secret {
	return &Secret{}
}

// Empty returns an empty, sealed secret
func Empty() *Secret {
	return &Secret{sealed: true}
}

// FromString builds a sealed secret one character at a time.
// It fails with ErrInvalidArgument when s is empty.
func FromString(s string) (*Secret, error) {
	if s == "" {
		return nil, ErrInvalidArgument
	}

	secret := New()
	for _, r := range s {
		if err := secret.AppendRune(r); err != nil {
			secret.Destroy()
			return nil, err
		}
	}
	if err := secret.Seal(); err != nil {
		secret.Destroy()
		return nil, err
	}
	return secret, nil
}

// FromBytes is FromString for UTF-8 bytes, so that terminal input never
// becomes a Go string. The caller still owns (and should wipe) b.
func FromBytes(b []byte) (*Secret, error) {
	if len(b) == 0 {
		return nil, ErrInvalidArgument
	}

	secret := New()
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if err := secret.AppendRune(r); err != nil {
			secret.Destroy()
			return nil, err
		}
		b = b[size:]
	}
	if err := secret.Seal(); err != nil {
		secret.Destroy()
		return nil, err
	}
	return secret, nil
}

// FromUTF16LE seals raw UTF-16LE data into a new secret. The source slice
// is wiped. Empty input gives an empty sealed secret.
func FromUTF16LE(b []byte) (*Secret, error) {
	if len(b)%2 != 0 {
		wipe(b)
		return nil, ErrOddLength
	}
	if len(b) == 0 {
		return Empty(), nil
	}

	n := len(b)
	return &Secret{
		n:       n,
		enclave: memguard.NewEnclave(b),
		sealed:  true,
	}, nil
}

// AppendRune appends one character. It fails with ErrReadOnly once the
// secret is sealed.
func (s *Secret) AppendRune(r rune) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return ErrDestroyed
	}
	if s.sealed {
		return ErrReadOnly
	}

	var units [2]uint16
	encoded := utf16.AppendRune(units[:0], r)

	s.grow(2 * len(encoded))
	data := s.buf.Bytes()
	for _, u := range encoded {
		data[s.n] = byte(u)
		data[s.n+1] = byte(u >> 8)
		s.n += 2
	}
	return nil
}

// grow makes room for extra bytes, moving the data into a larger locked
// buffer and destroying the old one
func (s *Secret) grow(extra int) {
	if s.buf != nil && s.n+extra <= s.buf.Size() {
		return
	}

	size := minCapacity
	if s.buf != nil {
		size = 2 * s.buf.Size()
	}
	for size < s.n+extra {
		size *= 2
	}

	next := memguard.NewBuffer(size)
	if s.buf != nil {
		next.Copy(s.buf.Bytes()[:s.n])
		s.buf.Destroy()
	}
	s.buf = next
}

// Seal makes the secret read-only and moves its contents into an
// encrypted enclave. Sealing twice fails with ErrReadOnly.
func (s *Secret) Seal() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return ErrDestroyed
	}
	if s.sealed {
		return ErrReadOnly
	}

	if s.n > 0 {
		exact := memguard.NewBuffer(s.n)
		exact.Copy(s.buf.Bytes()[:s.n])
		s.enclave = exact.Seal()
	}
	if s.buf != nil {
		s.buf.Destroy()
		s.buf = nil
	}
	s.sealed = true
	return nil
}

// IsReadOnly reports whether the secret has been sealed
func (s *Secret) IsReadOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sealed
}

// Len returns the length in UTF-16 code units
func (s *Secret) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n / 2
}

// WithBytes calls fn with the UTF-16LE contents in a temporary locked
// buffer that is destroyed when WithBytes returns. fn must not retain the
// slice. An empty secret passes nil.
func (s *Secret) WithBytes(fn func(utf16le []byte) error) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrDestroyed
	}

	var locked *memguard.LockedBuffer
	switch {
	case s.n == 0:
	case s.sealed:
		var err error
		locked, err = s.enclave.Open()
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to open secret: %w", err)
		}
	default:
		locked = memguard.NewBuffer(s.n)
		locked.Copy(s.buf.Bytes()[:s.n])
	}
	s.mu.Unlock()

	if locked == nil {
		return fn(nil)
	}
	defer locked.Destroy()
	return fn(locked.Bytes())
}

// Reveal returns the secret as an ordinary string. Every intermediate
// buffer is wiped before returning.
func (s *Secret) Reveal() (string, error) {
	var plaintext string
	err := s.WithBytes(func(utf16le []byte) error {
		if len(utf16le) == 0 {
			return nil
		}
		// One UTF-16 unit never needs more than three UTF-8 bytes, so the
		// decoder writes into dst without allocating copies of its own.
		dst := make([]byte, len(utf16le)/2*3)
		defer wipe(dst)

		decoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
		n, _, err := decoder.Transform(dst, utf16le, true)
		if err != nil {
			return fmt.Errorf("failed to decode secret: %w", err)
		}
		plaintext = string(dst[:n])
		return nil
	})
	if err != nil {
		return "", err
	}
	return plaintext, nil
}

// Destroy wipes the secret. It is safe to call more than once.
func (s *Secret) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buf != nil {
		s.buf.Destroy()
		s.buf = nil
	}
	s.enclave = nil
	s.n = 0
	s.sealed = true
	s.destroyed = true
}

// String implements fmt.Stringer without exposing the contents
func (s *Secret) String() string {
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer for %#v formatting
func (s *Secret) GoString() string {
	return "[REDACTED]"
}
