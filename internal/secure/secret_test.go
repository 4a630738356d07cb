package secure

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/awnumar/memguard"
)

func TestFromStringReveal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		units int
	}{
		{name: "ascii", input: "p@ssw0rd", units: 8},
		{name: "accented", input: "contraseña", units: 10},
		{name: "astral plane", input: "key-🔑", units: 6},
		{name: "long", input: string(bytes.Repeat([]byte("x"), 1000)), units: 1000},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			secret, err := FromString(tt.input)
			if err != nil {
				t.Fatalf("FromString() error = %v", err)
			}
			defer secret.Destroy()

			if !secret.IsReadOnly() {
				t.Error("FromString() should return a sealed secret")
			}
			if secret.Len() != tt.units {
				t.Errorf("Len() = %d, want %d", secret.Len(), tt.units)
			}

			got, err := secret.Reveal()
			if err != nil {
				t.Fatalf("Reveal() error = %v", err)
			}
			if got != tt.input {
				t.Errorf("Reveal() = %q, want %q", got, tt.input)
			}
		})
	}
}

func TestFromStringEmpty(t *testing.T) {
	t.Parallel()

	if _, err := FromString(""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("FromString(\"\") error = %v, want ErrInvalidArgument", err)
	}
	if _, err := FromBytes(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("FromBytes(nil) error = %v, want ErrInvalidArgument", err)
	}
}

func TestFromBytes(t *testing.T) {
	t.Parallel()

	input := []byte("señor-🔑")
	secret, err := FromBytes(input)
	if err != nil {
		t.Fatalf("FromBytes() error = %v", err)
	}
	defer secret.Destroy()

	got, err := secret.Reveal()
	if err != nil {
		t.Fatalf("Reveal() error = %v", err)
	}
	if got != "señor-🔑" {
		t.Errorf("Reveal() = %q", got)
	}
}

func TestSealedSecretRejectsMutation(t *testing.T) {
	t.Parallel()

	secret, err := FromString("sealed")
	if err != nil {
		t.Fatalf("FromString() error = %v", err)
	}
	defer secret.Destroy()

	if err := secret.AppendRune('x'); !errors.Is(err, ErrReadOnly) {
		t.Errorf("AppendRune() after seal error = %v, want ErrReadOnly", err)
	}
	if err := secret.Seal(); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Seal() twice error = %v, want ErrReadOnly", err)
	}

	got, _ := secret.Reveal()
	if got != "sealed" {
		t.Errorf("Contents changed after rejected append: %q", got)
	}
}

func TestIncrementalBuild(t *testing.T) {
	t.Parallel()

	secret := New()
	defer secret.Destroy()

	// Crosses several growth steps
	want := bytes.Repeat([]byte("abc"), 50)
	for _, r := range string(want) {
		if err := secret.AppendRune(r); err != nil {
			t.Fatalf("AppendRune() error = %v", err)
		}
	}
	if secret.IsReadOnly() {
		t.Error("Secret should be writable before Seal()")
	}

	// Unsealed secrets can still be read
	got, err := secret.Reveal()
	if err != nil {
		t.Fatalf("Reveal() before seal error = %v", err)
	}
	if got != string(want) {
		t.Errorf("Reveal() before seal = %q", got)
	}

	if err := secret.Seal(); err != nil {
		t.Fatalf("Seal() error = %v", err)
	}
	got, err = secret.Reveal()
	if err != nil {
		t.Fatalf("Reveal() error = %v", err)
	}
	if got != string(want) {
		t.Errorf("Reveal() = %q", got)
	}
}

func TestEmptySecret(t *testing.T) {
	t.Parallel()

	secret := Empty()
	if !secret.IsReadOnly() {
		t.Error("Empty() should be sealed")
	}
	if secret.Len() != 0 {
		t.Errorf("Len() = %d, want 0", secret.Len())
	}
	if err := secret.AppendRune('a'); !errors.Is(err, ErrReadOnly) {
		t.Errorf("AppendRune() on Empty() error = %v, want ErrReadOnly", err)
	}

	got, err := secret.Reveal()
	if err != nil || got != "" {
		t.Errorf("Reveal() = %q, %v; want empty", got, err)
	}

	called := false
	err = secret.WithBytes(func(b []byte) error {
		called = true
		if b != nil {
			t.Errorf("WithBytes() on empty secret passed %v", b)
		}
		return nil
	})
	if err != nil || !called {
		t.Errorf("WithBytes() = %v, called = %v", err, called)
	}
}

func TestFromUTF16LE(t *testing.T) {
	t.Parallel()

	data := []byte{'h', 0, 'i', 0}
	secret, err := FromUTF16LE(data)
	if err != nil {
		t.Fatalf("FromUTF16LE() error = %v", err)
	}
	defer secret.Destroy()

	if !bytes.Equal(data, []byte{0, 0, 0, 0}) {
		t.Errorf("Source should be wiped, got %v", data)
	}
	got, _ := secret.Reveal()
	if got != "hi" {
		t.Errorf("Reveal() = %q, want hi", got)
	}

	if _, err := FromUTF16LE([]byte{1, 2, 3}); !errors.Is(err, ErrOddLength) {
		t.Errorf("FromUTF16LE(odd) error = %v, want ErrOddLength", err)
	}

	empty, err := FromUTF16LE(nil)
	if err != nil || !empty.IsReadOnly() || empty.Len() != 0 {
		t.Errorf("FromUTF16LE(nil) = %v, %v; want empty sealed secret", empty, err)
	}
}

func TestWithBytesUTF16LE(t *testing.T) {
	t.Parallel()

	secret, err := FromString("A€")
	if err != nil {
		t.Fatalf("FromString() error = %v", err)
	}
	defer secret.Destroy()

	err = secret.WithBytes(func(b []byte) error {
		want := []byte{0x41, 0x00, 0xAC, 0x20}
		if !bytes.Equal(b, want) {
			t.Errorf("WithBytes() = %x, want %x", b, want)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithBytes() error = %v", err)
	}

	sentinel := errors.New("callback failed")
	if err := secret.WithBytes(func([]byte) error { return sentinel }); !errors.Is(err, sentinel) {
		t.Errorf("WithBytes() should return the callback error, got %v", err)
	}
}

// Not parallel: swaps the package-level wipe hook
func TestRevealWipesScratchBuffer(t *testing.T) {
	var scratch []byte
	orig := wipe
	wipe = func(b []byte) {
		memguard.WipeBytes(b)
		scratch = b
	}
	defer func() { wipe = orig }()

	secret, err := FromString("do-not-leak")
	if err != nil {
		t.Fatalf("FromString() error = %v", err)
	}
	defer secret.Destroy()

	got, err := secret.Reveal()
	if err != nil {
		t.Fatalf("Reveal() error = %v", err)
	}
	if got != "do-not-leak" {
		t.Errorf("Reveal() = %q", got)
	}

	if len(scratch) == 0 {
		t.Fatal("Reveal() did not wipe its scratch buffer")
	}
	for i, c := range scratch {
		if c != 0 {
			t.Fatalf("Scratch byte %d not wiped: %x", i, c)
		}
	}
}

func TestDestroy(t *testing.T) {
	t.Parallel()

	secret, err := FromString("secret-to-destroy")
	if err != nil {
		t.Fatalf("FromString() error = %v", err)
	}

	secret.Destroy()
	// Idempotent
	secret.Destroy()

	if _, err := secret.Reveal(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Reveal() after Destroy() error = %v, want ErrDestroyed", err)
	}
	if err := secret.AppendRune('x'); !errors.Is(err, ErrDestroyed) {
		t.Errorf("AppendRune() after Destroy() error = %v, want ErrDestroyed", err)
	}
}

func TestRedactedFormatting(t *testing.T) {
	t.Parallel()

	secret, err := FromString("hunter2")
	if err != nil {
		t.Fatalf("FromString() error = %v", err)
	}
	defer secret.Destroy()

	for _, format := range []string{"%v", "%s", "%#v", "%+v"} {
		if got := fmt.Sprintf(format, secret); got != "[REDACTED]" {
			t.Errorf("Sprintf(%q) = %q", format, got)
		}
	}
}

func TestConcurrentReveal(t *testing.T) {
	t.Parallel()

	secret, err := FromString("concurrent-secret")
	if err != nil {
		t.Fatalf("FromString() error = %v", err)
	}
	defer secret.Destroy()

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func() {
			defer func() { done <- true }()

			got, err := secret.Reveal()
			if err != nil {
				t.Errorf("Reveal() error = %v", err)
				return
			}
			if got != "concurrent-secret" {
				t.Error("Data mismatch in concurrent access")
			}
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}

func BenchmarkSecret(b *testing.B) {
	b.Run("FromString", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			secret, _ := FromString("benchmark-secret-data")
			secret.Destroy()
		}
	})

	b.Run("Reveal", func(b *testing.B) {
		secret, _ := FromString("benchmark-secret-data")
		defer secret.Destroy()

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = secret.Reveal()
		}
	})
}
