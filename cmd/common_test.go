package cmd

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/illarion/credseal/internal/certstore"
	"github.com/illarion/credseal/internal/config"
	"github.com/illarion/credseal/internal/core"
	"github.com/illarion/credseal/internal/secure"
	bolt "go.etcd.io/bbolt"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{certstore.ErrNotInitialized, "Run 'credseal init' first"},
		{fmt.Errorf("%w: bad", core.ErrFormat), "not valid base64"},
		{secure.ErrInvalidArgument, "must not be empty"},
		{fmt.Errorf("%w: %q", certstore.ErrInvalidThumbprint, "xyz"), "see 'credseal ls'"},
		{fmt.Errorf("%w: oaep_hash", config.ErrInvalid), ".credseal.yaml"},
		{bolt.ErrTimeout, "locked by another"},
		{errors.New("something else"), "Error: something else"},
	}

	for _, tt := range tests {
		lines := strings.Join(errorMessage(tt.err), "\n")
		if !strings.Contains(lines, tt.want) {
			t.Errorf("errorMessage(%v) = %q, want it to contain %q", tt.err, lines, tt.want)
		}
	}
}

func TestTrimNewline(t *testing.T) {
	tests := map[string]string{
		"value\n":    "value",
		"value\r\n":  "value",
		"value":      "value",
		"value\n\n":  "value\n",
		"":           "",
		"two\nlines": "two\nlines",
	}

	for in, want := range tests {
		if got := string(trimNewline([]byte(in))); got != want {
			t.Errorf("trimNewline(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReadArgOrStdinArgument(t *testing.T) {
	value, ok, err := readArgOrStdin([]string{"hello"})
	if err != nil || !ok || string(value) != "hello" {
		t.Errorf("readArgOrStdin = %q, %v, %v", value, ok, err)
	}
}

func TestEntryFlags(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entry := certstore.Entry{NotBefore: now.Add(-2 * time.Hour), NotAfter: now.Add(-time.Hour), HasPrivateKey: true}

	if got := entryFlags(entry, now); got != ", private key, EXPIRED" {
		t.Errorf("entryFlags = %q", got)
	}
	entry.NotAfter = now.Add(time.Hour)
	entry.HasPrivateKey = false
	if got := entryFlags(entry, now); got != "" {
		t.Errorf("entryFlags = %q, want empty", got)
	}
}

func TestFormatSize(t *testing.T) {
	tests := map[int64]string{
		512:             "512 bytes",
		2048:            "2.0 KB",
		3 * 1024 * 1024: "3.0 MB",
	}
	for size, want := range tests {
		if got := formatSize(size); got != want {
			t.Errorf("formatSize(%d) = %q, want %q", size, got, want)
		}
	}
}
