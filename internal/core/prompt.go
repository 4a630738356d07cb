package core

import (
	"fmt"
	"os"
	"syscall"

	"github.com/illarion/credseal/internal/crypto"
	"github.com/illarion/credseal/internal/secure"
	"golang.org/x/term"
)

// SecretEnvVar supplies the secret for non-interactive use
const SecretEnvVar = "CREDSEAL_SECRET"

// ReadPassword reads a password from the terminal without echoing
func ReadPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)

	// Read password without echo
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // New line after password

	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}

	return password, nil
}

// ReadSecret reads a secret from the terminal straight into a sealed
// secure.Secret. The raw input is wiped.
func ReadSecret(prompt string) (*secure.Secret, error) {
	input, err := ReadPassword(prompt)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(input)

	return secure.FromBytes(input)
}

// ReadSecretConfirm reads a secret twice and ensures both entries match
func ReadSecretConfirm() (*secure.Secret, error) {
	first, err := ReadPassword("Enter secret: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(first)

	second, err := ReadPassword("Confirm secret: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(second)

	if !crypto.ConstantTimeCompare(first, second) {
		return nil, fmt.Errorf("secrets do not match")
	}

	return secure.FromBytes(first)
}

// SecretFromEnv reads the secret from CREDSEAL_SECRET.
// It returns nil when the variable is unset or empty.
func SecretFromEnv() (*secure.Secret, error) {
	value := os.Getenv(SecretEnvVar)
	if value == "" {
		return nil, nil
	}
	return secure.FromString(value)
}

// IsTerminal reports whether stdin is an interactive terminal
func IsTerminal() bool {
	return term.IsTerminal(int(syscall.Stdin))
}
