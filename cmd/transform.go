package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/credseal/internal/core"
	"github.com/illarion/credseal/internal/crypto"
)

// Encrypt encrypts text with the certificate identified by thumbprint and
// prints the base64 result
func Encrypt(env *Env, thumbprint string, args []string) {
	plaintext, ok, err := readArgOrStdin(args)
	if err != nil {
		HandleError(err)
	}
	if !ok {
		plaintext, err = core.ReadPassword("Text to encrypt: ")
		if err != nil {
			HandleError(err)
		}
	}
	defer crypto.ClearBytes(plaintext)

	store := env.OpenStore()
	defer store.Close()

	ciphertext := env.Transformer(store).Encrypt(string(plaintext), thumbprint)
	if ciphertext == "" {
		store.Close()
		failEmpty("encrypt")
	}
	fmt.Println(ciphertext)
}

// Decrypt decrypts base64 ciphertext with the certificate identified by
// thumbprint and prints the text
func Decrypt(env *Env, thumbprint string, args []string) {
	ciphertext, ok, err := readArgOrStdin(args)
	if err != nil {
		HandleError(err)
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: decrypt requires ciphertext as an argument or on stdin\n")
		Exit(1)
	}

	store := env.OpenStore()
	defer store.Close()

	plaintext, err := env.Transformer(store).Decrypt(string(ciphertext), thumbprint)
	if err != nil {
		store.Close()
		HandleError(err)
	}
	if plaintext == "" {
		store.Close()
		failEmpty("decrypt")
	}
	fmt.Println(plaintext)
}
