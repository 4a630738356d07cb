package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/illarion/credseal/internal/certstore"
	"github.com/illarion/credseal/internal/core"
	"github.com/illarion/credseal/internal/crypto"
	"go.uber.org/zap"
	"golang.org/x/crypto/pkcs12"
)

// PFXPasswordEnvVar supplies the PKCS#12 password for non-interactive imports
const PFXPasswordEnvVar = "CREDSEAL_PFX_PASSWORD"

// Import adds a certificate file (PEM, DER or PFX) to the store.
// keyPath optionally names a separate PEM private key.
func Import(env *Env, path, keyPath string, location certstore.StoreLocation, name certstore.StoreName) {
	data, err := os.ReadFile(path)
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(data)

	cert, key, err := certstore.ParseFile(data, os.Getenv(PFXPasswordEnvVar))
	if errors.Is(err, pkcs12.ErrIncorrectPassword) && core.IsTerminal() {
		password, perr := core.ReadPassword("PFX password: ")
		if perr != nil {
			HandleError(perr)
		}
		cert, key, err = certstore.ParsePKCS12(data, string(password))
		crypto.ClearBytes(password)
	}
	if err != nil {
		HandleError(err)
	}

	if keyPath != "" {
		keyData, err := os.ReadFile(keyPath)
		if err != nil {
			HandleError(err)
		}
		key, err = certstore.ParseKeyPEM(keyData)
		crypto.ClearBytes(keyData)
		if err != nil {
			HandleError(fmt.Errorf("%s: %w", keyPath, err))
		}
	}

	store := env.OpenStore()
	defer store.Close()

	thumbprint, err := store.Import(location, name, cert, key)
	if err != nil {
		HandleError(err)
	}
	env.Logger.Debug("certificate imported",
		zap.String("thumbprint", thumbprint),
		zap.String("store", fmt.Sprintf("%s/%s", location, name)),
		zap.Bool("privateKey", key != nil))

	fmt.Printf("✓ Imported %s into %s/%s\n", cert.Subject, location, name)
	fmt.Printf("  Thumbprint: %s\n", thumbprint)
	if key == nil {
		fmt.Println("  No private key: the certificate can encrypt but not decrypt")
	}
}
