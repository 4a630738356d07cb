package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/awnumar/memguard"
	"github.com/illarion/credseal/internal/certstore"
	"github.com/illarion/credseal/internal/config"
	"github.com/illarion/credseal/internal/core"
	"github.com/illarion/credseal/internal/crypto"
	"github.com/illarion/credseal/internal/keyring"
	"github.com/illarion/credseal/internal/logging"
	"github.com/illarion/credseal/internal/metrics"
	"github.com/illarion/credseal/internal/protect"
	"github.com/illarion/credseal/internal/secure"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// Env holds the configuration and logger shared by all commands
type Env struct {
	Config *config.Config
	Logger *zap.Logger
}

// current is finished by Exit
var current *Env

// Setup loads the configuration and builds the logger.
// debug forces debug logging on top of the configuration.
func Setup(debug bool) *Env {
	cfg, err := config.Load()
	if err != nil {
		HandleError(err)
	}
	if debug {
		cfg.Debug = true
	}

	current = &Env{Config: cfg, Logger: logging.New(cfg.Debug)}
	current.Logger.Debug("configuration loaded",
		zap.String("store", cfg.StorePath),
		zap.String("location", cfg.StoreLocation),
		zap.String("name", cfg.StoreName),
		zap.String("oaepHash", cfg.OAEPHash),
		zap.String("unprotectScope", cfg.UnprotectScope))
	return current
}

// Finish writes metrics when a metrics file is configured and flushes the logger
func (e *Env) Finish() {
	if e.Config.MetricsFile != "" {
		if err := metrics.WriteTextfile(e.Config.MetricsFile); err != nil {
			e.Logger.Warn("failed to write metrics", zap.String("path", e.Config.MetricsFile), zap.Error(err))
		}
	}
	_ = e.Logger.Sync()
}

// Exit finishes the current environment, wipes protected memory and exits
func Exit(code int) {
	if current != nil {
		current.Finish()
	}
	memguard.SafeExit(code)
}

// OpenStore opens the configured certificate store, which must be initialized
func (e *Env) OpenStore() *certstore.Storage {
	if _, err := os.Stat(e.Config.StorePath); errors.Is(err, os.ErrNotExist) {
		HandleError(certstore.ErrNotInitialized)
	}

	store, err := certstore.Open(e.Config.StorePath)
	if err != nil {
		HandleError(err)
	}

	initialized, err := store.IsInitialized()
	if err == nil && !initialized {
		err = certstore.ErrNotInitialized
	}
	if err != nil {
		store.Close()
		HandleError(err)
	}
	return store
}

// Transformer builds the certificate transform on top of store
func (e *Env) Transformer(store core.CertificateStore) *core.Transformer {
	cipher, err := crypto.NewRSACipher(e.Config.OAEPHash)
	if err != nil {
		HandleError(err)
	}
	return core.NewTransformer(store, cipher,
		core.WithLogger(e.Logger),
		core.WithStore(e.Config.Name(), e.Config.Location()))
}

// Protector builds the keyring-backed data protector
func (e *Env) Protector() *protect.KeyringProtector {
	p, err := protect.NewKeyringProtector(keyring.New(e.Config.KeyringService))
	if err != nil {
		HandleError(err)
	}
	return p
}

// Guard builds the secret guard
func (e *Env) Guard() *core.Guard {
	return core.NewGuard(e.Protector(),
		core.WithGuardLogger(e.Logger),
		core.WithUnprotectScope(e.Config.Scope()))
}

// readArgOrStdin returns the single argument, or stdin when the argument is
// "-" or missing and stdin is not a terminal. ok is false when neither applies.
func readArgOrStdin(args []string) (value []byte, ok bool, err error) {
	switch {
	case len(args) > 0 && args[0] != "-":
		return []byte(args[0]), true, nil
	case len(args) > 0 || !core.IsTerminal():
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, false, fmt.Errorf("failed to read stdin: %w", err)
		}
		return trimNewline(data), true, nil
	}
	return nil, false, nil
}

// trimNewline strips one trailing line ending in place
func trimNewline(data []byte) []byte {
	data = bytes.TrimSuffix(data, []byte("\n"))
	return bytes.TrimSuffix(data, []byte("\r"))
}

// readSecret reads a secret from the arguments, stdin, CREDSEAL_SECRET or
// a confirmed terminal prompt, in that order
func readSecret(args []string) (*secure.Secret, error) {
	value, ok, err := readArgOrStdin(args)
	if err != nil {
		return nil, err
	}
	if ok {
		defer crypto.ClearBytes(value)
		return secure.FromBytes(value)
	}

	secret, err := core.SecretFromEnv()
	if err != nil || secret != nil {
		return secret, err
	}
	return core.ReadSecretConfirm()
}

// errorMessage maps err to the lines printed for it
func errorMessage(err error) []string {
	switch {
	case errors.Is(err, certstore.ErrNotInitialized):
		return []string{"Error: certificate store not initialized", "Run 'credseal init' first"}
	case errors.Is(err, core.ErrFormat):
		return []string{"Error: input is not valid base64"}
	case errors.Is(err, secure.ErrInvalidArgument):
		return []string{"Error: secret must not be empty"}
	case errors.Is(err, certstore.ErrInvalidThumbprint):
		return []string{fmt.Sprintf("Error: %s", err), "Thumbprints are hex digits, see 'credseal ls'"}
	case errors.Is(err, certstore.ErrKeyMismatch):
		return []string{"Error: private key does not belong to the certificate"}
	case errors.Is(err, certstore.ErrEncryptedKey):
		return []string{fmt.Sprintf("Error: %s", err)}
	case errors.Is(err, config.ErrInvalid):
		return []string{fmt.Sprintf("Error: %s", err), "Check .credseal.yaml and CREDSEAL_* variables"}
	case errors.Is(err, bolt.ErrTimeout):
		return []string{"Error: certificate store is locked by another credseal process"}
	case errors.Is(err, keyring.ErrNotFound):
		return []string{"Error: no master key in the OS keyring"}
	}
	return []string{fmt.Sprintf("Error: %s", err)}
}

// HandleError prints err and exits
func HandleError(err error) {
	for _, line := range errorMessage(err) {
		fmt.Fprintln(os.Stderr, line)
	}
	Exit(1)
}

// failEmpty reports a soft failure of operation and exits
func failEmpty(operation string) {
	fmt.Fprintf(os.Stderr, "Error: %s produced no result\n", operation)
	fmt.Fprintln(os.Stderr, "Run with --debug to see why")
	Exit(1)
}
