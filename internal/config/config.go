// Package config loads credseal settings.
//
// Sources, later ones winning: built-in defaults, a YAML file
// (CREDSEAL_CONFIG, or .credseal.yaml in the working directory when it
// exists), a .env file that never overrides the real environment, and
// CREDSEAL_* environment variables. The result is validated before use.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/illarion/credseal/internal/certstore"
	"github.com/illarion/credseal/internal/keyring"
	"github.com/illarion/credseal/internal/protect"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFile    = ".credseal.yaml"
	DefaultEnvFile = ".env"
)

// Environment variables
const (
	EnvConfig         = "CREDSEAL_CONFIG"
	EnvStore          = "CREDSEAL_STORE"
	EnvStoreLocation  = "CREDSEAL_STORE_LOCATION"
	EnvStoreName      = "CREDSEAL_STORE_NAME"
	EnvOAEPHash       = "CREDSEAL_OAEP_HASH"
	EnvKeyringService = "CREDSEAL_KEYRING_SERVICE"
	EnvUnprotectScope = "CREDSEAL_UNPROTECT_SCOPE"
	EnvDebug          = "CREDSEAL_DEBUG"
	EnvMetricsFile    = "CREDSEAL_METRICS_FILE"
)

var ErrInvalid = errors.New("invalid configuration")

// Config holds credseal settings
type Config struct {
	StorePath      string `yaml:"store_path" validate:"required"`
	StoreLocation  string `yaml:"store_location" validate:"oneof=LocalMachine CurrentUser"`
	StoreName      string `yaml:"store_name" validate:"required,alphanum"`
	OAEPHash       string `yaml:"oaep_hash" validate:"oneof=sha1 sha256"`
	KeyringService string `yaml:"keyring_service" validate:"required,printascii"`
	UnprotectScope string `yaml:"unprotect_scope" validate:"oneof=machine user"`
	Debug          bool   `yaml:"debug"`
	MetricsFile    string `yaml:"metrics_file"`
}

// Options selects the files Load reads
type Options struct {
	// ConfigFile must exist when set. When empty, DefaultFile is read if present.
	ConfigFile string
	// EnvFile is optional. When empty, DefaultEnvFile is used.
	EnvFile string
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report YAML names in errors
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DefaultStorePath returns the store location used when none is configured
func DefaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "credseal", "store.db")
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		StorePath:      DefaultStorePath(),
		StoreLocation:  string(certstore.LocalMachine),
		StoreName:      string(certstore.My),
		OAEPHash:       "sha1",
		KeyringService: keyring.DefaultService,
		UnprotectScope: protect.ScopeUser.String(),
	}
}

// Load reads the configuration from the default sources
func Load() (*Config, error) {
	return LoadWith(Options{ConfigFile: os.Getenv(EnvConfig)})
}

// LoadWith reads the configuration using the given files
func LoadWith(opts Options) (*Config, error) {
	cfg := Default()

	path, required := opts.ConfigFile, true
	if path == "" {
		path, required = DefaultFile, false
	}
	if err := cfg.readFile(path, required); err != nil {
		return nil, err
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	// godotenv.Load never overrides variables that are already set
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.StorePath = os.ExpandEnv(cfg.StorePath)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	fields := map[string]*string{
		EnvStore:          &c.StorePath,
		EnvStoreLocation:  &c.StoreLocation,
		EnvStoreName:      &c.StoreName,
		EnvOAEPHash:       &c.OAEPHash,
		EnvKeyringService: &c.KeyringService,
		EnvUnprotectScope: &c.UnprotectScope,
		EnvMetricsFile:    &c.MetricsFile,
	}
	for name, field := range fields {
		if value, ok := os.LookupEnv(name); ok && value != "" {
			*field = value
		}
	}

	if value, ok := os.LookupEnv(EnvDebug); ok && value != "" {
		debug, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalid, EnvDebug, value)
		}
		c.Debug = debug
	}
	return nil
}

// Validate checks every field
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", fe.Field()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value()))
		default:
			messages = append(messages, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(messages, "; "))
}

// Location returns the configured store location
func (c *Config) Location() certstore.StoreLocation {
	return certstore.StoreLocation(c.StoreLocation)
}

// Name returns the configured store name
func (c *Config) Name() certstore.StoreName {
	return certstore.StoreName(c.StoreName)
}

// Scope returns the scope used to unprotect secrets
func (c *Config) Scope() protect.Scope {
	scope, err := protect.ParseScope(c.UnprotectScope)
	if err != nil {
		return protect.ScopeUser
	}
	return scope
}
