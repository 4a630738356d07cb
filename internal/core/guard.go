package core

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/illarion/credseal/internal/metrics"
	"github.com/illarion/credseal/internal/protect"
	"github.com/illarion/credseal/internal/secure"
	"go.uber.org/zap"
)

const (
	opProtect   = "protect"
	opUnprotect = "unprotect"
)

// ProtectScope is the scope Protect always uses
const ProtectScope = protect.ScopeMachine

// DataProtector protects and unprotects blobs for a machine or user scope
type DataProtector interface {
	Protect(data []byte, scope protect.Scope) ([]byte, error)
	Unprotect(data []byte, scope protect.Scope) ([]byte, error)
}

// Guard protects secrets for storage outside the process.
//
// Protect always uses machine scope while Unprotect defaults to user scope.
// With the bundled protector a blob only unprotects with the scope it was
// protected with, so by default Unprotect(Protect(s)) is an empty secret.
// Use WithUnprotectScope(protect.ScopeMachine) to make the two agree.
type Guard struct {
	protector      DataProtector
	unprotectScope protect.Scope
	logger         *zap.Logger
}

// GuardOption configures a Guard
type GuardOption func(*Guard)

// WithGuardLogger sets the logger used for swallowed failures
func WithGuardLogger(logger *zap.Logger) GuardOption {
	return func(g *Guard) {
		g.logger = logger
	}
}

// WithUnprotectScope sets the scope Unprotect uses
func WithUnprotectScope(scope protect.Scope) GuardOption {
	return func(g *Guard) {
		g.unprotectScope = scope
	}
}

// NewGuard creates a Guard using protector
func NewGuard(protector DataProtector, opts ...GuardOption) *Guard {
	g := &Guard{
		protector:      protector,
		unprotectScope: protect.ScopeUser,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// UnprotectScope returns the scope Unprotect uses
func (g *Guard) UnprotectScope() protect.Scope {
	return g.unprotectScope
}

// Protect protects the secret's UTF-16LE contents with machine scope and
// returns the blob base64 encoded. Errors are returned unchanged.
func (g *Guard) Protect(secret *secure.Secret) (string, error) {
	if secret == nil {
		return "", fmt.Errorf("%w: nil secret", secure.ErrInvalidArgument)
	}

	var blob []byte
	err := secret.WithBytes(func(utf16le []byte) error {
		var err error
		blob, err = g.protector.Protect(utf16le, ProtectScope)
		return err
	})
	if err != nil {
		metrics.ObserveError(opProtect)
		return "", fmt.Errorf("failed to protect secret: %w", err)
	}

	metrics.ObserveOK(opProtect)
	return base64.StdEncoding.EncodeToString(blob), nil
}

// Unprotect reverses Protect. Any failure yields an empty, sealed secret.
func (g *Guard) Unprotect(protected string) *secure.Secret {
	secret, err := g.unprotect(protected)
	if err != nil {
		reason := reasonUnprotectError
		var soft *softFailure
		if errors.As(err, &soft) {
			reason = soft.reason
		}
		metrics.ObserveSoftFailure(opUnprotect, reason)
		g.logger.Debug("unprotect failed, returning empty secret",
			zap.String("reason", reason),
			zap.Stringer("scope", g.unprotectScope),
			zap.Error(err))
		return secure.Empty()
	}

	metrics.ObserveOK(opUnprotect)
	return secret
}

func (g *Guard) unprotect(protected string) (*secure.Secret, error) {
	blob, err := base64.StdEncoding.DecodeString(protected)
	if err != nil {
		return nil, &softFailure{reason: reasonDecodeError, err: err}
	}

	data, err := g.protector.Unprotect(blob, g.unprotectScope)
	if err != nil {
		return nil, &softFailure{reason: reasonUnprotectError, err: err}
	}

	// FromUTF16LE wipes data
	secret, err := secure.FromUTF16LE(data)
	if err != nil {
		return nil, &softFailure{reason: reasonDecodeError, err: err}
	}
	return secret, nil
}
