package core

import (
	"errors"
	"fmt"
)

var (
	ErrFormat              = errors.New("invalid base64 input")
	ErrCertificateNotFound = errors.New("certificate not found")
)

// Soft failure reasons, used as metric labels
const (
	reasonCertNotFound   = "certificate_not_found"
	reasonStoreError     = "store_error"
	reasonCipherError    = "cipher_error"
	reasonDecodeError    = "decode_error"
	reasonUnprotectError = "unprotect_error"
)

// softFailure is a collaborator failure that the public API reports as an
// empty result rather than an error
type softFailure struct {
	reason string
	err    error
}

func (e *softFailure) Error() string {
	return fmt.Sprintf("%s: %v", e.reason, e.err)
}

func (e *softFailure) Unwrap() error {
	return e.err
}
