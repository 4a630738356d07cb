// Package protect implements machine- and user-scoped data protection.
//
// Protect encrypts a byte blob so that only the same scope on the same host
// can recover it, without the caller managing keys. Each scope has a
// 32-byte master key kept in the OS keyring, created on first use:
//   - machine scope: keyring account "LocalMachine"
//   - user scope: keyring account "CurrentUser:<login>"
//
// Blob layout:
//
//	"CP" | version (1) | scope (1) | salt (16) | nonce (12) | ciphertext | tag (16)
//
// The per-blob key is HKDF-SHA256(master, salt, "credseal data protection
// <scope>") and the 20-byte header is authenticated as associated data, so
// a blob cannot be relabelled with another scope.
//
// Unprotect must be asked for the scope the blob was protected with;
// any other scope fails with ErrScopeMismatch.
package protect
