// Package core provides the credseal operations.
//
// Certificate transform (Transformer):
//   - Encrypt: text -> RSA-encrypted, base64 string using a certificate
//     looked up by thumbprint in the My store of LocalMachine
//   - Decrypt: the reverse
//
// Secret guard (Guard):
//   - Protect: secure.Secret -> base64 blob protected with machine scope
//   - Unprotect: base64 blob -> secure.Secret, unprotected with user scope
//     unless configured otherwise
//
// Both flows swallow collaborator failures (certificate not found, cipher
// errors, unprotect errors) and return an empty result, so configuration
// code can treat them as "feature unavailable". Only caller mistakes are
// returned as errors: malformed base64 passed to Decrypt (ErrFormat) and
// empty input to secure.FromString (secure.ErrInvalidArgument).
// Swallowed failures are logged at debug level and counted in
// metrics.SoftFailuresTotal.
package core
