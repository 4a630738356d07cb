// Package certstore provides the BBolt-backed certificate store for credseal.
//
// Database structure:
//   - config: version and timestamps
//   - <location>/<name>: one nested bucket per store location (LocalMachine,
//     CurrentUser) and store name (My, Root, CA, ...)
//
// Every store bucket holds three sub-buckets keyed by thumbprint:
//   - index: public certificate details (subject, validity) for ls/status
//   - certs: DER-encoded certificates
//   - keys: PKCS#8-encoded private keys, when imported with one
//
// Thumbprints are the upper-case hex SHA-1 of the certificate DER bytes.
// Lookups accept the forms users usually paste: lower case, spaced or
// colon-separated, with stray left-to-right marks.
//
// BBolt provides ACID transactions, file locking, and corruption detection.
package certstore
