// Package crypto provides cryptographic primitives for credseal.
//
// Symmetric encryption uses AES-256-GCM with:
//   - 32-byte key, usually derived with DeriveKey (HKDF-SHA256)
//   - 12-byte random nonce per encryption operation, prepended to the output
//   - Optional associated data bound into the authentication tag
//
// Asymmetric encryption (RSACipher) uses RSA-OAEP with the public key of a
// certificate and the matching private key for decryption. Private-key
// operations are bound to the key set (machine or user) the certificate
// was loaded from.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
//   - Call Encryptor.Destroy() when done with encryption operations
package crypto
