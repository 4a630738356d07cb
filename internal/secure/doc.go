// Package secure provides memory-protected secret text.
//
// A Secret keeps its text as UTF-16LE code units inside memguard memory:
//
//   - While it is being built with AppendRune the units live in a
//     mlock'd LockedBuffer with guard pages
//   - Seal moves them into an Enclave (encrypted at rest with
//     XSalsa20Poly1305) and makes the Secret read-only
//   - Destroy wipes everything
//
// Code that needs the plaintext goes through WithBytes or Reveal, which
// open the Enclave into a temporary LockedBuffer and destroy it on return,
// whatever the outcome.
//
// Call memguard.Purge() at process exit (the CLI does this in main) to wipe
// memguard's key material as well.
package secure
