// Package git provides git integration status checks for credseal.
//
// Checks performed:
//   - Whether the certificate store is tracked by git (should not be, it
//     holds private keys)
//   - Whether the store is in .gitignore when it lives inside the work tree
//   - Whether plaintext files such as .env are tracked or not ignored
package git
