package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/credseal/internal/core"
	"github.com/illarion/credseal/internal/protect"
)

// Protect protects a secret with machine scope and prints the base64 blob
func Protect(env *Env, args []string) {
	secret, err := readSecret(args)
	if err != nil {
		HandleError(err)
	}
	defer secret.Destroy()

	protected, err := env.Guard().Protect(secret)
	if err != nil {
		HandleError(err)
	}
	fmt.Println(protected)
}

// Unprotect reverses Protect and prints the secret. scope overrides the
// configured unprotect scope when not empty.
func Unprotect(env *Env, scope string, args []string) {
	if scope != "" {
		parsed, err := protect.ParseScope(scope)
		if err != nil {
			HandleError(err)
		}
		env.Config.UnprotectScope = parsed.String()
	}

	blob, ok, err := readArgOrStdin(args)
	if err != nil {
		HandleError(err)
	}
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unprotect requires a protected value as an argument or on stdin\n")
		Exit(1)
	}

	guard := env.Guard()
	secret := guard.Unprotect(string(blob))
	defer secret.Destroy()

	if secret.Len() == 0 {
		if guard.UnprotectScope() != core.ProtectScope {
			fmt.Fprintf(os.Stderr, "note: values from 'credseal protect' use %s scope, this run used %s (try --scope %s)\n",
				core.ProtectScope, guard.UnprotectScope(), core.ProtectScope)
		}
		failEmpty("unprotect")
	}

	plaintext, err := secret.Reveal()
	if err != nil {
		HandleError(err)
	}
	fmt.Println(plaintext)
}
