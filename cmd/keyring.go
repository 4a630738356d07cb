package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/credseal/internal/protect"
)

// KeyringStatus shows which data protection master keys exist
func KeyringStatus(env *Env) {
	p := env.Protector()

	fmt.Printf("Keyring service: %s\n", env.Config.KeyringService)
	for _, scope := range []protect.Scope{protect.ScopeMachine, protect.ScopeUser} {
		account, err := p.Account(scope)
		if err != nil {
			HandleError(err)
		}
		state := "not stored"
		if p.HasKey(scope) {
			state = "stored in keyring"
		}
		fmt.Printf("  %-8s %-30s %s\n", scope, account, state)
	}
}

// KeyringDelete removes the master key of scope from the OS keyring.
// Everything protected with that scope becomes unrecoverable.
func KeyringDelete(env *Env, scope string, force bool) {
	parsed, err := protect.ParseScope(scope)
	if err != nil {
		HandleError(err)
	}

	p := env.Protector()
	if !p.HasKey(parsed) {
		fmt.Printf("No %s key stored in keyring\n", parsed)
		return
	}

	if !force {
		fmt.Fprintf(os.Stderr, "Error: deleting the %s key makes every value protected with it unrecoverable\n", parsed)
		fmt.Fprintf(os.Stderr, "Re-run with --force to proceed\n")
		Exit(1)
	}

	if err := p.DeleteKey(parsed); err != nil {
		HandleError(err)
	}
	fmt.Printf("%s key removed from keyring\n", parsed)
}
