package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/credseal/internal/certstore"
)

// Init creates the certificate store
func Init(env *Env) {
	store, err := certstore.Open(env.Config.StorePath)
	if err != nil {
		HandleError(err)
	}
	defer store.Close()

	initialized, err := store.IsInitialized()
	if err != nil {
		HandleError(err)
	}
	if initialized {
		fmt.Fprintf(os.Stderr, "Error: certificate store already exists at %s\n", store.Path())
		fmt.Fprintf(os.Stderr, "Use 'credseal status' to see current state\n")
		store.Close()
		Exit(1)
	}

	if err := store.Initialize(); err != nil {
		HandleError(err)
	}

	fmt.Printf("✓ Initialized certificate store at %s\n", store.Path())
}
