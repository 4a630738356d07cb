package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/credseal/internal/certstore"
)

// Remove deletes certificates from location/name
func Remove(env *Env, location certstore.StoreLocation, name certstore.StoreName, thumbprints []string) {
	if len(thumbprints) == 0 {
		fmt.Fprintf(os.Stderr, "Error: rm requires at least one thumbprint\n")
		fmt.Fprintf(os.Stderr, "Usage: credseal rm [--location L] [--store S] <thumbprint> [thumbprint...]\n")
		Exit(1)
	}

	store := env.OpenStore()
	defer store.Close()

	removed := 0
	for _, thumbprint := range thumbprints {
		found, err := store.Remove(location, name, thumbprint)
		if err != nil {
			HandleError(err)
		}
		if !found {
			fmt.Fprintf(os.Stderr, "warning: %s not found in %s/%s\n", thumbprint, location, name)
			continue
		}
		fmt.Printf("✓ Removed %s\n", thumbprint)
		removed++
	}

	if removed == 0 {
		return
	}

	// Compact database to reclaim space
	if err := store.Compact(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: compaction failed: %s\n", err)
	}
}
