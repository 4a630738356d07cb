package cmd

import (
	"fmt"
	"time"

	"github.com/illarion/credseal/internal/certstore"
)

// Ls lists the certificates in location/name, or in every store when all is set
func Ls(env *Env, location certstore.StoreLocation, name certstore.StoreName, all bool) {
	store := env.OpenStore()
	defer store.Close()

	type target struct {
		location certstore.StoreLocation
		name     certstore.StoreName
	}
	targets := []target{{location, name}}
	if all {
		targets = targets[:0]
		for _, loc := range []certstore.StoreLocation{certstore.LocalMachine, certstore.CurrentUser} {
			names, err := store.Stores(loc)
			if err != nil {
				HandleError(err)
			}
			for _, n := range names {
				targets = append(targets, target{loc, n})
			}
		}
	}

	now := time.Now()
	for i, tg := range targets {
		entries, err := store.List(tg.location, tg.name)
		if err != nil {
			HandleError(err)
		}

		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("%s/%s:\n", tg.location, tg.name)
		if len(entries) == 0 {
			fmt.Println("  (none)")
			continue
		}
		for _, entry := range entries {
			fmt.Printf("  %s  %s\n", entry.Thumbprint, entry.Subject)
			fmt.Printf("      expires %s%s\n", entry.NotAfter.Format("2006-01-02"), entryFlags(entry, now))
		}
	}
}

func entryFlags(entry certstore.Entry, now time.Time) string {
	var flags string
	if entry.HasPrivateKey {
		flags += ", private key"
	}
	if entry.Expired(now) {
		flags += ", EXPIRED"
	}
	return flags
}
