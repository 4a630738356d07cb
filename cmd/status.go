package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/illarion/credseal/internal/certstore"
	"github.com/illarion/credseal/internal/config"
	"github.com/illarion/credseal/internal/core"
	"github.com/illarion/credseal/internal/git"
	"github.com/illarion/credseal/internal/protect"
	"go.uber.org/zap"
)

// Status shows the state of the certificate store, the keyring and git
func Status(env *Env) {
	cfg := env.Config

	info, err := os.Stat(cfg.StorePath)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Printf("No certificate store at %s\n", cfg.StorePath)
		fmt.Println("Run 'credseal init' to create one")
		return
	}
	if err != nil {
		HandleError(err)
	}

	store := env.OpenStore()
	defer store.Close()

	fmt.Printf("Store: %s (%s)\n", cfg.StorePath, formatSize(info.Size()))
	if created, err := store.GetCreated(); err == nil {
		fmt.Printf("  created:  %s\n", created.Format(time.RFC3339))
	}
	if modified, err := store.GetModified(); err == nil {
		fmt.Printf("  modified: %s\n", modified.Format(time.RFC3339))
	}

	now := time.Now()
	fmt.Println("\nCertificates:")
	for _, location := range []certstore.StoreLocation{certstore.LocalMachine, certstore.CurrentUser} {
		names, err := store.Stores(location)
		if err != nil {
			HandleError(err)
		}
		for _, name := range names {
			entries, err := store.List(location, name)
			if err != nil {
				HandleError(err)
			}
			var withKey, expired int
			for _, entry := range entries {
				if entry.HasPrivateKey {
					withKey++
				}
				if entry.Expired(now) {
					expired++
				}
			}
			marker := " "
			if location == cfg.Location() && name == cfg.Name() {
				marker = "*"
			}
			fmt.Printf(" %s %s/%s: %d (%d with private key, %d expired)\n",
				marker, location, name, len(entries), withKey, expired)
		}
	}
	fmt.Printf("  (* used by encrypt/decrypt, OAEP %s)\n", cfg.OAEPHash)

	p := env.Protector()
	fmt.Printf("\nKeyring (%s):\n", cfg.KeyringService)
	for _, scope := range []protect.Scope{protect.ScopeMachine, protect.ScopeUser} {
		state := "no key yet"
		if p.HasKey(scope) {
			state = "key stored"
		}
		fmt.Printf("  %-8s %s\n", scope, state)
	}
	fmt.Printf("  protect uses %s scope, unprotect uses %s scope\n", core.ProtectScope, cfg.Scope())

	wd, err := os.Getwd()
	if err != nil {
		return
	}
	var secretFiles []string
	if _, err := os.Stat(config.DefaultEnvFile); err == nil {
		secretFiles = append(secretFiles, config.DefaultEnvFile)
	}
	gitStatus, err := git.CheckGitIntegration(wd, cfg.StorePath, secretFiles)
	if err != nil {
		env.Logger.Debug("git check failed", zap.Error(err))
		return
	}
	fmt.Print(git.FormatGitStatus(gitStatus))
}
