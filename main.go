package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/illarion/credseal/cmd"
	"github.com/illarion/credseal/internal/certstore"
)

func main() {
	// Wipe protected memory on Ctrl+C
	memguard.CatchInterrupt()
	defer memguard.Purge()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		runInit(os.Args[2:])
	case "import":
		runImport(os.Args[2:])
	case "ls":
		runLs(os.Args[2:])
	case "rm":
		runRm(os.Args[2:])
	case "encrypt":
		runEncrypt(os.Args[2:])
	case "decrypt":
		runDecrypt(os.Args[2:])
	case "protect":
		runProtect(os.Args[2:])
	case "unprotect":
		runUnprotect(os.Args[2:])
	case "keyring":
		runKeyring(os.Args[2:])
	case "status":
		runStatus(os.Args[2:])
	case "compact":
		runCompact(os.Args[2:])
	case "completion":
		runCompletion(os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// newFlagSet returns a flag set carrying the --debug flag shared by all commands
func newFlagSet(name string) (*flag.FlagSet, *bool) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	debug := fs.Bool("debug", false, "Log diagnostics to stderr")
	return fs, debug
}

func parse(fs *flag.FlagSet, args []string) {
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// storeFlags registers --location and --store; empty values mean "as configured"
func storeFlags(fs *flag.FlagSet) (location, name *string) {
	location = fs.String("location", "", "Store location: LocalMachine or CurrentUser")
	name = fs.String("store", "", "Store name, e.g. My, Root, CA, TrustedPeople")
	return location, name
}

func resolveStore(env *cmd.Env, location, name string) (certstore.StoreLocation, certstore.StoreName) {
	loc := env.Config.Location()
	if location != "" {
		parsed, err := certstore.ParseLocation(location)
		if err != nil {
			cmd.HandleError(err)
		}
		loc = parsed
	}

	storeName := env.Config.Name()
	if name != "" {
		storeName = certstore.StoreName(name)
	}
	return loc, storeName
}

func runInit(args []string) {
	fs, debug := newFlagSet("init")
	parse(fs, args)

	env := cmd.Setup(*debug)
	cmd.Init(env)
	env.Finish()
}

func runImport(args []string) {
	fs, debug := newFlagSet("import")
	location, name := storeFlags(fs)
	keyPath := fs.String("key", "", "PEM private key file for a certificate without one")
	parse(fs, args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: credseal import [--location L] [--store S] [--key key.pem] <certificate file>")
		os.Exit(1)
	}

	env := cmd.Setup(*debug)
	loc, storeName := resolveStore(env, *location, *name)
	cmd.Import(env, fs.Arg(0), *keyPath, loc, storeName)
	env.Finish()
}

func runLs(args []string) {
	fs, debug := newFlagSet("ls")
	location, name := storeFlags(fs)
	all := fs.Bool("all", false, "List every store in both locations")
	parse(fs, args)

	env := cmd.Setup(*debug)
	loc, storeName := resolveStore(env, *location, *name)
	cmd.Ls(env, loc, storeName, *all)
	env.Finish()
}

func runRm(args []string) {
	fs, debug := newFlagSet("rm")
	location, name := storeFlags(fs)
	parse(fs, args)

	env := cmd.Setup(*debug)
	loc, storeName := resolveStore(env, *location, *name)
	cmd.Remove(env, loc, storeName, fs.Args())
	env.Finish()
}

// thumbprintFlag registers -t/--thumbprint
func thumbprintFlag(fs *flag.FlagSet) *string {
	thumbprint := fs.String("thumbprint", "", "Certificate thumbprint (SHA-1, hex)")
	fs.StringVar(thumbprint, "t", "", "Certificate thumbprint (shorthand)")
	return thumbprint
}

func requireThumbprint(command, thumbprint string) {
	if thumbprint == "" {
		fmt.Fprintf(os.Stderr, "Usage: credseal %s --thumbprint <thumbprint> [value|-]\n", command)
		os.Exit(1)
	}
}

func runEncrypt(args []string) {
	fs, debug := newFlagSet("encrypt")
	thumbprint := thumbprintFlag(fs)
	parse(fs, args)
	requireThumbprint("encrypt", *thumbprint)

	env := cmd.Setup(*debug)
	cmd.Encrypt(env, *thumbprint, fs.Args())
	env.Finish()
}

func runDecrypt(args []string) {
	fs, debug := newFlagSet("decrypt")
	thumbprint := thumbprintFlag(fs)
	parse(fs, args)
	requireThumbprint("decrypt", *thumbprint)

	env := cmd.Setup(*debug)
	cmd.Decrypt(env, *thumbprint, fs.Args())
	env.Finish()
}

func runProtect(args []string) {
	fs, debug := newFlagSet("protect")
	parse(fs, args)

	env := cmd.Setup(*debug)
	cmd.Protect(env, fs.Args())
	env.Finish()
}

func runUnprotect(args []string) {
	fs, debug := newFlagSet("unprotect")
	scope := fs.String("scope", "", "Unprotect scope: machine or user (default from config)")
	parse(fs, args)

	env := cmd.Setup(*debug)
	cmd.Unprotect(env, *scope, fs.Args())
	env.Finish()
}

func runKeyring(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: credseal keyring <status|delete>")
		os.Exit(1)
	}

	fs, debug := newFlagSet("keyring " + args[0])
	scope := fs.String("scope", "", "Key scope: machine or user")
	force := fs.Bool("force", false, "Delete even though protected values become unrecoverable")
	parse(fs, args[1:])

	switch args[0] {
	case "status":
		env := cmd.Setup(*debug)
		cmd.KeyringStatus(env)
		env.Finish()
	case "delete":
		if *scope == "" {
			fmt.Fprintln(os.Stderr, "Usage: credseal keyring delete --scope <machine|user> [--force]")
			os.Exit(1)
		}
		env := cmd.Setup(*debug)
		cmd.KeyringDelete(env, *scope, *force)
		env.Finish()
	default:
		fmt.Fprintf(os.Stderr, "Unknown keyring command: %s\n", args[0])
		fmt.Fprintln(os.Stderr, "Usage: credseal keyring <status|delete>")
		os.Exit(1)
	}
}

func runStatus(args []string) {
	fs, debug := newFlagSet("status")
	parse(fs, args)

	env := cmd.Setup(*debug)
	cmd.Status(env)
	env.Finish()
}

func runCompact(args []string) {
	fs, debug := newFlagSet("compact")
	parse(fs, args)

	env := cmd.Setup(*debug)
	cmd.Compact(env)
	env.Finish()
}

func runCompletion(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: credseal completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("credseal - Certificate-based encryption and OS-backed secret protection")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  credseal <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init        Create the certificate store")
	fmt.Println("  import      Import a certificate (PEM, DER or PFX)")
	fmt.Println("  ls          List certificates")
	fmt.Println("  rm          Remove certificates")
	fmt.Println("  encrypt     Encrypt text with a certificate")
	fmt.Println("  decrypt     Decrypt text with a certificate")
	fmt.Println("  protect     Protect a secret with the machine key")
	fmt.Println("  unprotect   Recover a protected secret")
	fmt.Println("  keyring     Manage data protection keys in the OS keyring")
	fmt.Println("  status      Show store, keyring and git status")
	fmt.Println("  compact     Compact the certificate store")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  credseal init                                # Create the store")
	fmt.Println("  credseal import server.pfx                   # Import into LocalMachine/My")
	fmt.Println("  credseal encrypt -t 3B6F... 'db-password'    # Encrypt for a certificate")
	fmt.Println("  credseal protect < secret.txt                # Protect a secret")
	fmt.Println()
	fmt.Println("Use 'credseal help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "init":
		fmt.Println("credseal init")
		fmt.Println()
		fmt.Println("Creates the certificate store at the configured store_path")
		fmt.Println("(CREDSEAL_STORE). The store holds private keys: keep it out of git.")
	case "import":
		fmt.Println("credseal import [--location L] [--store S] [--key key.pem] <file>")
		fmt.Println()
		fmt.Println("Imports a certificate from PEM, DER (.cer) or PKCS#12 (.pfx) data.")
		fmt.Println("PFX passwords come from CREDSEAL_PFX_PASSWORD or a prompt.")
		fmt.Println("Certificates imported without a private key can encrypt but not decrypt.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --location   LocalMachine (default) or CurrentUser")
		fmt.Println("  --store      Store name (default My)")
		fmt.Println("  --key        Separate PEM private key")
	case "ls":
		fmt.Println("credseal ls [--location L] [--store S] [--all]")
		fmt.Println()
		fmt.Println("Lists certificates with thumbprint, subject and expiry.")
	case "rm":
		fmt.Println("credseal rm [--location L] [--store S] <thumbprint> [thumbprint...]")
		fmt.Println()
		fmt.Println("Removes certificates and their private keys, then compacts the store.")
	case "encrypt":
		fmt.Println("credseal encrypt --thumbprint <thumbprint> [text|-]")
		fmt.Println()
		fmt.Println("Encrypts text with the certificate's public key (RSA-OAEP) and prints")
		fmt.Println("it as base64. Text comes from the argument, stdin, or a prompt.")
		fmt.Println("Exits with an error when the certificate is not installed.")
	case "decrypt":
		fmt.Println("credseal decrypt --thumbprint <thumbprint> [ciphertext|-]")
		fmt.Println()
		fmt.Println("Decrypts base64 ciphertext with the certificate's private key.")
		fmt.Println("The private key must be in the LocalMachine key set.")
	case "protect":
		fmt.Println("credseal protect [secret|-]")
		fmt.Println()
		fmt.Println("Protects a secret with the machine master key from the OS keyring")
		fmt.Println("and prints it as base64. The secret comes from the argument, stdin,")
		fmt.Println("CREDSEAL_SECRET, or a confirmed prompt.")
	case "unprotect":
		fmt.Println("credseal unprotect [--scope machine|user] [value|-]")
		fmt.Println()
		fmt.Println("Recovers a protected secret. Unprotect uses user scope unless")
		fmt.Println("unprotect_scope or --scope says otherwise, so values from")
		fmt.Println("'credseal protect' need --scope machine.")
	case "keyring":
		fmt.Println("credseal keyring <status|delete>")
		fmt.Println()
		fmt.Println("Manages the data protection master keys in the OS keyring.")
		fmt.Println()
		fmt.Println("Subcommands:")
		fmt.Println("  status                           Show which keys are stored")
		fmt.Println("  delete --scope <scope> --force   Remove a key")
	case "status":
		fmt.Println("credseal status")
		fmt.Println()
		fmt.Println("Shows the store, certificate counts, keyring keys and git integration.")
	case "compact":
		fmt.Println("credseal compact")
		fmt.Println()
		fmt.Println("Compacts the certificate store to reclaim disk space.")
	case "completion":
		fmt.Println("credseal completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs a shell completion script.")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  eval \"$(credseal completion bash)\"")
		fmt.Println("  credseal completion fish > ~/.config/fish/completions/credseal.fish")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}
