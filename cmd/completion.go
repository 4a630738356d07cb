package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		Exit(1)
	}
}

const bashCompletion = `_credseal() {
    local cur prev words cword
    _init_completion || return

    local commands="init import ls rm encrypt decrypt protect unprotect keyring status compact help completion"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    case "$prev" in
        --location)
            COMPREPLY=($(compgen -W "LocalMachine CurrentUser" -- "$cur"))
            return
            ;;
        --store)
            COMPREPLY=($(compgen -W "My Root CA TrustedPeople" -- "$cur"))
            return
            ;;
        --scope)
            COMPREPLY=($(compgen -W "machine user" -- "$cur"))
            return
            ;;
        --thumbprint|-t)
            local prints
            prints=$(credseal ls 2>/dev/null | grep -oE '^  [0-9A-F]{40}' | tr -d ' ')
            COMPREPLY=($(compgen -W "$prints" -- "$cur"))
            return
            ;;
    esac

    local cmd="${words[1]}"
    case "$cmd" in
        import)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--location --store --key --debug" -- "$cur"))
            else
                _filedir
            fi
            ;;
        ls)
            COMPREPLY=($(compgen -W "--location --store --all --debug" -- "$cur"))
            ;;
        rm)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "--location --store --debug" -- "$cur"))
            else
                local prints
                prints=$(credseal ls 2>/dev/null | grep -oE '^  [0-9A-F]{40}' | tr -d ' ')
                COMPREPLY=($(compgen -W "$prints" -- "$cur"))
            fi
            ;;
        encrypt|decrypt)
            COMPREPLY=($(compgen -W "--thumbprint --debug" -- "$cur"))
            ;;
        unprotect)
            COMPREPLY=($(compgen -W "--scope --debug" -- "$cur"))
            ;;
        keyring)
            if [[ $cword -eq 2 ]]; then
                COMPREPLY=($(compgen -W "status delete" -- "$cur"))
            else
                COMPREPLY=($(compgen -W "--scope --force" -- "$cur"))
            fi
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _credseal credseal
`

const zshCompletion = `#compdef credseal

_credseal() {
    local -a commands
    commands=(
        'init:Create the certificate store'
        'import:Import a certificate (PEM, DER or PFX)'
        'ls:List certificates'
        'rm:Remove certificates'
        'encrypt:Encrypt text with a certificate'
        'decrypt:Decrypt text with a certificate'
        'protect:Protect a secret with the machine key'
        'unprotect:Recover a protected secret'
        'keyring:Manage data protection keys in the OS keyring'
        'status:Show store, keyring and git status'
        'compact:Compact the certificate store'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'credseal commands' commands
            ;;
        args)
            case "${words[2]}" in
                import)
                    _arguments \
                        '--location[Store location]:location:(LocalMachine CurrentUser)' \
                        '--store[Store name]:store:(My Root CA TrustedPeople)' \
                        '--key[PEM private key file]:key file:_files' \
                        '*:certificate file:_files'
                    ;;
                ls)
                    _arguments \
                        '--location[Store location]:location:(LocalMachine CurrentUser)' \
                        '--store[Store name]:store:(My Root CA TrustedPeople)' \
                        '--all[List every store]'
                    ;;
                rm)
                    _arguments \
                        '--location[Store location]:location:(LocalMachine CurrentUser)' \
                        '--store[Store name]:store:(My Root CA TrustedPeople)' \
                        '*:thumbprint:_credseal_thumbprints'
                    ;;
                encrypt|decrypt)
                    _arguments '--thumbprint[Certificate thumbprint]:thumbprint:_credseal_thumbprints'
                    ;;
                unprotect)
                    _arguments '--scope[Unprotect scope]:scope:(machine user)'
                    ;;
                keyring)
                    _values 'subcommand' status delete
                    ;;
                help)
                    _describe -t commands 'credseal commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_credseal_thumbprints() {
    local -a prints
    prints=(${(f)"$(credseal ls 2>/dev/null | grep -oE '^  [0-9A-F]{40}' | tr -d ' ')"})
    _describe -t thumbprints 'thumbprints' prints
}

_credseal "$@"
`

const fishCompletion = `# credseal fish completions

set -l commands init import ls rm encrypt decrypt protect unprotect keyring status compact help completion

complete -c credseal -f

# Commands
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a init -d 'Create the certificate store'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a import -d 'Import a certificate'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a ls -d 'List certificates'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a rm -d 'Remove certificates'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a encrypt -d 'Encrypt text with a certificate'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a decrypt -d 'Decrypt text with a certificate'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a protect -d 'Protect a secret'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a unprotect -d 'Recover a protected secret'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage keys in OS keyring'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show status'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a compact -d 'Compact store'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c credseal -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# store selection
complete -c credseal -n "__fish_seen_subcommand_from import ls rm" -l location -xa "LocalMachine CurrentUser"
complete -c credseal -n "__fish_seen_subcommand_from import ls rm" -l store -xa "My Root CA TrustedPeople"
complete -c credseal -n "__fish_seen_subcommand_from ls" -l all -d 'List every store'
complete -c credseal -n "__fish_seen_subcommand_from import" -l key -r -F -d 'PEM private key file'
complete -c credseal -n "__fish_seen_subcommand_from import" -F

# thumbprints
complete -c credseal -n "__fish_seen_subcommand_from encrypt decrypt" -l thumbprint -s t -xa "(credseal ls 2>/dev/null | string match -r '^  [0-9A-F]{40}' | string trim)"
complete -c credseal -n "__fish_seen_subcommand_from rm" -a "(credseal ls 2>/dev/null | string match -r '^  [0-9A-F]{40}' | string trim)"

# scopes
complete -c credseal -n "__fish_seen_subcommand_from unprotect keyring" -l scope -xa "machine user"
complete -c credseal -n "__fish_seen_subcommand_from keyring" -l force -d 'Delete without refusing'

# keyring subcommands
complete -c credseal -n "__fish_seen_subcommand_from keyring" -a "status delete"

# help completions
complete -c credseal -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c credseal -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
