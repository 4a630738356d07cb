package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitStatus contains git integration status information
type GitStatus struct {
	IsRepo           bool
	StorePath        string
	StoreInRepo      bool     // Store file lies inside the work tree
	StoreTracked     bool     // Store tracked by git (bad: it holds private keys)
	StoreIgnored     bool     // Store in .gitignore (good)
	TrackedSecrets   []string // Plaintext files tracked by git (bad)
	UnignoredSecrets []string // Plaintext files not in .gitignore (warning)
}

// IsGitRepo checks if the working directory is inside a git repository
func IsGitRepo(workDir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	err := cmd.Run()
	return err == nil
}

// TopLevel returns the root of the work tree containing workDir
func TopLevel(workDir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = workDir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to find repository root: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(workDir, path string) bool {
	cmd := exec.Command("git", "ls-files", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()

	if err != nil {
		return false
	}

	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a file is ignored by git (handles all .gitignore files)
func IsIgnored(workDir, path string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", "--", path)
	cmd.Dir = workDir
	err := cmd.Run()

	// git check-ignore returns exit code 0 if file is ignored
	return err == nil
}

// CheckGitIntegration checks whether the certificate store and the given
// plaintext files (such as .env) are kept out of the repository at workDir
func CheckGitIntegration(workDir, storePath string, secretFiles []string) (*GitStatus, error) {
	status := &GitStatus{StorePath: storePath}

	if !IsGitRepo(workDir) {
		return status, nil
	}
	status.IsRepo = true

	top, err := TopLevel(workDir)
	if err != nil {
		return nil, err
	}
	status.StoreInRepo = isWithin(top, storePath)
	if status.StoreInRepo {
		status.StoreTracked = IsTracked(workDir, storePath)
		status.StoreIgnored = IsIgnored(workDir, storePath)
	}

	for _, file := range secretFiles {
		if IsTracked(workDir, file) {
			status.TrackedSecrets = append(status.TrackedSecrets, file)
		} else if !IsIgnored(workDir, file) {
			status.UnignoredSecrets = append(status.UnignoredSecrets, file)
		}
	}

	return status, nil
}

func isWithin(root, path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	// Resolve symlinks so that e.g. /tmp and /private/tmp compare equal
	if resolved, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(resolved, filepath.Base(abs))
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// FormatGitStatus formats git status for display
func FormatGitStatus(status *GitStatus) string {
	if !status.IsRepo {
		return ""
	}

	var result strings.Builder
	result.WriteString("\nGit Integration:\n")

	switch {
	case !status.StoreInRepo:
		result.WriteString("   ok: certificate store is outside the repository\n")
	case status.StoreTracked:
		result.WriteString(fmt.Sprintf("   error: %s is tracked by git and contains private keys (run: git rm --cached %s)\n",
			status.StorePath, status.StorePath))
	case !status.StoreIgnored:
		result.WriteString(fmt.Sprintf("   warning: %s not in .gitignore (add to .gitignore)\n", status.StorePath))
	default:
		result.WriteString("   ok: certificate store is in .gitignore\n")
	}

	for _, file := range status.TrackedSecrets {
		result.WriteString(fmt.Sprintf("   error: %s tracked by git (run: git rm --cached %s)\n", file, file))
	}
	for _, file := range status.UnignoredSecrets {
		result.WriteString(fmt.Sprintf("   warning: %s not in .gitignore\n", file))
	}

	return result.String()
}
