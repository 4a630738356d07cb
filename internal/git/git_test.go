package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %s failed: %v\n%s", strings.Join(args, " "), err, output)
	}
}

func newTestRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	runGit(t, dir, "init", "-q")
	return dir
}

func TestCheckGitIntegrationNotRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	status, err := CheckGitIntegration(t.TempDir(), "store.db", nil)
	if err != nil {
		t.Fatalf("CheckGitIntegration failed: %v", err)
	}
	if status.IsRepo {
		t.Error("Expected IsRepo to be false")
	}
	if FormatGitStatus(status) != "" {
		t.Error("Expected empty output outside a repository")
	}
}

func TestCheckGitIntegrationStore(t *testing.T) {
	dir := newTestRepo(t)
	storePath := filepath.Join(dir, "store.db")
	if err := os.WriteFile(storePath, []byte("data"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CREDSEAL_SECRET=x\n"), 0600); err != nil {
		t.Fatal(err)
	}

	status, err := CheckGitIntegration(dir, storePath, []string{".env"})
	if err != nil {
		t.Fatalf("CheckGitIntegration failed: %v", err)
	}
	if !status.IsRepo || !status.StoreInRepo {
		t.Fatalf("Expected store inside repository, got %+v", status)
	}
	if status.StoreTracked || status.StoreIgnored {
		t.Errorf("Expected untracked, unignored store, got %+v", status)
	}
	if len(status.UnignoredSecrets) != 1 {
		t.Errorf("Expected .env to be reported, got %v", status.UnignoredSecrets)
	}
	if out := FormatGitStatus(status); !strings.Contains(out, "not in .gitignore") {
		t.Errorf("Expected gitignore warning, got %q", out)
	}

	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("store.db\n.env\n"), 0600); err != nil {
		t.Fatal(err)
	}
	status, err = CheckGitIntegration(dir, storePath, []string{".env"})
	if err != nil {
		t.Fatalf("CheckGitIntegration failed: %v", err)
	}
	if !status.StoreIgnored || len(status.UnignoredSecrets) != 0 {
		t.Errorf("Expected everything ignored, got %+v", status)
	}
}

func TestCheckGitIntegrationStoreOutside(t *testing.T) {
	dir := newTestRepo(t)

	status, err := CheckGitIntegration(dir, filepath.Join(t.TempDir(), "store.db"), nil)
	if err != nil {
		t.Fatalf("CheckGitIntegration failed: %v", err)
	}
	if status.StoreInRepo {
		t.Error("Expected store outside repository")
	}
	if out := FormatGitStatus(status); !strings.Contains(out, "outside the repository") {
		t.Errorf("Unexpected output %q", out)
	}
}

func TestFormatGitStatusTrackedStore(t *testing.T) {
	out := FormatGitStatus(&GitStatus{
		IsRepo:         true,
		StorePath:      "store.db",
		StoreInRepo:    true,
		StoreTracked:   true,
		TrackedSecrets: []string{".env"},
	})

	if !strings.Contains(out, "error: store.db is tracked") {
		t.Errorf("Expected tracked store error, got %q", out)
	}
	if !strings.Contains(out, "git rm --cached .env") {
		t.Errorf("Expected .env remedy, got %q", out)
	}
}
