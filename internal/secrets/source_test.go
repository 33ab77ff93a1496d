package secrets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTokenSourcePriority(t *testing.T) {
	key := DeriveKey("source-test")

	bundledSealed, err := Seal(key, "bundled-token")
	if err != nil {
		t.Fatal(err)
	}

	configDir := t.TempDir()
	configSealed, err := Seal(key, "configured-token")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, secretFileName), []byte(configSealed), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GITHUB_TOKEN", "env-token")
	t.Setenv("GH_TOKEN", "")

	// All three sources present: bundled wins.
	store := NewStoreWithKey(key, map[string]string{NameGitHubToken: bundledSealed})
	ts := NewTokenSource(store, configDir)
	if got := ts.GitHubToken(); got != "bundled-token" {
		t.Errorf("token = %q, want bundled-token", got)
	}

	// No bundled secret: configured file wins.
	store = NewStoreWithKey(key, map[string]string{})
	ts = NewTokenSource(store, configDir)
	if got := ts.GitHubToken(); got != "configured-token" {
		t.Errorf("token = %q, want configured-token", got)
	}

	// Neither bundled nor configured: environment wins.
	ts = NewTokenSource(store, t.TempDir())
	if got := ts.GitHubToken(); got != "env-token" {
		t.Errorf("token = %q, want env-token", got)
	}

	// Nothing anywhere: empty, not an error.
	t.Setenv("GITHUB_TOKEN", "")
	ts = NewTokenSource(store, t.TempDir())
	if got := ts.GitHubToken(); got != "" {
		t.Errorf("token = %q, want empty", got)
	}
}

func TestTokenSourceIgnoresCorruptConfigFile(t *testing.T) {
	key := DeriveKey("source-test")
	configDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(configDir, secretFileName), []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GITHUB_TOKEN", "env-token")
	t.Setenv("GH_TOKEN", "")

	ts := NewTokenSource(NewStoreWithKey(key, nil), configDir)
	if got := ts.GitHubToken(); got != "env-token" {
		t.Errorf("token = %q, want env-token fallback", got)
	}
}

func TestSaveConfiguredToken(t *testing.T) {
	key := DeriveKey("source-test")
	configDir := filepath.Join(t.TempDir(), "nested")

	store := NewStoreWithKey(key, nil)
	ts := NewTokenSource(store, configDir)

	if err := ts.SaveConfiguredToken("ghp_saved"); err != nil {
		t.Fatalf("SaveConfiguredToken: %v", err)
	}

	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_TOKEN", "")
	if got := ts.GitHubToken(); got != "ghp_saved" {
		t.Errorf("token = %q, want ghp_saved", got)
	}
}
