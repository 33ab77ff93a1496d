package handoff

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestApplyReplaces(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "new")
	target := filepath.Join(dir, "app")
	writeFile(t, source, "version two", 0o644)
	writeFile(t, target, "version one", 0o755)

	if err := Apply(source, target); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("reading target: %v", err)
	}
	if string(got) != "version two" {
		t.Errorf("target content = %q, want %q", got, "version two")
	}
	if _, err := os.Stat(target + ".backup"); !os.IsNotExist(err) {
		t.Errorf("backup not cleaned up")
	}
}

func TestApplyIdempotent(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "new")
	target := filepath.Join(dir, "app")
	writeFile(t, source, "same bytes", 0o644)
	writeFile(t, target, "same bytes", 0o755)

	if err := Apply(source, target); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// Identical content is a no-op, so the source stays in place.
	if _, err := os.Stat(source); err != nil {
		t.Errorf("source removed on identical content: %v", err)
	}
}

func TestApplyPreservesMode(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "new")
	target := filepath.Join(dir, "app")
	writeFile(t, source, "payload", 0o600)
	writeFile(t, target, "old", 0o755)

	if err := Apply(source, target); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	info, err := os.Stat(target)
	if err != nil {
		t.Fatal(err)
	}
	if got := info.Mode().Perm(); got != 0o755 {
		t.Errorf("target mode = %v, want 0755", got)
	}
}

func TestApplyNoExistingTarget(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "new")
	target := filepath.Join(dir, "app")
	writeFile(t, source, "fresh install", 0o644)

	if err := Apply(source, target); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got, _ := os.ReadFile(target)
	if string(got) != "fresh install" {
		t.Errorf("target content = %q", got)
	}
}

func TestApplyMissingSource(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "app")
	writeFile(t, target, "old", 0o755)

	if err := Apply(filepath.Join(dir, "absent"), target); err == nil {
		t.Fatal("expected error for missing source")
	}
	// The original executable is restored.
	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("target missing after failed apply: %v", err)
	}
	if string(got) != "old" {
		t.Errorf("target content = %q, want rollback to %q", got, "old")
	}
}
