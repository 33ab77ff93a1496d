package handoff

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func buildZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range entries {
		ew, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := ew.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestExtractExecutable(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "release.zip")
	buildZip(t, archive, map[string]string{
		"README.md":      "docs",
		"bin/devmanager": "binary payload",
	})

	dest := filepath.Join(dir, "devmanager")
	if err := ExtractExecutable(archive, "devmanager", dest); err != nil {
		t.Fatalf("ExtractExecutable: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "binary payload" {
		t.Errorf("extracted content = %q", got)
	}
}

func TestExtractExecutableNotFound(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "release.zip")
	buildZip(t, archive, map[string]string{"other": "x"})

	err := ExtractExecutable(archive, "devmanager", filepath.Join(dir, "out"))
	if err == nil {
		t.Fatal("expected error when executable is absent from archive")
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.zip")
	buildZip(t, archive, map[string]string{"../escape": "x"})

	if err := ExtractAll(archive, filepath.Join(dir, "out")); err == nil {
		t.Fatal("expected traversal entry to be rejected")
	}
	if _, err := os.Stat(filepath.Join(dir, "escape")); !os.IsNotExist(err) {
		t.Error("traversal entry was written outside extraction root")
	}
}

func TestExtractAll(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "release.zip")
	buildZip(t, archive, map[string]string{
		"app/devmanager":  "bin",
		"app/config.yaml": "settings",
	})

	out := filepath.Join(dir, "out")
	if err := ExtractAll(archive, out); err != nil {
		t.Fatalf("ExtractAll: %v", err)
	}
	for _, rel := range []string{"app/devmanager", "app/config.yaml"} {
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing extracted file %s: %v", rel, err)
		}
	}
}
