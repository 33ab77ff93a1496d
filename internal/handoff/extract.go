package handoff

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExtractExecutable pulls the file named exeName out of the zip archive at
// archivePath and writes it to destPath. Archive entries are matched on the
// base name so release archives may nest the executable in a directory.
func ExtractExecutable(archivePath, exeName, destPath string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if !safeArchivePath(f.Name) {
			return fmt.Errorf("archive entry %q escapes extraction root", f.Name)
		}
		if filepath.Base(f.Name) != exeName {
			continue
		}
		return writeEntry(f, destPath)
	}
	return fmt.Errorf("archive %s does not contain %s", filepath.Base(archivePath), exeName)
}

// ExtractAll unpacks every entry of the archive under destDir, preserving the
// archive's directory layout.
func ExtractAll(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if !safeArchivePath(f.Name) {
			return fmt.Errorf("archive entry %q escapes extraction root", f.Name)
		}
		dest := filepath.Join(destDir, filepath.FromSlash(f.Name))
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := writeEntry(f, dest); err != nil {
			return err
		}
	}
	return nil
}

func safeArchivePath(name string) bool {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return false
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return false
	}
	return true
}

func writeEntry(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("reading archive entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return err
	}
	return out.Close()
}
