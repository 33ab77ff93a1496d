package handoff

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cyberionsoft/devmanager/internal/platform"
)

// ErrWaitTimeout is returned when the old process does not exit within the
// wait budget. No file is written after a timeout.
var ErrWaitTimeout = errors.New("timed out waiting for process exit")

// Apply replaces target with source. The operation is idempotent: when the
// two files already have identical content it does nothing, so re-running an
// interrupted handoff is safe. On failure the previous target is restored
// from the backup.
func Apply(source, target string) error {
	same, err := sameContent(source, target)
	if err == nil && same {
		return nil
	}

	origPerm := os.FileMode(0o755)
	if info, err := os.Stat(target); err == nil {
		origPerm = info.Mode().Perm()
	}

	backup := target + ".backup"

	if _, err := os.Stat(target); err == nil {
		if err := os.Rename(target, backup); err != nil {
			// Rename may fail across filesystems; try copy.
			if copyErr := copyFile(target, backup); copyErr != nil {
				return fmt.Errorf("creating backup: %w", copyErr)
			}
			os.Remove(target)
		}
	}

	if err := os.Rename(source, target); err != nil {
		if copyErr := copyFile(source, target); copyErr != nil {
			rollback(backup, target)
			return fmt.Errorf("installing new executable: %w", copyErr)
		}
		os.Remove(source)
	}

	if err := platform.Chmod(target, origPerm); err != nil {
		return fmt.Errorf("restoring permissions: %w", err)
	}

	os.Remove(backup)
	return nil
}

func rollback(backup, target string) {
	if _, err := os.Stat(backup); err != nil {
		return
	}
	if err := os.Rename(backup, target); err != nil {
		if copyErr := copyFile(backup, target); copyErr == nil {
			os.Remove(backup)
		}
	}
}

func sameContent(a, b string) (bool, error) {
	ha, err := fileSHA256(a)
	if err != nil {
		return false, err
	}
	hb, err := fileSHA256(b)
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
