// Package buildrel implements the developer-side release flow: packaging a
// built application directory into the platform archive and publishing it to
// the GitHub release channel together with its checksums and the version
// manifest.
package buildrel

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Artifact describes one packaged release archive.
type Artifact struct {
	Path     string
	Name     string
	Size     int64
	Checksum string // hex SHA-256
}

// PackageDir zips the contents of srcDir into outDir under assetName and
// writes a ".sha256" sidecar next to the archive.
func PackageDir(srcDir, outDir, assetName string) (*Artifact, error) {
	info, err := os.Stat(srcDir)
	if err != nil {
		return nil, fmt.Errorf("reading build directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", srcDir)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	archivePath := filepath.Join(outDir, assetName)
	if err := zipDir(srcDir, archivePath); err != nil {
		os.Remove(archivePath)
		return nil, err
	}

	checksum, size, err := fileDigest(archivePath)
	if err != nil {
		return nil, err
	}

	sidecar := archivePath + ".sha256"
	line := fmt.Sprintf("%s  %s\n", checksum, assetName)
	if err := os.WriteFile(sidecar, []byte(line), 0o644); err != nil {
		return nil, fmt.Errorf("writing checksum sidecar: %w", err)
	}

	return &Artifact{
		Path:     archivePath,
		Name:     assetName,
		Size:     size,
		Checksum: checksum,
	}, nil
}

// WriteChecksums writes the aggregate checksums.txt the channel publishes:
// one "hash  filename" line per artifact, sorted by filename.
func WriteChecksums(artifacts []*Artifact, path string) error {
	sorted := make([]*Artifact, len(artifacts))
	copy(sorted, artifacts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	for _, a := range sorted {
		fmt.Fprintf(&b, "%s  %s\n", a.Checksum, a.Name)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing checksums file: %w", err)
	}
	return nil
}

func zipDir(srcDir, archivePath string) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	err = filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		hdr.Method = zip.Deflate

		ew, err := w.CreateHeader(hdr)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(ew, f)
		return err
	})
	if err != nil {
		w.Close()
		return fmt.Errorf("archiving %s: %w", srcDir, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return out.Close()
}

func fileDigest(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}
