package release

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/cyberionsoft/devmanager/internal/branding"
)

var (
	// ErrDownloadFailed is returned when an artifact cannot be retrieved.
	ErrDownloadFailed = errors.New("artifact download failed")

	// ErrHashMismatch is returned when a downloaded artifact does not match
	// its expected SHA-256. The partial file is removed before returning.
	ErrHashMismatch = errors.New("artifact hash mismatch")
)

// ProgressFunc receives streaming download progress. total is -1 when the
// server did not announce a content length.
type ProgressFunc func(written, total int64)

// DownloadAsset streams an asset to destPath. The transfer goes to a
// temporary sibling file first; when expectedSHA is non-empty the recomputed
// digest must match before the file is moved into place — a mismatch deletes
// the partial file and fails with ErrHashMismatch.
func (c *Client) DownloadAsset(ctx context.Context, asset Asset, destPath, expectedSHA string, progress ProgressFunc) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.DownloadURL, nil)
	if err != nil {
		return fmt.Errorf("%w: creating request: %v", ErrDownloadFailed, err)
	}
	req.Header.Set("User-Agent", branding.CLIName()+"-updater")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrDownloadFailed, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	partial := destPath + ".partial"
	f, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("%w: creating file: %v", ErrDownloadFailed, err)
	}

	hasher := sha256.New()
	written, copyErr := copyWithProgress(f, io.TeeReader(resp.Body, hasher), resp.ContentLength, progress)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(partial)
		if copyErr == nil {
			copyErr = closeErr
		}
		return fmt.Errorf("%w: %v", ErrDownloadFailed, copyErr)
	}

	if expectedSHA != "" {
		actual := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(actual, expectedSHA) {
			os.Remove(partial)
			return fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, expectedSHA, actual)
		}
	}

	if err := os.Rename(partial, destPath); err != nil {
		os.Remove(partial)
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	log.Debugf("downloaded %s (%d bytes) to %s", asset.Name, written, destPath)
	return nil
}

func copyWithProgress(dst io.Writer, src io.Reader, total int64, progress ProgressFunc) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return written, writeErr
			}
			written += int64(n)
			if progress != nil {
				progress(written, total)
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

// FetchChecksum downloads the release's checksums.txt asset (when published)
// and returns the expected SHA-256 for assetName. An absent checksums asset
// or a missing entry returns an empty string with no error: the channel may
// not publish hashes for every release.
func (c *Client) FetchChecksum(ctx context.Context, rel *Release, assetName string) (string, error) {
	var checksumAsset *Asset
	for i := range rel.Assets {
		if rel.Assets[i].Name == "checksums.txt" {
			checksumAsset = &rel.Assets[i]
			break
		}
	}
	if checksumAsset == nil {
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, checksumAsset.DownloadURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: creating checksum request: %v", ErrDownloadFailed, err)
	}
	req.Header.Set("User-Agent", branding.CLIName()+"-updater")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: downloading checksums: %v", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: checksums download status %d", ErrDownloadFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading checksums: %v", ErrDownloadFailed, err)
	}

	// Each line is "sha256  filename".
	for _, line := range strings.Split(string(body), "\n") {
		parts := strings.Fields(line)
		if len(parts) == 2 && parts[1] == assetName {
			return parts[0], nil
		}
	}
	return "", nil
}
