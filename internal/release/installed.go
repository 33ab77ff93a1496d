package release

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"
)

const installedFileName = "installed_version.json"

// installedRecord tracks which worker version is on disk. The worker binary
// has no reliable introspectable version, so the manager records what it
// installed.
type installedRecord struct {
	Versions  map[string]string `json:"versions"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// InstalledVersion returns the recorded version for an app, or nil when no
// prior version is recorded — which sorts below any published version.
func InstalledVersion(configDir, app string) (*semver.Version, error) {
	data, err := os.ReadFile(filepath.Join(configDir, installedFileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading installed versions: %w", err)
	}

	var rec installedRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing installed versions: %w", err)
	}

	tag, ok := rec.Versions[app]
	if !ok || tag == "" {
		return nil, nil
	}
	return ParseVersion(tag)
}

// RecordInstalledVersion stores the version that was just installed for an app.
func RecordInstalledVersion(configDir, app, version string) error {
	path := filepath.Join(configDir, installedFileName)

	rec := installedRecord{Versions: map[string]string{}}
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, &rec)
		if rec.Versions == nil {
			rec.Versions = map[string]string{}
		}
	}

	rec.Versions[app] = version
	rec.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling installed versions: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing installed versions: %w", err)
	}
	return nil
}
