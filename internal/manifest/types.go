// Package manifest reads and writes the channel-side versions.json document
// published alongside releases: the latest version and per-platform build
// records for each application.
package manifest

import (
	"fmt"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/cyberionsoft/devmanager/internal/branding"
)

// SchemaVersion identifies the manifest document layout.
const SchemaVersion = "1.0"

// Manifest is the root versions.json document.
type Manifest struct {
	SchemaVersion string               `json:"schema_version" yaml:"schema_version"`
	LastUpdated   time.Time            `json:"last_updated" yaml:"last_updated"`
	Repository    Repository           `json:"repository" yaml:"repository"`
	Apps          map[string]*AppEntry `json:"apps" yaml:"apps"`
}

// Repository records which GitHub repository publishes the manifest.
type Repository struct {
	Owner string `json:"owner" yaml:"owner"`
	Name  string `json:"name" yaml:"name"`
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`
}

// AppEntry holds the published state of one application.
type AppEntry struct {
	LatestVersion string               `json:"latest_version,omitempty" yaml:"latest_version,omitempty"`
	ReleaseNotes  string               `json:"release_notes,omitempty" yaml:"release_notes,omitempty"`
	Builds        map[string]BuildInfo `json:"builds" yaml:"builds"`
	History       []HistoryEntry       `json:"version_history,omitempty" yaml:"version_history,omitempty"`
}

// BuildInfo describes one platform archive of a published version.
type BuildInfo struct {
	Version     string    `json:"version" yaml:"version"`
	Filename    string    `json:"filename" yaml:"filename"`
	Size        int64     `json:"size" yaml:"size"`
	Checksum    string    `json:"checksum" yaml:"checksum"`
	DownloadURL string    `json:"download_url" yaml:"download_url"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// HistoryEntry is one row of an application's release history.
type HistoryEntry struct {
	Version      string    `json:"version" yaml:"version"`
	ReleaseNotes string    `json:"release_notes,omitempty" yaml:"release_notes,omitempty"`
	ReleasedAt   time.Time `json:"released_at" yaml:"released_at"`
}

// New returns an empty manifest for this project's release repository.
func New(repo string) *Manifest {
	return &Manifest{
		SchemaVersion: SchemaVersion,
		LastUpdated:   time.Now().UTC(),
		Repository: Repository{
			Owner: branding.GitHubOwner(),
			Name:  repo,
			URL:   fmt.Sprintf("https://github.com/%s/%s", branding.GitHubOwner(), repo),
		},
		Apps: map[string]*AppEntry{},
	}
}

// LatestVersion returns the published version of an app, "" when the app has
// never been released.
func (m *Manifest) LatestVersion(app string) string {
	entry, ok := m.Apps[app]
	if !ok {
		return ""
	}
	return entry.LatestVersion
}

// Build returns the build record for an app on one platform.
func (m *Manifest) Build(app, platform string) (BuildInfo, bool) {
	entry, ok := m.Apps[app]
	if !ok {
		return BuildInfo{}, false
	}
	b, ok := entry.Builds[platform]
	return b, ok
}

// SetRelease replaces an app's published version and its platform builds,
// pushing the previous version onto the history.
func (m *Manifest) SetRelease(app, version, notes string, builds map[string]BuildInfo) error {
	if _, err := semver.StrictNewVersion(version); err != nil {
		return fmt.Errorf("invalid release version %q: %w", version, err)
	}

	entry, ok := m.Apps[app]
	if !ok {
		entry = &AppEntry{}
		if m.Apps == nil {
			m.Apps = map[string]*AppEntry{}
		}
		m.Apps[app] = entry
	}

	entry.LatestVersion = version
	entry.ReleaseNotes = notes
	entry.Builds = builds
	m.LastUpdated = time.Now().UTC()

	m.addHistory(entry, version, notes)
	return nil
}

// addHistory inserts or refreshes the history row for version, keeping the
// list ordered newest first.
func (m *Manifest) addHistory(entry *AppEntry, version, notes string) {
	row := HistoryEntry{Version: version, ReleaseNotes: notes, ReleasedAt: time.Now().UTC()}
	replaced := false
	for i := range entry.History {
		if entry.History[i].Version == version {
			entry.History[i] = row
			replaced = true
			break
		}
	}
	if !replaced {
		entry.History = append(entry.History, row)
	}

	sort.SliceStable(entry.History, func(i, j int) bool {
		vi, erri := semver.StrictNewVersion(entry.History[i].Version)
		vj, errj := semver.StrictNewVersion(entry.History[j].Version)
		if erri != nil || errj != nil {
			return erri == nil
		}
		return vi.GreaterThan(vj)
	})
}
