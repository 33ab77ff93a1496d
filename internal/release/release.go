package release

import (
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Release represents a published GitHub release.
type Release struct {
	TagName   string    `json:"tag_name"`
	Assets    []Asset   `json:"assets"`
	Published time.Time `json:"published_at"`
	HTMLURL   string    `json:"html_url"`
}

// Asset represents a downloadable file attached to a release.
type Asset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// Version parses the release tag as a strict vMAJOR.MINOR.PATCH version.
// Malformed tags are rejected, not coerced.
func (r *Release) Version() (*semver.Version, error) {
	return ParseVersion(r.TagName)
}

// ParseVersion parses a release tag, tolerating a leading "v".
func ParseVersion(tag string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(strings.TrimPrefix(tag, "v"))
	if err != nil {
		return nil, fmt.Errorf("parsing release tag %q: %w", tag, err)
	}
	return v, nil
}

// UpdateDecision is the pure outcome of comparing a local version against a
// channel response. It carries no side effects.
type UpdateDecision struct {
	NeedsUpdate bool
	Current     *semver.Version
	Remote      *semver.Version
	Asset       *Asset
}

// Decide compares the current version against a release and selects the
// platform asset. A nil current version ("no prior version") sorts below any
// published version. A release whose tag does not parse never triggers an
// update.
func Decide(current *semver.Version, rel *Release, assetName string) UpdateDecision {
	d := UpdateDecision{Current: current}

	remote, err := rel.Version()
	if err != nil {
		return d
	}
	d.Remote = remote

	if current == nil || remote.GreaterThan(current) {
		d.NeedsUpdate = true
		if a := SelectAsset(rel.Assets, assetName); a != nil {
			d.Asset = a
		}
	}
	return d
}
