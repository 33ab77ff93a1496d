package buildrel

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cyberionsoft/devmanager/internal/branding"
	"github.com/cyberionsoft/devmanager/internal/manifest"
)

// ReleaseInput collects everything one release run needs. BuildDir must hold
// an already built application; compiling it is out of scope here.
type ReleaseInput struct {
	App       string // manifest key, e.g. "devautomator"
	Repo      string // release repository name
	Version   string
	Notes     string
	BuildDir  string
	OutDir    string // archives and sidecars land here
	AssetName string // platform archive name

	ManifestPath string // local versions.json, updated in place
	Publisher    *Publisher

	Log *logrus.Entry
}

// Release packages BuildDir, updates the version manifest, and publishes
// everything as a GitHub release tagged "v"+Version.
func Release(ctx context.Context, in ReleaseInput) (*ReleaseRef, error) {
	log := in.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	artifact, err := PackageDir(in.BuildDir, in.OutDir, in.AssetName)
	if err != nil {
		return nil, fmt.Errorf("packaging %s: %w", in.App, err)
	}
	log.WithFields(logrus.Fields{
		"asset": artifact.Name,
		"size":  artifact.Size,
		"sha":   artifact.Checksum,
	}).Info("packaged build")

	checksumsPath := filepath.Join(in.OutDir, "checksums.txt")
	if err := WriteChecksums([]*Artifact{artifact}, checksumsPath); err != nil {
		return nil, err
	}

	m, err := manifest.LoadOrNew(in.ManifestPath, in.Repo)
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}
	downloadURL := fmt.Sprintf("https://github.com/%s/%s/releases/download/v%s/%s",
		branding.GitHubOwner(), in.Repo, in.Version, artifact.Name)
	builds := map[string]manifest.BuildInfo{
		branding.PlatformKey(): {
			Version:     in.Version,
			Filename:    artifact.Name,
			Size:        artifact.Size,
			Checksum:    artifact.Checksum,
			DownloadURL: downloadURL,
			CreatedAt:   time.Now().UTC(),
		},
	}
	if err := m.SetRelease(in.App, in.Version, in.Notes, builds); err != nil {
		return nil, err
	}
	if err := manifest.Save(m, in.ManifestPath); err != nil {
		return nil, err
	}

	rel, err := in.Publisher.Publish(ctx, in.Version, in.Notes,
		[]*Artifact{artifact}, checksumsPath, in.ManifestPath)
	if err != nil {
		return nil, err
	}
	log.WithField("url", rel.HTMLURL).Info("release published")
	return rel, nil
}
