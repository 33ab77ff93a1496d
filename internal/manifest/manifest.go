package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// FileName is the conventional manifest asset name on the release channel.
const FileName = "versions.json"

// Load reads a manifest from disk. YAML files (.yaml/.yml) and JSON are both
// accepted; the channel publishes JSON.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return Decode(data, isYAMLPath(path))
}

// LoadOrNew reads an existing manifest or starts a fresh one for repo when
// the file does not exist yet.
func LoadOrNew(path, repo string) (*Manifest, error) {
	m, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(repo), nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Decode parses manifest bytes after validating them against the embedded
// schema, so a malformed channel document is rejected before any field is
// trusted.
func Decode(data []byte, fromYAML bool) (*Manifest, error) {
	result, err := Validate(data)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, fmt.Errorf("manifest rejected by schema: %s", result.Summary())
	}

	var m Manifest
	if fromYAML {
		err = yaml.Unmarshal(data, &m)
	} else {
		err = json.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// Save writes the manifest as indented JSON, the format the release flow
// uploads to the channel.
func Save(m *Manifest, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating manifest directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}
	return nil
}

func isYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
