package release

import (
	"sort"
	"strings"

	"github.com/cyberionsoft/devmanager/internal/branding"
)

// SelectAsset finds the asset with the exact expected name. If no exact match
// exists it falls back to any asset naming the current platform key; when
// several candidates match, the lexicographically first name wins. Returns
// nil when nothing matches.
func SelectAsset(assets []Asset, expected string) *Asset {
	for i := range assets {
		if assets[i].Name == expected {
			return &assets[i]
		}
	}

	// Flexible match: platform key anywhere in an archive name.
	pattern := branding.PlatformKey()
	var candidates []int
	for i := range assets {
		name := strings.ToLower(assets[i].Name)
		if strings.Contains(name, pattern) && strings.HasSuffix(name, ".zip") {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	// Tie-break: lexicographically first asset name.
	sort.Slice(candidates, func(a, b int) bool {
		return assets[candidates[a]].Name < assets[candidates[b]].Name
	})
	return &assets[candidates[0]]
}
