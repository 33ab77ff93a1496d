package release

import (
	"fmt"
	"testing"

	"github.com/cyberionsoft/devmanager/internal/branding"
)

func TestSelectAssetExactMatch(t *testing.T) {
	assets := []Asset{
		{Name: "checksums.txt"},
		{Name: "DevManager_v1.0.0_windows.zip"},
		{Name: "DevManager_v1.0.0_macos.zip"},
		{Name: "DevManager_v1.0.0_linux.zip"},
	}

	expected := fmt.Sprintf("DevManager_v1.0.0_%s.zip", branding.PlatformKey())
	got := SelectAsset(assets, expected)
	if got == nil || got.Name != expected {
		t.Errorf("SelectAsset = %+v, want %s", got, expected)
	}
}

func TestSelectAssetFlexibleTieBreak(t *testing.T) {
	key := branding.PlatformKey()
	assets := []Asset{
		{Name: "zz_build_" + key + ".zip"},
		{Name: "aa_build_" + key + ".zip"},
		{Name: "mm_build_" + key + ".zip"},
	}

	// No exact match: flexible matching applies and the lexicographically
	// first candidate wins.
	got := SelectAsset(assets, "DevManager_v9.9.9_"+key+".zip")
	if got == nil || got.Name != "aa_build_"+key+".zip" {
		t.Errorf("SelectAsset = %+v, want aa_build_%s.zip", got, key)
	}
}

func TestSelectAssetNoMatch(t *testing.T) {
	assets := []Asset{
		{Name: "checksums.txt"},
		{Name: "source.tar.gz"},
	}
	if got := SelectAsset(assets, "DevManager_v1.0.0_linux.zip"); got != nil {
		t.Errorf("SelectAsset = %+v, want nil", got)
	}
}
