package cli

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cyberionsoft/devmanager/internal/branding"
	"github.com/cyberionsoft/devmanager/internal/release"
)

func configDirUnder(home string) string {
	return filepath.Join(home, branding.HomeDir())
}

func TestPrintUpdateBannerFreshCache(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	buildVersion = "1.2.0"

	cache := &release.VersionCache{
		LatestVersion:   "1.3.0",
		CurrentVersion:  "1.2.0",
		CheckedAt:       time.Now(),
		UpdateAvailable: true,
	}
	if err := release.SaveCache(configDirUnder(home), cache); err != nil {
		t.Fatal(err)
	}

	var buf strings.Builder
	printUpdateBanner(&buf)
	if !strings.Contains(buf.String(), "1.3.0") {
		t.Errorf("banner = %q, want update notice", buf.String())
	}
}

func TestPrintUpdateBannerStaleCacheSilent(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	buildVersion = "1.2.0"

	cache := &release.VersionCache{
		LatestVersion:   "1.3.0",
		CheckedAt:       time.Now().Add(-48 * time.Hour),
		UpdateAvailable: true,
	}
	if err := release.SaveCache(configDirUnder(home), cache); err != nil {
		t.Fatal(err)
	}

	var buf strings.Builder
	printUpdateBanner(&buf)
	if buf.Len() != 0 {
		t.Errorf("stale cache produced banner %q", buf.String())
	}
}

func TestPrintUpdateBannerNoCacheSilent(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	var buf strings.Builder
	printUpdateBanner(&buf)
	if buf.Len() != 0 {
		t.Errorf("missing cache produced banner %q", buf.String())
	}
}

func TestValidateDeveloperTokenMissing(t *testing.T) {
	startupToken = ""
	if _, err := validateDeveloperToken(); err == nil {
		t.Fatal("expected error without token")
	}
}
