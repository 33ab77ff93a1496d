package release

import (
	"testing"

	"github.com/Masterminds/semver/v3"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		tag     string
		want    string
		wantErr bool
	}{
		{"v1.2.3", "1.2.3", false},
		{"1.2.3", "1.2.3", false},
		{"v0.0.1", "0.0.1", false},
		{"v10.20.30", "10.20.30", false},
		{"nightly", "", true},
		{"v1.2", "", true},
		{"v1.2.3.4", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		v, err := ParseVersion(tt.tag)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseVersion(%q) = %v, want error", tt.tag, v)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseVersion(%q): %v", tt.tag, err)
			continue
		}
		if v.String() != tt.want {
			t.Errorf("ParseVersion(%q) = %s, want %s", tt.tag, v, tt.want)
		}
	}
}

func TestVersionOrderingTransitive(t *testing.T) {
	tags := []string{"v0.0.9", "v0.1.0", "v1.0.0", "v1.2.0", "v1.2.1", "v1.10.0", "v2.0.0"}

	versions := make([]*semver.Version, len(tags))
	for i, tag := range tags {
		v, err := ParseVersion(tag)
		if err != nil {
			t.Fatalf("ParseVersion(%q): %v", tag, err)
		}
		versions[i] = v
	}

	// The list is ascending; every pair (i < j) must order accordingly, which
	// also exercises transitivity across the whole chain.
	for i := range versions {
		for j := range versions {
			cmp := versions[i].Compare(versions[j])
			switch {
			case i < j && cmp != -1:
				t.Errorf("%s >= %s", tags[i], tags[j])
			case i == j && cmp != 0:
				t.Errorf("%s != itself", tags[i])
			case i > j && cmp != 1:
				t.Errorf("%s <= %s", tags[i], tags[j])
			}
		}
	}
}

func mustVersion(t *testing.T, tag string) *semver.Version {
	t.Helper()
	v, err := ParseVersion(tag)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestDecide(t *testing.T) {
	rel := &Release{
		TagName: "v1.3.0",
		Assets: []Asset{
			{Name: "DevManager_v1.3.0_linux.zip", DownloadURL: "https://example.com/a.zip"},
		},
	}

	d := Decide(mustVersion(t, "v1.2.0"), rel, "DevManager_v1.3.0_linux.zip")
	if !d.NeedsUpdate {
		t.Error("1.2.0 -> 1.3.0 must need update")
	}
	if d.Asset == nil || d.Asset.Name != "DevManager_v1.3.0_linux.zip" {
		t.Errorf("asset = %+v", d.Asset)
	}

	d = Decide(mustVersion(t, "v1.3.0"), rel, "DevManager_v1.3.0_linux.zip")
	if d.NeedsUpdate {
		t.Error("equal versions must not need update")
	}

	d = Decide(mustVersion(t, "v2.0.0"), rel, "DevManager_v1.3.0_linux.zip")
	if d.NeedsUpdate {
		t.Error("newer local version must not need update")
	}

	// No prior version sorts below anything published.
	d = Decide(nil, rel, "DevManager_v1.3.0_linux.zip")
	if !d.NeedsUpdate {
		t.Error("nil current version must need update")
	}

	// Malformed remote tag never triggers an update.
	d = Decide(mustVersion(t, "v1.0.0"), &Release{TagName: "latest"}, "x.zip")
	if d.NeedsUpdate {
		t.Error("malformed tag must not trigger an update")
	}
}
