package buildrel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/cyberionsoft/devmanager/internal/manifest"
)

// fakeChannel is an httptest stand-in for the release API, shared by the
// create and upload endpoints.
type fakeChannel struct {
	t        *testing.T
	created  []string          // tags created
	uploads  map[string][]byte // asset name -> body
	tagTaken string            // tag that responds 422 on create
}

func newFakeChannel(t *testing.T) (*fakeChannel, *httptest.Server) {
	fc := &fakeChannel{t: t, uploads: map[string][]byte{}}
	mux := http.NewServeMux()

	mux.HandleFunc("/repos/cyberionsoft/css_dev_automator/releases", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var body struct {
			TagName string `json:"tag_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if body.TagName == fc.tagTaken {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		fc.created = append(fc.created, body.TagName)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"id": 7, "tag_name": %q, "html_url": "http://example/rel"}`, body.TagName)
	})
	mux.HandleFunc("/repos/cyberionsoft/css_dev_automator/releases/tags/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		fmt.Fprint(w, `{"id": 7, "tag_name": "v1.0.0", "html_url": "http://example/rel"}`)
	})
	mux.HandleFunc("/repos/cyberionsoft/css_dev_automator/releases/7/assets", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		name := r.URL.Query().Get("name")
		if name == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(r.Body)
		fc.uploads[name] = data
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{}`)
	})

	srv := httptest.NewServer(mux)
	return fc, srv
}

func testPublisher(srv *httptest.Server) *Publisher {
	return NewPublisher("cyberionsoft", "css_dev_automator", "tkn",
		WithHTTPClient(srv.Client()),
		WithBaseURLs(srv.URL, srv.URL))
}

func TestCreateRelease(t *testing.T) {
	fc, srv := newFakeChannel(t)
	defer srv.Close()

	rel, err := testPublisher(srv).CreateRelease(context.Background(), "1.0.0", "notes")
	if err != nil {
		t.Fatalf("CreateRelease: %v", err)
	}
	if rel.ID != 7 || rel.TagName != "v1.0.0" {
		t.Errorf("release = %+v", rel)
	}
	if len(fc.created) != 1 || fc.created[0] != "v1.0.0" {
		t.Errorf("created = %v", fc.created)
	}
}

func TestCreateReleaseExistingTagResumes(t *testing.T) {
	fc, srv := newFakeChannel(t)
	defer srv.Close()
	fc.tagTaken = "v1.0.0"

	rel, err := testPublisher(srv).CreateRelease(context.Background(), "1.0.0", "")
	if err != nil {
		t.Fatalf("CreateRelease: %v", err)
	}
	if rel.ID != 7 {
		t.Errorf("release = %+v", rel)
	}
	if len(fc.created) != 0 {
		t.Errorf("duplicate release created: %v", fc.created)
	}
}

func TestUploadAsset(t *testing.T) {
	fc, srv := newFakeChannel(t)
	defer srv.Close()

	dir := t.TempDir()
	asset := filepath.Join(dir, "app.zip")
	if err := os.WriteFile(asset, []byte("zipped"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := testPublisher(srv)
	rel, err := p.CreateRelease(context.Background(), "1.0.0", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := p.UploadAsset(context.Background(), rel, asset); err != nil {
		t.Fatalf("UploadAsset: %v", err)
	}
	if string(fc.uploads["app.zip"]) != "zipped" {
		t.Errorf("uploads = %v", fc.uploads)
	}
}

func TestReleaseFlow(t *testing.T) {
	fc, srv := newFakeChannel(t)
	defer srv.Close()

	buildDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(buildDir, "devautomator"), []byte("bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	outDir := t.TempDir()
	manifestPath := filepath.Join(outDir, "versions.json")

	rel, err := Release(context.Background(), ReleaseInput{
		App:          "devautomator",
		Repo:         "css_dev_automator",
		Version:      "1.0.0",
		Notes:        "first",
		BuildDir:     buildDir,
		OutDir:       outDir,
		AssetName:    "DevAutomator_v1.0.0_linux.zip",
		ManifestPath: manifestPath,
		Publisher:    testPublisher(srv),
	})
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if rel.TagName != "v1.0.0" {
		t.Errorf("tag = %q", rel.TagName)
	}

	for _, want := range []string{"DevAutomator_v1.0.0_linux.zip", "checksums.txt", "versions.json"} {
		if _, ok := fc.uploads[want]; !ok {
			t.Errorf("asset %s not uploaded, have %v", want, uploadNames(fc))
		}
	}

	m, err := manifest.Load(manifestPath)
	if err != nil {
		t.Fatalf("manifest after release: %v", err)
	}
	if m.LatestVersion("devautomator") != "1.0.0" {
		t.Errorf("manifest latest = %q", m.LatestVersion("devautomator"))
	}
}

func uploadNames(fc *fakeChannel) []string {
	var names []string
	for n := range fc.uploads {
		names = append(names, n)
	}
	return names
}
