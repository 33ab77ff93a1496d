package release

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestLatestRelease(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/cyberionsoft/css_dev_manager/releases/latest" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		fmt.Fprint(w, `{
			"tag_name": "v1.3.0",
			"assets": [
				{"name": "DevManager_v1.3.0_linux.zip", "browser_download_url": "https://example.com/a.zip", "size": 123}
			]
		}`)
	}))
	defer server.Close()

	c := NewClient("cyberionsoft",
		WithHTTPClient(server.Client()),
		WithAPIBase(server.URL),
		WithToken("test-token"),
	)

	rel, err := c.LatestRelease(context.Background(), "css_dev_manager")
	if err != nil {
		t.Fatalf("LatestRelease: %v", err)
	}
	if rel.TagName != "v1.3.0" {
		t.Errorf("tag = %s", rel.TagName)
	}
	if len(rel.Assets) != 1 || rel.Assets[0].Size != 123 {
		t.Errorf("assets = %+v", rel.Assets)
	}
}

func TestLatestReleaseRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"tag_name": "v2.0.0", "assets": []}`)
	}))
	defer server.Close()

	c := NewClient("owner",
		WithHTTPClient(server.Client()),
		WithAPIBase(server.URL),
		WithRetryBudget(10*time.Second),
	)

	rel, err := c.LatestRelease(context.Background(), "repo")
	if err != nil {
		t.Fatalf("LatestRelease: %v", err)
	}
	if rel.TagName != "v2.0.0" {
		t.Errorf("tag = %s", rel.TagName)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestLatestReleaseNotFoundIsPermanent(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewClient("owner", WithHTTPClient(server.Client()), WithAPIBase(server.URL))

	_, err := c.LatestRelease(context.Background(), "repo")
	if !errors.Is(err, ErrChannelUnreachable) {
		t.Fatalf("err = %v, want ErrChannelUnreachable", err)
	}
	if calls.Load() != 1 {
		t.Errorf("404 retried %d times, want 1 attempt", calls.Load())
	}
}

func TestLatestReleaseBoundedRetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient("owner",
		WithHTTPClient(server.Client()),
		WithAPIBase(server.URL),
		WithRetryBudget(2*time.Second),
	)

	start := time.Now()
	_, err := c.LatestRelease(context.Background(), "repo")
	if !errors.Is(err, ErrChannelUnreachable) {
		t.Fatalf("err = %v, want ErrChannelUnreachable", err)
	}
	if elapsed := time.Since(start); elapsed > 30*time.Second {
		t.Errorf("retry loop ran %s, budget was 2s", elapsed)
	}
}

func TestLatestReleaseUnreachableHost(t *testing.T) {
	c := NewClient("owner",
		WithAPIBase("http://127.0.0.1:1"),
		WithRetryBudget(time.Second),
	)

	_, err := c.LatestRelease(context.Background(), "repo")
	if !errors.Is(err, ErrChannelUnreachable) {
		t.Fatalf("err = %v, want ErrChannelUnreachable", err)
	}
}
