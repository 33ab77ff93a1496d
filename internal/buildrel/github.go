package buildrel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	githubAPIBase    = "https://api.github.com"
	githubUploadBase = "https://uploads.github.com"
)

// ErrPublishFailed wraps any failure while talking to the release API.
var ErrPublishFailed = errors.New("publishing release failed")

// Publisher creates releases and uploads assets on a GitHub repository.
type Publisher struct {
	httpClient *http.Client
	apiBase    string
	uploadBase string
	owner      string
	repo       string
	token      string
}

// PublisherOption customizes a Publisher.
type PublisherOption func(*Publisher)

// WithHTTPClient substitutes the HTTP client.
func WithHTTPClient(c *http.Client) PublisherOption {
	return func(p *Publisher) { p.httpClient = c }
}

// WithBaseURLs overrides the API and upload endpoints, for tests.
func WithBaseURLs(api, upload string) PublisherOption {
	return func(p *Publisher) {
		p.apiBase = api
		p.uploadBase = upload
	}
}

// NewPublisher returns a Publisher for owner/repo authenticated with token.
func NewPublisher(owner, repo, token string, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		apiBase:    githubAPIBase,
		uploadBase: githubUploadBase,
		owner:      owner,
		repo:       repo,
		token:      token,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ReleaseRef identifies a created release on the channel.
type ReleaseRef struct {
	ID      int64  `json:"id"`
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// CreateRelease creates the release tagged "v"+version. When the tag already
// exists the existing release is returned, so a re-run can resume uploading.
func (p *Publisher) CreateRelease(ctx context.Context, version, notes string) (*ReleaseRef, error) {
	tag := "v" + version
	body, err := json.Marshal(map[string]interface{}{
		"tag_name": tag,
		"name":     tag,
		"body":     notes,
		"draft":    false,
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/repos/%s/%s/releases", p.apiBase, p.owner, p.repo)
	resp, err := p.do(ctx, http.MethodPost, url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusCreated:
		return decodeRelease(resp.Body)
	case resp.StatusCode == http.StatusUnprocessableEntity:
		// Tag exists already.
		return p.releaseByTag(ctx, tag)
	default:
		return nil, fmt.Errorf("%w: creating release %s: status %d", ErrPublishFailed, tag, resp.StatusCode)
	}
}

func (p *Publisher) releaseByTag(ctx context.Context, tag string) (*ReleaseRef, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s", p.apiBase, p.owner, p.repo, tag)
	resp, err := p.do(ctx, http.MethodGet, url, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: looking up release %s: status %d", ErrPublishFailed, tag, resp.StatusCode)
	}
	return decodeRelease(resp.Body)
}

// UploadAsset attaches a file to the release. Zip archives get their proper
// content type, everything else is uploaded as octet-stream.
func (p *Publisher) UploadAsset(ctx context.Context, rel *ReleaseRef, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: opening asset: %v", ErrPublishFailed, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: reading asset: %v", ErrPublishFailed, err)
	}

	name := filepath.Base(path)
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url := fmt.Sprintf("%s/repos/%s/%s/releases/%d/assets?name=%s", p.uploadBase, p.owner, p.repo, rel.ID, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, f)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = info.Size()
	p.authorize(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: uploading %s: %v", ErrPublishFailed, name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: uploading %s: status %d", ErrPublishFailed, name, resp.StatusCode)
	}
	return nil
}

// Publish creates the release for version and uploads every artifact plus
// any extra files (checksums.txt, versions.json).
func (p *Publisher) Publish(ctx context.Context, version, notes string, artifacts []*Artifact, extraFiles ...string) (*ReleaseRef, error) {
	rel, err := p.CreateRelease(ctx, version, notes)
	if err != nil {
		return nil, err
	}
	for _, a := range artifacts {
		if err := p.UploadAsset(ctx, rel, a.Path); err != nil {
			return nil, err
		}
	}
	for _, path := range extraFiles {
		if err := p.UploadAsset(ctx, rel, path); err != nil {
			return nil, err
		}
	}
	return rel, nil
}

func (p *Publisher) do(ctx context.Context, method, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	p.authorize(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}
	return resp, nil
}

func (p *Publisher) authorize(req *http.Request) {
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
}

func decodeRelease(r io.Reader) (*ReleaseRef, error) {
	var rel ReleaseRef
	if err := json.NewDecoder(r).Decode(&rel); err != nil {
		return nil, fmt.Errorf("%w: decoding release response: %v", ErrPublishFailed, err)
	}
	return &rel, nil
}
