package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/cyberionsoft/devmanager/internal/branding"
)

const githubAPIBase = "https://api.github.com"

// ErrChannelUnreachable is returned when the release channel cannot be
// queried after the bounded retry budget is exhausted.
var ErrChannelUnreachable = errors.New("release channel unreachable")

// Client talks to the GitHub release channel for one repository owner.
type Client struct {
	httpClient *http.Client
	apiBase    string
	owner      string
	token      string
	maxElapsed time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithAPIBase overrides the GitHub API base URL (useful for testing and
// mirrors).
func WithAPIBase(base string) Option {
	return func(cl *Client) { cl.apiBase = strings.TrimRight(base, "/") }
}

// WithToken sets the release-channel access credential for authenticated
// requests and higher rate limits.
func WithToken(token string) Option {
	return func(cl *Client) { cl.token = token }
}

// WithRetryBudget sets the maximum elapsed time spent retrying one request
// cycle before it fails with ErrChannelUnreachable.
func WithRetryBudget(d time.Duration) Option {
	return func(cl *Client) { cl.maxElapsed = d }
}

// NewClient creates a Client for the given repository owner.
func NewClient(owner string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiBase:    githubAPIBase,
		owner:      owner,
		maxElapsed: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LatestRelease fetches the latest published release for a repository.
// Transient transport errors and 5xx responses are retried with exponential
// backoff; once the budget is spent the call fails with ErrChannelUnreachable.
func (c *Client) LatestRelease(ctx context.Context, repo string) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.apiBase, c.owner, repo)

	var release *Release
	operation := func() error {
		rel, err := c.fetchRelease(ctx, url)
		if err != nil {
			return err
		}
		release = rel
		return nil
	}

	if err := backoff.Retry(operation, c.newBackOff(ctx)); err != nil {
		if errors.Is(err, ErrChannelUnreachable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrChannelUnreachable, err)
	}
	return release, nil
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = c.maxElapsed
	return backoff.WithContext(b, ctx)
}

func (c *Client) fetchRelease(ctx context.Context, url string) (*Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", branding.CLIName()+"-updater")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport error: transient, retried by the caller.
		return nil, fmt.Errorf("%w: %v", ErrChannelUnreachable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(fmt.Errorf("%w: release not found", ErrChannelUnreachable))
	case resp.StatusCode == http.StatusForbidden:
		return nil, backoff.Permanent(fmt.Errorf("%w: rate limit exceeded, configure a release-channel token", ErrChannelUnreachable))
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrChannelUnreachable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(fmt.Errorf("%w: status %d", ErrChannelUnreachable, resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrChannelUnreachable, err)
	}

	var release Release
	if err := json.Unmarshal(body, &release); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%w: parsing release JSON: %v", ErrChannelUnreachable, err))
	}

	log.Debugf("latest release for %s/%s: %s (%d assets)", c.owner, repoFromURL(url), release.TagName, len(release.Assets))
	return &release, nil
}

func repoFromURL(url string) string {
	parts := strings.Split(url, "/")
	if len(parts) < 3 {
		return url
	}
	return parts[len(parts)-3]
}
