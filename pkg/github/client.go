// Package github adapts the GitHub repository contents API to the versioned
// blob store contract. Each object is one file in a private repo; the file's
// content sha is the version token, and the API's sha precondition on updates
// provides the compare-and-swap.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/mohammed-seid/hfc-south-plant/internal/blobstore"
)

const defaultBaseURL = "https://api.github.com"

// Option configures the contents client.
type Option func(*ContentsClient)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *ContentsClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *ContentsClient) { c.http = hc }
}

// WithBranch sets the branch written to (default "main").
func WithBranch(branch string) Option {
	return func(c *ContentsClient) { c.branch = branch }
}

// WithRateLimit overrides the default client-side rate limit (5 req/s).
func WithRateLimit(rps float64) Option {
	return func(c *ContentsClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// ContentsClient implements blobstore.Client over the GitHub contents API.
type ContentsClient struct {
	owner   string
	repo    string
	token   string
	branch  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

var _ blobstore.Client = (*ContentsClient)(nil)

// NewClient creates a contents client for owner/repo authenticated with the
// given token.
func NewClient(owner, repo, token string, opts ...Option) *ContentsClient {
	c := &ContentsClient{
		owner:   owner,
		repo:    repo,
		token:   token,
		branch:  "main",
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type contentsResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

type putResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

func (c *ContentsClient) contentsURL(key string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, c.owner, c.repo, url.PathEscape(key))
}

func (c *ContentsClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
}

func (c *ContentsClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// Get fetches and decodes the file at key on the configured branch.
func (c *ContentsClient) Get(ctx context.Context, key string) (blobstore.Object, error) {
	if err := c.wait(ctx); err != nil {
		return blobstore.Object{}, eris.Wrap(err, "github: rate limit")
	}

	reqURL := c.contentsURL(key) + "?ref=" + url.QueryEscape(c.branch)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return blobstore.Object{}, eris.Wrap(err, "github: create request")
	}
	c.setHeaders(req)

	body, status, err := c.retryGet(ctx, req)
	if err != nil {
		return blobstore.Object{}, eris.Wrapf(err, "github: get %s", key)
	}

	switch {
	case status == http.StatusNotFound:
		return blobstore.Object{}, blobstore.ErrNotFound
	case status != http.StatusOK:
		return blobstore.Object{}, eris.Errorf("github: get %s: status %d: %s", key, status, truncate(body))
	}

	var resp contentsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return blobstore.Object{}, eris.Wrapf(err, "github: decode contents of %s", key)
	}
	content, err := base64.StdEncoding.DecodeString(stripNewlines(resp.Content))
	if err != nil {
		return blobstore.Object{}, eris.Wrapf(err, "github: decode base64 content of %s", key)
	}

	return blobstore.Object{Content: content, Version: blobstore.Version(resp.SHA)}, nil
}

// Put writes content to key with the API's sha precondition. A 409 from the
// API (branch or sha moved) maps to blobstore.ErrVersionConflict, as does the
// 422 the contents endpoint returns for a stale sha. Put is never retried: a
// retry after an ambiguous failure could append the batch twice.
func (c *ContentsClient) Put(ctx context.Context, key string, content []byte, expected blobstore.Version) (blobstore.Version, error) {
	if err := c.wait(ctx); err != nil {
		return blobstore.VersionAbsent, eris.Wrap(err, "github: rate limit")
	}

	payload := putRequest{
		Message: fmt.Sprintf("Add corrections - %s", time.Now().UTC().Format("2006-01-02 15:04")),
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  c.branch,
		SHA:     string(expected),
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return blobstore.VersionAbsent, eris.Wrap(err, "github: encode put payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.contentsURL(key), bytes.NewReader(encoded))
	if err != nil {
		return blobstore.VersionAbsent, eris.Wrap(err, "github: create put request")
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return blobstore.VersionAbsent, eris.Wrapf(err, "github: put %s", key)
	}

	body, status, err := readBody(resp)
	if err != nil {
		return blobstore.VersionAbsent, eris.Wrapf(err, "github: read put response for %s", key)
	}

	switch status {
	case http.StatusOK, http.StatusCreated:
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return blobstore.VersionAbsent, blobstore.ErrVersionConflict
	default:
		return blobstore.VersionAbsent, eris.Errorf("github: put %s: status %d: %s", key, status, truncate(body))
	}

	var putResp putResponse
	if err := json.Unmarshal(body, &putResp); err != nil {
		return blobstore.VersionAbsent, eris.Wrapf(err, "github: decode put response for %s", key)
	}
	return blobstore.Version(putResp.Content.SHA), nil
}
