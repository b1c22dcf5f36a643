package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ruteri/storage-router/interfaces"
)

// GitHubDriver is a read-only driver backed by a GitHub repository. It only
// implements the fetch capabilities: immutable data through the Git blob
// API, mutable data through raw.githubusercontent.com URLs. Puts and
// deletes are intentionally absent; the router skips this driver for them.
type GitHubDriver struct {
	owner  string
	repo   string
	branch string
	client *http.Client
	log    *slog.Logger
}

// gitHubBlob is a Git blob object from GitHub's API.
type gitHubBlob struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	SHA      string `json:"sha"`
	Size     int    `json:"size"`
}

// NewGitHubDriver creates a read-only GitHub storage driver.
func NewGitHubDriver(owner, repo, branch string, log *slog.Logger) *GitHubDriver {
	if branch == "" {
		branch = "main"
	}
	return &GitHubDriver{
		owner:  owner,
		repo:   repo,
		branch: branch,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
	}
}

// Name returns the unique driver identity.
func (d *GitHubDriver) Name() string {
	return fmt.Sprintf("github-%s-%s", d.owner, d.repo)
}

// HandlesURL claims raw.githubusercontent.com URLs for this repository.
func (d *GitHubDriver) HandlesURL(rawURL string) bool {
	prefix := fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/", d.owner, d.repo)
	return strings.HasPrefix(rawURL, prefix)
}

// GetImmutable fetches a blob whose Git SHA is the requested hash. The
// router re-verifies the content hash, so a stale or forged blob is
// discarded upstream.
func (d *GitHubDriver) GetImmutable(ctx context.Context, hash string, hints interfaces.RequestHints) ([]byte, error) {
	apiURL := fmt.Sprintf("https://api.github.com/repos/%s/%s/git/blobs/%s", d.owner, d.repo, hash)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blob: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, interfaces.ErrContentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status from GitHub API: %d", resp.StatusCode)
	}

	var blob gitHubBlob
	if err := json.NewDecoder(resp.Body).Decode(&blob); err != nil {
		return nil, fmt.Errorf("failed to decode blob response: %w", err)
	}
	if blob.Encoding != "base64" {
		return nil, fmt.Errorf("unexpected blob encoding: %s", blob.Encoding)
	}

	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(blob.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to decode blob content: %w", err)
	}

	d.log.Debug("Fetched content from GitHub",
		slog.String("blob_sha", hash),
		slog.Int("size", len(data)))
	return data, nil
}

// GetMutable fetches a mutable envelope from a raw content URL.
func (d *GitHubDriver) GetMutable(ctx context.Context, rawURL string, hints interfaces.RequestHints) ([]byte, error) {
	if !d.HandlesURL(rawURL) {
		return nil, interfaces.ErrUnhandledURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch raw content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, interfaces.ErrContentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status from GitHub: %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxFetchSize))
}
