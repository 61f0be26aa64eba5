// Package github implements the remote tree-listing collaborator against
// the GitHub REST API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/starford/lumen/internal/apperr"
	"github.com/starford/lumen/internal/models"
)

// DefaultBaseURL is the public GitHub API endpoint.
const DefaultBaseURL = "https://api.github.com"

// HeaderSupplier returns the headers to attach to every outgoing request.
// The client attaches whatever it is given without inspecting the content.
type HeaderSupplier func() http.Header

// TokenHeaders returns a HeaderSupplier carrying the standard API version
// header and, when token is non-empty, a Bearer credential.
func TokenHeaders(token string) HeaderSupplier {
	return func() http.Header {
		h := http.Header{}
		h.Set("Accept", "application/vnd.github+json")
		h.Set("X-GitHub-Api-Version", "2022-11-28")
		if token != "" {
			h.Set("Authorization", fmt.Sprintf("Bearer %s", token))
		}
		return h
	}
}

// Client fetches recursive repository listings via the Git Trees API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    HeaderSupplier
	logger     *slog.Logger
}

// NewClient creates a Client. An empty baseURL selects the public API;
// a nil headers supplier sends unauthenticated requests.
func NewClient(baseURL string, headers HeaderSupplier, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if headers == nil {
		headers = TokenHeaders("")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		headers:    headers,
		logger:     logger,
	}
}

// treeItem is the loosely-typed shape of one Git Trees API row. Pointer
// fields let malformed rows (missing path or type) be detected and skipped
// instead of propagating zero values forward.
type treeItem struct {
	Path *string `json:"path"`
	Type *string `json:"type"`
	Size int64   `json:"size,omitempty"`
}

type treeResponse struct {
	Tree      []treeItem `json:"tree"`
	Truncated bool       `json:"truncated"`
}

// FetchTree retrieves the full recursive listing of owner/repo at ref.
// The returned bool reports whether the remote truncated the listing.
func (c *Client) FetchTree(ctx context.Context, owner, repo, ref string) ([]models.TreeEntry, bool, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/git/trees/%s?recursive=1",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), url.PathEscape(ref))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("github: build request: %w", err)
	}
	req.Header = c.headers()

	resp, err := doRequestWithRetry(ctx, c.httpClient, req)
	if err != nil {
		return nil, false, &apperr.FetchError{Kind: apperr.FetchTransient, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if ferr := classifyStatus(resp, owner, repo, ref); ferr != nil {
		io.Copy(io.Discard, resp.Body)
		return nil, false, ferr
	}

	var tr treeResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, false, &apperr.FetchError{
			Kind:   apperr.FetchTransient,
			Status: resp.StatusCode,
			Reason: fmt.Sprintf("decode tree response: %v", err),
		}
	}

	entries := make([]models.TreeEntry, 0, len(tr.Tree))
	skipped := 0
	for _, item := range tr.Tree {
		if item.Path == nil || item.Type == nil || *item.Path == "" {
			skipped++
			continue
		}
		var kind models.EntryKind
		switch *item.Type {
		case "blob":
			kind = models.KindFile
		case "tree":
			kind = models.KindDirectory
		default:
			// Submodule commits and anything the API grows later.
			skipped++
			continue
		}
		entries = append(entries, models.TreeEntry{Path: *item.Path, Kind: kind, Size: item.Size})
	}
	if skipped > 0 {
		c.logger.Debug("skipped malformed tree entries",
			slog.String("repo", owner+"/"+repo),
			slog.Int("skipped", skipped))
	}

	return entries, tr.Truncated, nil
}

// classifyStatus maps a non-success response to a FetchError, separating
// "not found" from credential and quota problems so the caller can route
// the user accordingly.
func classifyStatus(resp *http.Response, owner, repo, ref string) *apperr.FetchError {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return &apperr.FetchError{
			Kind:   apperr.FetchNotFound,
			Status: resp.StatusCode,
			Reason: fmt.Sprintf("repository or ref not found: %s/%s@%s", owner, repo, ref),
		}
	case resp.StatusCode == http.StatusUnauthorized:
		return &apperr.FetchError{
			Kind:   apperr.FetchUnauthorized,
			Status: resp.StatusCode,
			Reason: "invalid or expired token",
		}
	case resp.StatusCode == http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return &apperr.FetchError{
				Kind:   apperr.FetchRateLimited,
				Status: resp.StatusCode,
				Reason: "API rate limit exceeded",
			}
		}
		return &apperr.FetchError{
			Kind:   apperr.FetchUnauthorized,
			Status: resp.StatusCode,
			Reason: "forbidden: check repository access",
		}
	default:
		return &apperr.FetchError{
			Kind:   apperr.FetchTransient,
			Status: resp.StatusCode,
			Reason: http.StatusText(resp.StatusCode),
		}
	}
}

// RawURL returns the full-resolution download URL for a file path, served
// from raw.githubusercontent.com.
func RawURL(owner, repo, ref, path string) string {
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s",
		owner, repo, ref, url.PathEscape(path))
}
