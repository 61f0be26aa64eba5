package github

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// RepoRef identifies a repository and optional ref parsed from a URL.
type RepoRef struct {
	Owner string
	Repo  string
	Ref   string
}

var (
	// /owner/repo/tree/ref[/path] - branch or subdirectory URL
	treeRegex = regexp.MustCompile(`^/([^/]+)/([^/]+)/tree/([^/]+)`)
	// /owner/repo - bare repository URL
	repoRegex = regexp.MustCompile(`^/([^/]+)/([^/]+)/?$`)
)

// ParseRepoURL extracts owner, repository and ref from a pasted GitHub URL.
// Ref is empty when the URL names only the repository.
func ParseRepoURL(raw string) (RepoRef, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return RepoRef{}, fmt.Errorf("github: invalid URL: %s", raw)
	}

	host := strings.ToLower(parsed.Host)
	if host != "github.com" && host != "www.github.com" {
		return RepoRef{}, fmt.Errorf("github: unsupported host %q (expected github.com)", parsed.Host)
	}

	if match := treeRegex.FindStringSubmatch(parsed.Path); len(match) == 4 {
		return RepoRef{Owner: match[1], Repo: match[2], Ref: match[3]}, nil
	}
	if match := repoRegex.FindStringSubmatch(parsed.Path); len(match) == 3 {
		return RepoRef{Owner: match[1], Repo: strings.TrimSuffix(match[2], ".git")}, nil
	}

	return RepoRef{}, fmt.Errorf(
		"github: unrecognized URL format: %s (expected https://github.com/owner/repo or .../tree/branch)", raw)
}
