// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ghrepo talks to the GitHub REST API: pre-flight repository
// checks before remote compilation, and pushing produced artifacts back
// into a repository folder.
package ghrepo

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/cli/go-gh/v2/pkg/api"
)

const defaultAPITimeout = 30 * time.Second

// Repository rejection classes surfaced before any compile attempt.
var (
	ErrRepoNotFound = errors.New("repository not found")
	ErrRepoPrivate  = errors.New("repository is private")
)

// restClient is the slice of go-gh's REST client the package uses,
// abstracted so tests can run without the network.
type restClient interface {
	Get(path string, response interface{}) error
	Put(path string, body io.Reader, response interface{}) error
}

// Client wraps an authenticated GitHub REST client.
type Client struct {
	rest restClient
}

// NewClient builds a REST client. The token may be empty for public
// read-only checks; pushing requires one.
func NewClient(token string) (*Client, error) {
	rc, err := api.NewRESTClient(api.ClientOptions{
		AuthToken: token,
		Timeout:   defaultAPITimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("creating GitHub client: %w", err)
	}
	return &Client{rest: rc}, nil
}

// Parse extracts owner and repository name from a github.com URL, with or
// without a trailing .git suffix.
func Parse(repoURL string) (owner, repo string, err error) {
	u, err := url.Parse(repoURL)
	if err != nil {
		return "", "", fmt.Errorf("parsing repository URL %q: %w", repoURL, err)
	}
	if u.Host != "github.com" {
		return "", "", fmt.Errorf("repository URL must be on github.com: %s", repoURL)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository URL must name owner and repository: %s", repoURL)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

type repoInfo struct {
	Private bool `json:"private"`
}

// CheckRepo verifies that owner/repo exists and is public. A 404 and a
// private repository each yield their own rejection, issued before any
// compile call is made.
func (c *Client) CheckRepo(owner, repo string) error {
	var info repoInfo
	err := c.rest.Get(fmt.Sprintf("repos/%s/%s", owner, repo), &info)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s/%s", ErrRepoNotFound, owner, repo)
		}
		return fmt.Errorf("checking repository %s/%s: %w", owner, repo, err)
	}
	if info.Private {
		return fmt.Errorf("%w: %s/%s (remote compilation needs a public repository)", ErrRepoPrivate, owner, repo)
	}
	return nil
}

func isNotFound(err error) bool {
	var httpErr *api.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == 404
}
