// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/berkanimo/autolatex/internal/document"
	"github.com/berkanimo/autolatex/internal/ghrepo"
	"github.com/berkanimo/autolatex/internal/httputil"
	"github.com/berkanimo/autolatex/pkg/types"
)

// rawContentBase is a var so tests can point it at a local server.
var rawContentBase = "https://raw.githubusercontent.com"

// DefaultBranches is the branch-resolution order used when the config
// does not set one. Historically some repositories default to main and
// some to master, so both are tried.
var DefaultBranches = []string{"main", "master"}

// FetchRaw downloads path from repoURL via the branch-qualified
// raw-content host, trying each branch in order before failing. Unlike the
// compile calls, the fetch rides through rate limiting via the shared
// retry helper.
func FetchRaw(ctx context.Context, client *http.Client, repoURL, path string, cfg types.RemoteConfig) ([]byte, error) {
	owner, repo, err := ghrepo.Parse(repoURL)
	if err != nil {
		return nil, err
	}

	branches := cfg.Branches
	if len(branches) == 0 {
		branches = DefaultBranches
	}

	var lastErr error
	for _, branch := range branches {
		rawURL := fmt.Sprintf("%s/%s/%s/%s/%s", rawContentBase, owner, repo, branch, strings.TrimPrefix(path, "/"))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("building raw-content request: %w", err)
		}
		if cfg.UserAgent != "" {
			req.Header.Set("User-Agent", cfg.UserAgent)
		}

		resp, err := httputil.DoWithRetry(ctx, client, req, 0)
		if err != nil {
			lastErr = fmt.Errorf("fetching %s from branch %s: %w", path, branch, err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("branch %s: HTTP %d for %s", branch, resp.StatusCode, path)
			continue
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, document.MaxUploadBytes+1))
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading %s from branch %s: %w", path, branch, err)
			continue
		}
		if err := document.CheckSize(path, int64(len(data))); err != nil {
			return nil, err
		}
		return data, nil
	}
	return nil, fmt.Errorf("could not fetch %s from any branch (%s): %w",
		path, strings.Join(branches, ", "), lastErr)
}

// CompileRaw fetches the document from the repository's raw-content host
// and compiles it through the content-mode endpoint.
func CompileRaw(ctx context.Context, client *http.Client, repoURL, path string, cfg types.RemoteConfig, w io.Writer) types.Result {
	content, err := FetchRaw(ctx, client, repoURL, path, cfg)
	if err != nil {
		return types.Failure(err.Error())
	}
	return CompileContent(client, path, content, cfg, w)
}
