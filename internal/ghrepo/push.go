// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ghrepo

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/berkanimo/autolatex/pkg/types"
)

// placeholderFile marks the target folder when it does not exist yet; the
// contents API has no way to create an empty directory.
const placeholderFile = ".gitkeep"

type contentsFile struct {
	SHA string `json:"sha"`
}

type putContentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

// Push uploads artifacts into cfg.Folder of owner/repo via the contents
// API. Each file is created or updated depending on whether it already
// exists; updates carry the current blob SHA, as the optimistic-update
// contents API requires. The first failure aborts the remaining uploads —
// files already pushed stay pushed. It returns how many artifacts landed.
func (c *Client) Push(owner, repo string, cfg types.PushConfig, artifacts []string, w io.Writer) (int, error) {
	if len(artifacts) == 0 {
		return 0, fmt.Errorf("no artifacts to push")
	}
	if cfg.Folder == "" {
		return 0, fmt.Errorf("no target folder configured")
	}

	if err := c.ensureFolder(owner, repo, cfg); err != nil {
		return 0, err
	}

	pushed := 0
	for _, artifact := range artifacts {
		name := filepath.Base(artifact)
		if err := c.putFile(owner, repo, path.Join(cfg.Folder, name), artifact, cfg); err != nil {
			return pushed, fmt.Errorf("pushing %s (after %d pushed): %w", name, pushed, err)
		}
		fmt.Fprintf(w, "pushed: %s -> %s/%s/%s\n", name, owner, repo, cfg.Folder)
		pushed++
	}
	return pushed, nil
}

// ensureFolder creates the placeholder entry when the folder is missing.
func (c *Client) ensureFolder(owner, repo string, cfg types.PushConfig) error {
	placeholder := path.Join(cfg.Folder, placeholderFile)
	apiPath := contentsPath(owner, repo, cfg.Folder)

	var listing interface{}
	err := c.rest.Get(apiPath, &listing)
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("checking folder %s: %w", cfg.Folder, err)
	}

	body, err := encodePut(putContentsRequest{
		Message: fmt.Sprintf("Create %s folder", cfg.Folder),
		Content: base64.StdEncoding.EncodeToString(nil),
		Branch:  cfg.Branch,
	})
	if err != nil {
		return err
	}
	if err := c.rest.Put(contentsPath(owner, repo, placeholder), body, nil); err != nil {
		return fmt.Errorf("creating folder %s: %w", cfg.Folder, err)
	}
	return nil
}

// putFile creates or updates one repository file from a local artifact.
func (c *Client) putFile(owner, repo, repoPath, localPath string, cfg types.PushConfig) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", localPath, err)
	}

	// Existing file: its SHA must accompany the update.
	sha := ""
	var existing contentsFile
	if err := c.rest.Get(contentsPath(owner, repo, repoPath), &existing); err == nil {
		sha = existing.SHA
	} else if !isNotFound(err) {
		return fmt.Errorf("checking %s: %w", repoPath, err)
	}

	verb := "Add"
	if sha != "" {
		verb = "Update"
	}
	body, err := encodePut(putContentsRequest{
		Message: fmt.Sprintf("%s %s", verb, path.Base(repoPath)),
		Content: base64.StdEncoding.EncodeToString(data),
		SHA:     sha,
		Branch:  cfg.Branch,
	})
	if err != nil {
		return err
	}
	if err := c.rest.Put(contentsPath(owner, repo, repoPath), body, nil); err != nil {
		return fmt.Errorf("uploading %s: %w", repoPath, err)
	}
	return nil
}

func contentsPath(owner, repo, p string) string {
	return fmt.Sprintf("repos/%s/%s/contents/%s", owner, repo, p)
}

func encodePut(req putContentsRequest) (io.Reader, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding contents request: %w", err)
	}
	return bytes.NewReader(data), nil
}
