// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ghrepo

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/cli/go-gh/v2/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berkanimo/autolatex/pkg/types"
)

// fakeREST scripts GET/PUT responses keyed by API path.
type fakeREST struct {
	getResponses map[string]string // path -> JSON body
	getErrs      map[string]error
	putErrs      map[string]error
	puts         []string // paths PUT, in order
	putBodies    map[string]putContentsRequest
}

func newFakeREST() *fakeREST {
	return &fakeREST{
		getResponses: map[string]string{},
		getErrs:      map[string]error{},
		putErrs:      map[string]error{},
		putBodies:    map[string]putContentsRequest{},
	}
}

func (f *fakeREST) Get(path string, response interface{}) error {
	if err, ok := f.getErrs[path]; ok {
		return err
	}
	body, ok := f.getResponses[path]
	if !ok {
		return &api.HTTPError{StatusCode: 404}
	}
	if response == nil {
		return nil
	}
	return json.Unmarshal([]byte(body), response)
}

func (f *fakeREST) Put(path string, body io.Reader, response interface{}) error {
	if err, ok := f.putErrs[path]; ok {
		return err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	var req putContentsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	f.puts = append(f.puts, path)
	f.putBodies[path] = req
	return nil
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{"plain", "https://github.com/alice/thesis", "alice", "thesis", false},
		{"trailing slash", "https://github.com/alice/thesis/", "alice", "thesis", false},
		{"git suffix", "https://github.com/alice/thesis.git", "alice", "thesis", false},
		{"wrong host", "https://gitlab.com/alice/thesis", "", "", true},
		{"missing repo", "https://github.com/alice", "", "", true},
		{"empty", "", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantRepo, repo)
		})
	}
}

func TestCheckRepoPublic(t *testing.T) {
	rest := newFakeREST()
	rest.getResponses["repos/alice/thesis"] = `{"private": false}`
	c := &Client{rest: rest}

	assert.NoError(t, c.CheckRepo("alice", "thesis"))
}

func TestCheckRepoPrivate(t *testing.T) {
	rest := newFakeREST()
	rest.getResponses["repos/alice/secret"] = `{"private": true}`
	c := &Client{rest: rest}

	err := c.CheckRepo("alice", "secret")
	assert.ErrorIs(t, err, ErrRepoPrivate)
}

func TestCheckRepoNotFound(t *testing.T) {
	c := &Client{rest: newFakeREST()}
	err := c.CheckRepo("alice", "ghost")
	assert.ErrorIs(t, err, ErrRepoNotFound)
}

func writeArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPushCreatesFolderAndFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeArtifact(t, dir, "a.pdf", "%PDF-a")
	b := writeArtifact(t, dir, "b.pdf", "%PDF-b")

	rest := newFakeREST()
	c := &Client{rest: rest}
	cfg := types.PushConfig{Folder: "pdfs", Branch: "main"}

	var out bytes.Buffer
	pushed, err := c.Push("alice", "thesis", cfg, []string{a, b}, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, pushed)

	// Folder placeholder first, then the artifacts in order.
	require.Equal(t, []string{
		"repos/alice/thesis/contents/pdfs/.gitkeep",
		"repos/alice/thesis/contents/pdfs/a.pdf",
		"repos/alice/thesis/contents/pdfs/b.pdf",
	}, rest.puts)

	body := rest.putBodies["repos/alice/thesis/contents/pdfs/a.pdf"]
	decoded, err := base64.StdEncoding.DecodeString(body.Content)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-a", string(decoded))
	assert.Empty(t, body.SHA, "new files carry no SHA")
	assert.Equal(t, "main", body.Branch)
}

func TestPushUpdatesExistingFileWithSHA(t *testing.T) {
	dir := t.TempDir()
	a := writeArtifact(t, dir, "a.pdf", "%PDF-a2")

	rest := newFakeREST()
	rest.getResponses["repos/alice/thesis/contents/pdfs"] = `[]`
	rest.getResponses["repos/alice/thesis/contents/pdfs/a.pdf"] = `{"sha": "abc123"}`
	c := &Client{rest: rest}

	pushed, err := c.Push("alice", "thesis", types.PushConfig{Folder: "pdfs"}, []string{a}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, pushed)

	body := rest.putBodies["repos/alice/thesis/contents/pdfs/a.pdf"]
	assert.Equal(t, "abc123", body.SHA, "updates must carry the current SHA")
	assert.Contains(t, body.Message, "Update")
}

func TestPushAbortsOnFirstFailure(t *testing.T) {
	dir := t.TempDir()
	a := writeArtifact(t, dir, "a.pdf", "%PDF-a")
	b := writeArtifact(t, dir, "b.pdf", "%PDF-b")
	cc := writeArtifact(t, dir, "c.pdf", "%PDF-c")

	rest := newFakeREST()
	rest.getResponses["repos/alice/thesis/contents/pdfs"] = `[]`
	rest.putErrs["repos/alice/thesis/contents/pdfs/b.pdf"] = &api.HTTPError{StatusCode: 422}
	c := &Client{rest: rest}

	pushed, err := c.Push("alice", "thesis", types.PushConfig{Folder: "pdfs"}, []string{a, b, cc}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, 1, pushed, "a.pdf stays pushed, c.pdf is never attempted")
	assert.Contains(t, err.Error(), "b.pdf")
	assert.NotContains(t, rest.puts, "repos/alice/thesis/contents/pdfs/c.pdf")
}

func TestPushRejectsEmptyInputs(t *testing.T) {
	c := &Client{rest: newFakeREST()}
	_, err := c.Push("alice", "thesis", types.PushConfig{Folder: "pdfs"}, nil, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = c.Push("alice", "thesis", types.PushConfig{}, []string{"a.pdf"}, &bytes.Buffer{})
	assert.Error(t, err)
}
