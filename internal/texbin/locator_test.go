// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package texbin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecutor scripts the probe behavior without a TeX installation.
type fakeExecutor struct {
	lookPath    string
	lookErr     error
	output      []byte
	outputErr   error
	blockOnCtx  bool
	gotCommands [][]string
}

func (f *fakeExecutor) LookPath(file string) (string, error) {
	if f.lookErr != nil {
		return "", f.lookErr
	}
	return f.lookPath, nil
}

func (f *fakeExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.gotCommands = append(f.gotCommands, append([]string{name}, args...))
	if f.blockOnCtx {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.output, f.outputErr
}

func writeFakeBinary(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	return path
}

func TestCandidatesExplicitList(t *testing.T) {
	input := filepath.Join("home", "pc", "AppData", "Local", "Programs", "MiKTeX", "bin", "pdflatex")
	got := Candidates(input)

	require.NotEmpty(t, got)
	assert.Equal(t, filepath.Clean(input), got[0], "normalized input comes first")

	joined := strings.Join(got, "\n")
	assert.Contains(t, joined, "miktex")
	assert.Contains(t, joined, "Program Files")

	seen := make(map[string]bool)
	for _, c := range got {
		assert.False(t, seen[c], "candidate %s listed twice", c)
		seen[c] = true
	}
}

func TestCandidatesPlainPathIsSingle(t *testing.T) {
	got := Candidates("/usr/bin/pdflatex")
	assert.Equal(t, []string{filepath.Clean("/usr/bin/pdflatex")}, got)
}

func TestValidateAcceptsPdfTeX(t *testing.T) {
	path := writeFakeBinary(t, t.TempDir(), "pdflatex")
	ex := &fakeExecutor{output: []byte("pdfTeX 3.141592653-2.6-1.40.24 (TeX Live 2022)")}

	resolved, err := validate(path, ex)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	require.Len(t, ex.gotCommands, 1)
	assert.Equal(t, []string{path, "--version"}, ex.gotCommands[0])
}

func TestValidateResolvesCasingVariant(t *testing.T) {
	dir := t.TempDir()

	// Only the lowercase vendor directory exists on disk.
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "miktex"), 0o755))
	binPath := writeFakeBinary(t, filepath.Join(dir, "miktex"), "pdflatex")
	ex := &fakeExecutor{output: []byte("pdfTeX 1.40")}

	asked := filepath.Join(dir, "MiKTeX", "pdflatex")
	resolved, err := validate(asked, ex)
	require.NoError(t, err)
	assert.Equal(t, binPath, resolved)
}

func TestValidateEmptyPath(t *testing.T) {
	_, err := validate("", &fakeExecutor{})
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestValidateMissingFile(t *testing.T) {
	ex := &fakeExecutor{}
	_, err := validate(filepath.Join(t.TempDir(), "nope", "pdflatex"), ex)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, ex.gotCommands, "no probe when the path does not resolve")
}

func TestValidateWrongProduct(t *testing.T) {
	path := writeFakeBinary(t, t.TempDir(), "pdflatex")
	ex := &fakeExecutor{output: []byte("GNU coreutils cat 9.0")}

	_, err := validate(path, ex)
	assert.ErrorIs(t, err, ErrWrongProduct)
}

func TestValidatePermissionDenied(t *testing.T) {
	path := writeFakeBinary(t, t.TempDir(), "pdflatex")
	ex := &fakeExecutor{outputErr: os.ErrPermission}

	_, err := validate(path, ex)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestValidateProbeTimeout(t *testing.T) {
	old := ProbeTimeout
	ProbeTimeout = 0
	defer func() { ProbeTimeout = old }()

	path := writeFakeBinary(t, t.TempDir(), "pdflatex")
	ex := &fakeExecutor{blockOnCtx: true}

	_, err := validate(path, ex)
	assert.ErrorIs(t, err, ErrProbeTimeout)
}

func TestFindFallsBackToPath(t *testing.T) {
	ex := &fakeExecutor{lookPath: "/usr/bin/pdflatex"}
	path, err := find("", ex)
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/pdflatex", path)
}

func TestFindNotOnPath(t *testing.T) {
	ex := &fakeExecutor{lookErr: errors.New("executable file not found in $PATH")}
	_, err := find("", ex)
	assert.ErrorIs(t, err, ErrNotFound)
}
