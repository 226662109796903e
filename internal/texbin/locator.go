// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package texbin locates and validates the local pdflatex executable.
// Validation runs the candidate with --version under a bounded timeout and
// accepts it only when the output carries the pdfTeX product marker.
package texbin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	binName       = "pdflatex"
	productMarker = "pdfTeX"
)

// ProbeTimeout bounds the --version probe. Tests override this to keep
// failure paths fast.
var ProbeTimeout = 10 * time.Second

// Validation failure classes. Each maps to a distinct user-facing message;
// none collapses into a generic default.
var (
	ErrNoPath       = errors.New("no pdflatex path provided")
	ErrNotFound     = errors.New("pdflatex executable not found")
	ErrProbeTimeout = errors.New("timed out probing pdflatex")
	ErrWrongProduct = errors.New("executable did not identify as pdfTeX")
)

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

var defaultExec executor = &osExecutor{}

// Candidates returns the explicit list of paths tried for a configured
// pdflatex location: the normalized input first, then fixed vendor-casing
// and install-root variants of it. MiKTeX installs differ only in the
// casing of the vendor directory and in whether the distribution landed
// under the per-user programs directory or Program Files.
func Candidates(path string) []string {
	cleaned := filepath.Clean(filepath.FromSlash(path))

	variants := []string{
		cleaned,
		strings.ReplaceAll(cleaned, "MiKTeX", "miktex"),
		strings.ReplaceAll(cleaned, "miktex", "MiKTeX"),
		strings.ReplaceAll(cleaned, filepath.Join("AppData", "Local", "Programs"), "Program Files"),
		strings.ReplaceAll(cleaned, filepath.Join("AppData", "Local", "Programs"), "Program Files (x86)"),
	}

	seen := make(map[string]bool, len(variants))
	var out []string
	for _, v := range variants {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// Validate resolves and probes a candidate pdflatex path. It returns the
// path that passed validation, which may be a casing variant of the input
// when the input itself did not resolve to a file. Validation is repeated
// on every call; results are never cached.
func Validate(path string) (string, error) {
	return validate(path, defaultExec)
}

func validate(path string, ex executor) (string, error) {
	if path == "" {
		return "", ErrNoPath
	}

	resolved := ""
	for _, candidate := range Candidates(path) {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			resolved = candidate
			break
		}
	}
	if resolved == "" {
		return "", fmt.Errorf("%w: %s (tried %s)", ErrNotFound, path, strings.Join(Candidates(path), ", "))
	}

	if err := probe(resolved, ex); err != nil {
		return "", err
	}
	return resolved, nil
}

// probe runs `<path> --version` and checks for the product marker.
func probe(path string, ex executor) error {
	ctx, cancel := context.WithTimeout(context.Background(), ProbeTimeout)
	defer cancel()

	out, err := ex.Output(ctx, path, "--version")
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %s after %v", ErrProbeTimeout, path, ProbeTimeout)
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("permission denied executing %s: %w", path, err)
	case err != nil:
		return fmt.Errorf("running %s --version: %w (output: %s)", path, err, truncate(string(out), 200))
	}

	if !strings.Contains(string(out), productMarker) {
		return fmt.Errorf("%w: %s (output: %s)", ErrWrongProduct, path, truncate(string(out), 200))
	}
	return nil
}

// Find returns a validated pdflatex path: the explicit path when one is
// configured, otherwise a $PATH lookup.
func Find(explicit string) (string, error) {
	return find(explicit, defaultExec)
}

func find(explicit string, ex executor) (string, error) {
	if explicit != "" {
		return validate(explicit, ex)
	}
	path, err := ex.LookPath(binName)
	if err != nil {
		return "", fmt.Errorf("%w: %s not on PATH", ErrNotFound, binName)
	}
	return path, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
