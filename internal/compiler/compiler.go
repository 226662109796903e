// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package compiler runs the local pdflatex toolchain against a single
// staged document and cleans up the intermediate files it leaves behind.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/berkanimo/autolatex/internal/document"
	"github.com/berkanimo/autolatex/internal/texbin"
	"github.com/berkanimo/autolatex/pkg/types"
)

// DefaultCompileTimeout bounds a pdflatex run when the config does not
// set one.
const DefaultCompileTimeout = 60 * time.Second

// runner abstracts pdflatex execution for testing.
type runner interface {
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

type osRunner struct{}

func (osRunner) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

var defaultRunner runner = osRunner{}

// Compile compiles one document already staged in cfg.WorkDir and returns
// the outcome as a Result: artifact path on success, log-only on failure.
// Warnings (a failed move to the output directory) go to w and never fail
// the compile. A .txt input must carry a LaTeX preamble; it is renamed to
// .tex before invocation and stays renamed afterwards.
func Compile(name string, cfg types.LocalConfig, w io.Writer) types.Result {
	return compile(name, cfg, w, defaultRunner)
}

func compile(name string, cfg types.LocalConfig, w io.Writer, run runner) types.Result {
	inputPath := filepath.Join(cfg.WorkDir, name)
	if _, err := os.Stat(inputPath); err != nil {
		return types.Failure(fmt.Sprintf("input %s not found in working directory", name))
	}

	// Gate .txt inputs on the preamble before anything irreversible.
	if document.IsPlainText(name) {
		if !document.FileHasPreamble(inputPath) {
			return types.Failure(fmt.Sprintf("skipped: %s has no LaTeX preamble", name))
		}
		promoted, err := document.Promote(cfg.WorkDir, name)
		if err != nil {
			return types.Failure(err.Error())
		}
		name = promoted
		inputPath = filepath.Join(cfg.WorkDir, name)
	}

	bin, err := texbin.Find(cfg.PdflatexPath)
	if err != nil {
		return types.Failure(err.Error())
	}

	timeout := cfg.CompileTimeout
	if timeout <= 0 {
		timeout = DefaultCompileTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	out, err := run.CombinedOutput(ctx, bin,
		"-interaction=nonstopmode",
		"-halt-on-error",
		"-output-directory="+cfg.WorkDir,
		inputPath,
	)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return types.Failure(fmt.Sprintf("compilation of %s timed out after %v", name, timeout))
	}
	if err != nil {
		return types.Failure(fmt.Sprintf("compilation of %s failed: %v\n%s", name, err, out))
	}

	// A clean exit without the artifact is still a failure.
	pdfPath := filepath.Join(cfg.WorkDir, document.Stem(name)+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return types.Failure(fmt.Sprintf("pdflatex exited cleanly but produced no PDF for %s\n%s", name, out))
	}

	if cfg.OutputDir != "" {
		moved, err := moveArtifact(pdfPath, cfg.OutputDir)
		if err != nil {
			fmt.Fprintf(w, "warning: could not move %s to %s: %v\n", filepath.Base(pdfPath), cfg.OutputDir, err)
		} else {
			pdfPath = moved
		}
	}

	return types.Result{ArtifactPath: pdfPath, Log: string(out)}
}

// moveArtifact relocates the PDF into outputDir, which must already exist
// as a directory.
func moveArtifact(pdfPath, outputDir string) (string, error) {
	info, err := os.Stat(outputDir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", outputDir)
	}
	dest := filepath.Join(outputDir, filepath.Base(pdfPath))
	if err := os.Rename(pdfPath, dest); err != nil {
		return "", err
	}
	return dest, nil
}
