// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compiler

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// auxExtensions are the intermediate files pdflatex leaves next to the
// artifact.
var auxExtensions = []string{".aux", ".log", ".out", ".toc", ".synctex.gz", ".nav", ".snm"}

const cleanupAttempts = 3

// CleanupRetryDelay is the pause between deletion attempts when retrying.
// Tests override this to avoid real sleeps.
var CleanupRetryDelay = 200 * time.Millisecond

// Cleanup deletes the intermediate build files for the given base
// filenames from workdir. Missing files are skipped silently, so running
// it twice is a no-op the second time. With retry set, each failing
// deletion is reattempted a few times with a short delay before being
// reported; the local-compile flow uses this to ride out transient file
// locks, the remote flow does not. It returns the number of files removed;
// deletions that ultimately fail produce a warning on w.
func Cleanup(workdir string, bases []string, retry bool, w io.Writer) int {
	removed := 0
	for _, base := range bases {
		stem := base
		if ext := filepath.Ext(base); ext != "" {
			stem = base[:len(base)-len(ext)]
		}
		for _, ext := range auxExtensions {
			path := filepath.Join(workdir, stem+ext)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := remove(path, retry); err != nil {
				fmt.Fprintf(w, "warning: could not delete %s: %v\n", filepath.Base(path), err)
				continue
			}
			removed++
		}
	}
	return removed
}

func remove(path string, retry bool) error {
	attempts := 1
	if retry {
		attempts = cleanupAttempts
	}
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(CleanupRetryDelay)
		}
		if err = os.Remove(path); err == nil || os.IsNotExist(err) {
			return nil
		}
	}
	return err
}
