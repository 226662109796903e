// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package document gates uploaded inputs before any compilation is
// attempted: extension checks, the upload size limit, and LaTeX preamble
// detection for plain-text files.
package document

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MaxUploadBytes is the upload size limit. Larger documents are rejected
// outright; there is no partial acceptance.
const MaxUploadBytes = 10_000_000

const (
	markerDocumentClass = `\documentclass`
	markerBeginDocument = `\begin{document}`
)

// HasPreamble reports whether the text read from r contains both the
// document-class marker and the begin-document marker, in any order.
// A read failure counts as no preamble, not as an error.
func HasPreamble(r io.Reader) bool {
	data, err := io.ReadAll(r)
	if err != nil {
		return false
	}
	text := string(data)
	return strings.Contains(text, markerDocumentClass) &&
		strings.Contains(text, markerBeginDocument)
}

// FileHasPreamble opens path and applies HasPreamble. An unreadable file
// is a negative result.
func FileHasPreamble(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	return HasPreamble(f)
}

// IsCompilable reports whether name has a .tex or .txt extension
// (case-insensitive).
func IsCompilable(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tex", ".txt":
		return true
	}
	return false
}

// IsPlainText reports whether name has a .txt extension.
func IsPlainText(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".txt")
}

// CheckSize rejects documents above MaxUploadBytes.
func CheckSize(name string, size int64) error {
	if size > MaxUploadBytes {
		return fmt.Errorf("%s exceeds the %d byte upload limit (%d bytes)", name, MaxUploadBytes, size)
	}
	return nil
}

// Stem returns name without its extension.
func Stem(name string) string {
	return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
}

// Promote renames a .txt file in workdir to the same stem with a .tex
// extension so pdflatex will accept it. The caller must have checked the
// preamble first; the rename is not undone on later failures. It returns
// the new filename.
func Promote(workdir, name string) (string, error) {
	if !IsPlainText(name) {
		return name, nil
	}
	texName := Stem(name) + ".tex"
	oldPath := filepath.Join(workdir, name)
	newPath := filepath.Join(workdir, texName)
	if err := os.Rename(oldPath, newPath); err != nil {
		return "", fmt.Errorf("renaming %s to %s: %w", name, texName, err)
	}
	return texName, nil
}
