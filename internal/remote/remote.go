// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package remote compiles documents through hosted LaTeX services. Two
// modes exist: content-mode uploads the document bytes to a compile
// endpoint, reference-mode points a latexonline.cc-style service at a file
// inside a git repository. Success in either mode is an HTTP 200 response
// with a PDF content type; everything else becomes a log-only Result.
// Compile calls are attempted exactly once, with no retries.
package remote

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/berkanimo/autolatex/internal/document"
	"github.com/berkanimo/autolatex/pkg/types"
)

const (
	// DefaultReferenceEndpoint is the hosted git-compile service.
	DefaultReferenceEndpoint = "https://latexonline.cc/compile"

	// DefaultCompiler is the compiler-selection value sent to services.
	DefaultCompiler = "pdflatex"

	// GitHubPrefix is the only repository host accepted for
	// reference-mode targets.
	GitHubPrefix = "https://github.com/"

	contentTypePDF = "application/pdf"

	// logBodyLimit caps how much of an error response body ends up in
	// the result log.
	logBodyLimit = 512
)

// CompileContent uploads content to the configured content-mode endpoint
// as a multipart form (file field plus compiler-selection field) and, on
// success, writes the returned PDF into cfg.WorkDir under the document's
// stem. One attempt only.
func CompileContent(client *http.Client, name string, content []byte, cfg types.RemoteConfig, w io.Writer) types.Result {
	if cfg.ContentEndpoint == "" {
		return types.Failure("no content-mode compile endpoint configured")
	}
	if err := document.CheckSize(name, int64(len(content))); err != nil {
		return types.Failure(err.Error())
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return types.Failure(fmt.Sprintf("building upload request: %v", err))
	}
	if _, err := part.Write(content); err != nil {
		return types.Failure(fmt.Sprintf("building upload request: %v", err))
	}
	if err := mw.WriteField("compiler", compiler(cfg)); err != nil {
		return types.Failure(fmt.Sprintf("building upload request: %v", err))
	}
	if err := mw.Close(); err != nil {
		return types.Failure(fmt.Sprintf("building upload request: %v", err))
	}

	req, err := http.NewRequest(http.MethodPost, cfg.ContentEndpoint, &body)
	if err != nil {
		return types.Failure(fmt.Sprintf("building upload request: %v", err))
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", contentTypePDF)
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	artifact := document.Stem(name) + ".pdf"
	res := fetchPDF(client, req, cfg, artifact)
	if res.OK() {
		writeSidecar(res.ArtifactPath, types.ArtifactMeta{
			Target:      name,
			Endpoint:    cfg.ContentEndpoint,
			Compiler:    compiler(cfg),
			RetrievedAt: time.Now().UTC(),
		}, w)
	}
	return res
}

// CompileReference asks the reference-mode service to clone repoURL and
// compile target inside it. The artifact lands in cfg.WorkDir under the
// target's stem.
func CompileReference(client *http.Client, repoURL, target string, cfg types.RemoteConfig, w io.Writer) types.Result {
	return CompileReferenceAs(client, repoURL, target, document.Stem(target)+".pdf", cfg, w)
}

// CompileReferenceAs is CompileReference with an explicit artifact
// filename, which batch runs use to keep concurrently produced artifacts
// from colliding.
func CompileReferenceAs(client *http.Client, repoURL, target, artifact string, cfg types.RemoteConfig, w io.Writer) types.Result {
	if err := ValidateReference(repoURL, target); err != nil {
		return types.Failure(err.Error())
	}

	endpoint := cfg.ReferenceEndpoint
	if endpoint == "" {
		endpoint = DefaultReferenceEndpoint
	}

	gitURL := strings.TrimSuffix(repoURL, "/") + ".git"
	apiURL := fmt.Sprintf("%s?git=%s&target=%s&command=%s",
		endpoint, url.QueryEscape(gitURL), url.QueryEscape(target), url.QueryEscape(compiler(cfg)))

	req, err := http.NewRequest(http.MethodGet, apiURL, nil)
	if err != nil {
		return types.Failure(fmt.Sprintf("building compile request: %v", err))
	}
	req.Header.Set("Accept", contentTypePDF)
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	res := fetchPDF(client, req, cfg, artifact)
	if res.OK() {
		writeSidecar(res.ArtifactPath, types.ArtifactMeta{
			RepoURL:     repoURL,
			Target:      target,
			Endpoint:    endpoint,
			Compiler:    compiler(cfg),
			RetrievedAt: time.Now().UTC(),
		}, w)
	}
	return res
}

// ValidateReference checks the reference-mode preconditions: a GitHub
// repository URL and a .tex target path.
func ValidateReference(repoURL, target string) error {
	if !strings.HasPrefix(repoURL, GitHubPrefix) {
		return fmt.Errorf("repository URL must start with %s", GitHubPrefix)
	}
	if !strings.HasSuffix(strings.ToLower(target), ".tex") {
		return fmt.Errorf("target path must name a .tex file: %s", target)
	}
	return nil
}

// fetchPDF performs the request and stages the artifact. Network-level
// failures and compilation-level failures produce distinct log text but
// the same artifact-less Result shape.
func fetchPDF(client *http.Client, req *http.Request, cfg types.RemoteConfig, artifact string) types.Result {
	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return types.Failure(fmt.Sprintf("compile request timed out after %v", client.Timeout))
		}
		return types.Failure(fmt.Sprintf("network error reaching compile service: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Failure(fmt.Sprintf("compile service returned HTTP %d: %s",
			resp.StatusCode, readBodyForLog(resp.Body)))
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), contentTypePDF) {
		return types.Failure(fmt.Sprintf("compile service returned %q instead of a PDF: %s",
			resp.Header.Get("Content-Type"), readBodyForLog(resp.Body)))
	}

	path, err := stageArtifact(resp.Body, cfg.WorkDir, artifact)
	if err != nil {
		return types.Failure(fmt.Sprintf("saving compiled PDF: %v", err))
	}
	return types.Result{ArtifactPath: path, Log: "compilation succeeded"}
}

// stageArtifact writes the body to a temp file and renames it into place,
// so a torn download never leaves a half-written artifact under the final
// name.
func stageArtifact(body io.Reader, workdir, name string) (string, error) {
	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return "", fmt.Errorf("creating working directory %s: %w", workdir, err)
	}
	destPath := filepath.Join(workdir, name)

	tmpFile, err := os.CreateTemp(workdir, ".remote-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return destPath, nil
}

// writeSidecar records where a remote artifact came from. Sidecar failures
// are warnings, never compile failures.
func writeSidecar(artifactPath string, meta types.ArtifactMeta, w io.Writer) {
	data, err := yaml.Marshal(meta)
	if err != nil {
		fmt.Fprintf(w, "warning: marshaling artifact metadata: %v\n", err)
		return
	}
	sidecar := strings.TrimSuffix(artifactPath, filepath.Ext(artifactPath)) + ".yaml"
	if err := os.WriteFile(sidecar, data, 0o644); err != nil {
		fmt.Fprintf(w, "warning: writing artifact metadata %s: %v\n", sidecar, err)
	}
}

func compiler(cfg types.RemoteConfig) string {
	if cfg.Compiler != "" {
		return cfg.Compiler
	}
	return DefaultCompiler
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

func readBodyForLog(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, logBodyLimit+1))
	if err != nil {
		return fmt.Sprintf("(unreadable response body: %v)", err)
	}
	s := strings.TrimSpace(string(data))
	if len(s) > logBodyLimit {
		return s[:logBodyLimit] + "..."
	}
	return s
}
