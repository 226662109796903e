// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package batch fans one remote compile out per target path of a
// repository and collects the outcomes in input order. Concurrency is
// bounded; results are paired with their inputs positionally, so the
// completion order of the underlying network calls never shows through.
package batch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sourcegraph/conc/iter"

	"github.com/berkanimo/autolatex/internal/ghrepo"
	"github.com/berkanimo/autolatex/internal/remote"
	"github.com/berkanimo/autolatex/pkg/types"
)

// DefaultMaxConcurrency bounds simultaneous outbound compile calls when
// the config does not.
const DefaultMaxConcurrency = 4

// CompileFunc compiles one target into the named artifact.
type CompileFunc func(target, artifact string) types.Result

// CheckFunc is the pre-flight repository check run before any compile
// call is dispatched.
type CheckFunc func(owner, repo string) error

// Run compiles every target of repoURL through the reference-mode
// service. The returned result set has exactly one entry per target, in
// target order. check may be nil to skip the repository pre-flight.
func Run(ctx context.Context, client *http.Client, repoURL string, targets []string, cfg types.BatchConfig, check CheckFunc, w io.Writer) types.BatchResult {
	if check != nil {
		owner, repo, err := ghrepo.Parse(repoURL)
		if err != nil {
			return rejectAll(targets, err, w)
		}
		if err := check(owner, repo); err != nil {
			return rejectAll(targets, err, w)
		}
	}

	started := time.Now()
	compile := func(target, artifact string) types.Result {
		return remote.CompileReferenceAs(client, repoURL, target, artifact, cfg.Remote, w)
	}
	return RunWith(targets, compile, cfg.MaxConcurrency, started, w)
}

// RunWith is the orchestration core with an injectable compile step;
// the web UI uses it to stream per-target progress.
func RunWith(targets []string, compile CompileFunc, maxConcurrency int, started time.Time, w io.Writer) types.BatchResult {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}

	type job struct {
		index  int
		target string
	}
	jobs := make([]job, len(targets))
	for i, target := range targets {
		jobs[i] = job{index: i, target: target}
	}

	mapper := iter.Mapper[job, types.BatchEntry]{MaxGoroutines: maxConcurrency}
	entries := mapper.Map(jobs, func(j *job) types.BatchEntry {
		artifact := ArtifactName(j.target, j.index, started)
		return types.BatchEntry{
			Target: j.target,
			Result: safeCompile(compile, j.target, artifact),
		}
	})

	result := types.BatchResult{Entries: entries}
	for _, e := range entries {
		if e.Result.OK() {
			result.Succeeded++
			fmt.Fprintf(w, "compiled: %s -> %s\n", e.Target, e.Result.ArtifactPath)
		} else {
			result.Failed++
			fmt.Fprintf(w, "failed:   %s (%s)\n", e.Target, firstLine(e.Result.Log))
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d compiled, %d failed (total: %d)\n",
		result.Succeeded, result.Failed, result.Total())
	return result
}

// safeCompile converts a panicking compile call into a synthesized
// failure so one bad task never aborts the batch or drops its slot.
func safeCompile(compile CompileFunc, target, artifact string) (res types.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = types.Failure(fmt.Sprintf("internal error compiling %s: %v", target, r))
		}
	}()
	return compile(target, artifact)
}

// ArtifactName builds a working-directory-unique filename for one batch
// slot: sanitized stem, slot index, and the batch start timestamp. Two
// targets sharing a base filename still get distinct artifacts.
func ArtifactName(target string, index int, started time.Time) string {
	stem := target
	if i := strings.LastIndex(stem, "/"); i >= 0 {
		stem = stem[i+1:]
	}
	stem = strings.TrimSuffix(stem, ".tex")
	stem = sanitize(stem)
	if stem == "" {
		stem = "document"
	}
	return fmt.Sprintf("%s-%d-%d.pdf", stem, index, started.Unix())
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-.")
}

// rejectAll fills every slot with the pre-flight rejection, keeping the
// one-entry-per-target shape.
func rejectAll(targets []string, err error, w io.Writer) types.BatchResult {
	fmt.Fprintf(w, "batch rejected: %v\n", err)
	result := types.BatchResult{Failed: len(targets)}
	for _, target := range targets {
		result.Entries = append(result.Entries, types.BatchEntry{
			Target: target,
			Result: types.Failure(err.Error()),
		})
	}
	return result
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
