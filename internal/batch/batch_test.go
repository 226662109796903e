// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berkanimo/autolatex/pkg/types"
)

var testStart = time.Unix(1700000000, 0)

func TestRunPositionalOrdering(t *testing.T) {
	targets := []string{"a.tex", "b.tex", "c.tex", "d.tex"}

	// Earlier slots finish last; the result order must not care.
	compile := func(target, artifact string) types.Result {
		switch target {
		case "a.tex":
			time.Sleep(30 * time.Millisecond)
		case "b.tex":
			time.Sleep(15 * time.Millisecond)
		}
		return types.Result{ArtifactPath: "/work/" + artifact, Log: "ok"}
	}

	res := RunWith(targets, compile, len(targets), testStart, &bytes.Buffer{})

	require.Len(t, res.Entries, len(targets))
	for i, target := range targets {
		assert.Equal(t, target, res.Entries[i].Target, "slot %d", i)
	}
	assert.Equal(t, len(targets), res.Succeeded)
}

func TestRunOneEntryPerTargetEvenWhenCallsPanic(t *testing.T) {
	targets := []string{"ok.tex", "boom.tex", "also-ok.tex"}
	compile := func(target, artifact string) types.Result {
		if target == "boom.tex" {
			panic("connection pool corrupted")
		}
		return types.Result{ArtifactPath: "/work/" + artifact, Log: "ok"}
	}

	var out bytes.Buffer
	res := RunWith(targets, compile, 2, testStart, &out)

	require.Len(t, res.Entries, 3, "a raising call must not drop its slot")
	assert.True(t, res.Entries[0].Result.OK())
	assert.False(t, res.Entries[1].Result.OK())
	assert.Contains(t, res.Entries[1].Result.Log, "connection pool corrupted")
	assert.True(t, res.Entries[2].Result.OK())
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
}

func TestRunFailuresDoNotAbortOthers(t *testing.T) {
	targets := []string{"a.tex", "b.tex", "c.tex"}
	compile := func(target, artifact string) types.Result {
		if target == "b.tex" {
			return types.Failure("compile service returned HTTP 500")
		}
		return types.Result{ArtifactPath: "/work/" + artifact, Log: "ok"}
	}

	res := RunWith(targets, compile, 1, testStart, &bytes.Buffer{})

	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.Len(t, res.Artifacts(), 2)
}

func TestRunBoundsConcurrency(t *testing.T) {
	const limit = 2
	var inFlight, peak int32
	compile := func(target, artifact string) types.Result {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return types.Result{ArtifactPath: artifact, Log: "ok"}
	}

	targets := make([]string, 8)
	for i := range targets {
		targets[i] = fmt.Sprintf("t%d.tex", i)
	}
	RunWith(targets, compile, limit, testStart, &bytes.Buffer{})

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(limit))
}

func TestArtifactNamesDistinctForIdenticalStems(t *testing.T) {
	a := ArtifactName("chapters/main.tex", 0, testStart)
	b := ArtifactName("appendix/main.tex", 1, testStart)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".pdf"))
	assert.Contains(t, a, "main-0-")
	assert.Contains(t, b, "main-1-")
}

func TestArtifactNameSanitizes(t *testing.T) {
	got := ArtifactName("ch 1/ü main?.tex", 3, testStart)
	assert.NotContains(t, got, " ")
	assert.NotContains(t, got, "?")
	assert.Contains(t, got, "-3-")
}

func TestArtifactNameEmptyStem(t *testing.T) {
	got := ArtifactName("???.tex", 0, testStart)
	assert.True(t, strings.HasPrefix(got, "document-0-"), got)
}

func TestRunRejectsBeforeCompileOnFailedRepoCheck(t *testing.T) {
	calls := int32(0)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/pdf")
	}))
	defer ts.Close()

	cfg := types.BatchConfig{Remote: types.RemoteConfig{WorkDir: t.TempDir(), ReferenceEndpoint: ts.URL}}
	check := func(owner, repo string) error {
		return errors.New("repository is private")
	}

	var out bytes.Buffer
	res := Run(context.Background(), ts.Client(), "https://github.com/alice/secret", []string{"a.tex", "b.tex"}, cfg, check, &out)

	require.Len(t, res.Entries, 2, "rejection still yields one entry per target")
	assert.Equal(t, 2, res.Failed)
	assert.Contains(t, res.Entries[0].Result.Log, "private")
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "no compile call after a failed pre-flight")
}

func TestRunEndToEndAgainstFakeService(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("target"), "broken") {
			http.Error(w, "LaTeX error", http.StatusUnprocessableEntity)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	}))
	defer ts.Close()

	workdir := t.TempDir()
	cfg := types.BatchConfig{
		Remote:         types.RemoteConfig{WorkDir: workdir, ReferenceEndpoint: ts.URL},
		MaxConcurrency: 3,
	}
	targets := []string{"intro.tex", "broken.tex", "outro.tex"}

	var out bytes.Buffer
	res := Run(context.Background(), ts.Client(), "https://github.com/alice/thesis", targets, cfg, nil, &out)

	require.Len(t, res.Entries, 3)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.True(t, res.Entries[0].Result.OK())
	assert.False(t, res.Entries[1].Result.OK())
	assert.True(t, res.Entries[2].Result.OK())
	for _, p := range res.Artifacts() {
		assert.FileExists(t, p)
	}
	assert.Contains(t, out.String(), "Batch summary: 2 compiled, 1 failed (total: 3)")
}
