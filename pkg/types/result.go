// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Result is the outcome of one compilation. ArtifactPath is non-empty if
// and only if the operation succeeded; Log always carries a human-readable
// message (the compiler output, the skip reason, or the failure).
type Result struct {
	ArtifactPath string `json:"artifact_path,omitempty" yaml:"artifact_path,omitempty"`
	Log          string `json:"log" yaml:"log"`
}

// OK reports whether the compilation produced an artifact.
func (r Result) OK() bool {
	return r.ArtifactPath != ""
}

// Failure builds a Result with no artifact and the given log.
func Failure(log string) Result {
	return Result{Log: log}
}

// BatchEntry pairs one batch input path with its Result. Entries keep the
// position of the input that produced them.
type BatchEntry struct {
	Target string `json:"target" yaml:"target"`
	Result Result `json:"result" yaml:"result"`
}

// BatchResult holds the ordered outcomes of a batch run, one entry per
// input path.
type BatchResult struct {
	Entries   []BatchEntry `json:"entries" yaml:"entries"`
	Succeeded int          `json:"succeeded" yaml:"succeeded"`
	Failed    int          `json:"failed" yaml:"failed"`
}

// Total returns the number of targets processed.
func (r BatchResult) Total() int {
	return r.Succeeded + r.Failed
}

// HasFailures reports whether any target failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Artifacts returns the artifact paths of the successful entries, in
// input order.
func (r BatchResult) Artifacts() []string {
	var paths []string
	for _, e := range r.Entries {
		if e.Result.OK() {
			paths = append(paths, e.Result.ArtifactPath)
		}
	}
	return paths
}

// ArtifactMeta is the YAML sidecar written next to remotely compiled
// artifacts.
type ArtifactMeta struct {
	RepoURL     string    `yaml:"repo_url,omitempty"`
	Target      string    `yaml:"target,omitempty"`
	Endpoint    string    `yaml:"endpoint"`
	Compiler    string    `yaml:"compiler"`
	RetrievedAt time.Time `yaml:"retrieved_at"`
}
