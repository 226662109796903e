// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package webui serves a small browser frontend over the local compiler
// and the batch orchestrator: a single-file upload form backed by POST
// /compile, a websocket endpoint streaming per-target batch progress,
// and a file server for finished artifacts.
package webui

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/berkanimo/autolatex/internal/batch"
	"github.com/berkanimo/autolatex/internal/compiler"
	"github.com/berkanimo/autolatex/internal/document"
	"github.com/berkanimo/autolatex/internal/ghrepo"
	"github.com/berkanimo/autolatex/internal/history"
	"github.com/berkanimo/autolatex/internal/remote"
	"github.com/berkanimo/autolatex/pkg/types"
)

// Server bundles the configuration the HTTP handlers need. Client is
// used for outbound batch compile calls; History may be nil to disable
// recording.
type Server struct {
	Local   types.LocalConfig
	Batch   types.BatchConfig
	Client  *http.Client
	History *history.Store
	Check   batch.CheckFunc
	Log     io.Writer
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler builds the route table. Artifacts are served straight out of
// the local working directory.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/compile", s.handleCompile)
	mux.HandleFunc("/ws/batch", s.handleBatchWS)
	mux.Handle("/artifacts/", http.StripPrefix("/artifacts/",
		http.FileServer(http.Dir(s.Local.WorkDir))))
	return mux
}

// ListenAndServe blocks serving the UI on addr.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

type compileResponse struct {
	Artifact string `json:"artifact,omitempty"`
	Log      string `json:"log,omitempty"`
	Error    string `json:"error,omitempty"`
}

// handleCompile accepts one uploaded .tex or .txt file, stores it in
// the working directory and compiles it locally. The upload is gated on
// size and, for .txt files, on a LaTeX preamble before any subprocess
// is started.
func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, document.MaxUploadBytes+4096)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, compileResponse{Error: "missing file upload"})
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !document.IsCompilable(name) {
		writeJSON(w, http.StatusUnprocessableEntity, compileResponse{
			Error: "only .tex and .txt files can be compiled",
		})
		return
	}
	if header.Size > document.MaxUploadBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, compileResponse{
			Error: fmt.Sprintf("file exceeds the %d byte upload limit", document.MaxUploadBytes),
		})
		return
	}

	dst := filepath.Join(s.Local.WorkDir, name)
	if err := saveUpload(dst, file); err != nil {
		writeJSON(w, http.StatusInternalServerError, compileResponse{Error: err.Error()})
		return
	}

	res := compiler.Compile(name, s.Local, s.log())
	if s.History != nil {
		if err := s.History.Record(history.ModeLocal, name, res); err != nil {
			fmt.Fprintf(s.log(), "Warning: recording compile history: %v\n", err)
		}
	}
	if !res.OK() {
		writeJSON(w, http.StatusUnprocessableEntity, compileResponse{
			Error: "compilation failed",
			Log:   res.Log,
		})
		return
	}
	writeJSON(w, http.StatusOK, compileResponse{
		Artifact: "/artifacts/" + filepath.Base(res.ArtifactPath),
		Log:      res.Log,
	})
}

type batchRequest struct {
	RepoURL string   `json:"repo_url"`
	Targets []string `json:"targets"`
}

type batchEvent struct {
	Type      string `json:"type"` // "start", "done", "summary"
	Target    string `json:"target,omitempty"`
	Artifact  string `json:"artifact,omitempty"`
	Success   bool   `json:"success,omitempty"`
	Log       string `json:"log,omitempty"`
	Succeeded int    `json:"succeeded,omitempty"`
	Failed    int    `json:"failed,omitempty"`
	Error     string `json:"error,omitempty"`
}

// handleBatchWS runs one batch per websocket connection. The client
// sends a single batchRequest; the server streams a start and a done
// event per target and closes with a summary. Events from concurrent
// compiles are serialized onto the connection.
func (s *Server) handleBatchWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var req batchRequest
	if err := conn.ReadJSON(&req); err != nil {
		return
	}
	if req.RepoURL == "" || len(req.Targets) == 0 {
		conn.WriteJSON(batchEvent{Type: "summary", Error: "repository URL and at least one target are required"})
		return
	}
	if s.Check != nil {
		owner, repo, err := ghrepo.Parse(req.RepoURL)
		if err == nil {
			err = s.Check(owner, repo)
		}
		if err != nil {
			conn.WriteJSON(batchEvent{Type: "summary", Error: err.Error()})
			return
		}
	}

	var mu sync.Mutex
	send := func(ev batchEvent) {
		mu.Lock()
		defer mu.Unlock()
		conn.WriteJSON(ev)
	}

	compile := func(target, artifact string) types.Result {
		send(batchEvent{Type: "start", Target: target})
		res := remote.CompileReferenceAs(s.Client, req.RepoURL, target, artifact, s.Batch.Remote, s.log())
		send(batchEvent{
			Type:     "done",
			Target:   target,
			Artifact: artifactURL(res),
			Success:  res.OK(),
			Log:      res.Log,
		})
		return res
	}

	res := batch.RunWith(req.Targets, compile, s.Batch.MaxConcurrency, time.Now(), s.log())
	if s.History != nil {
		if err := s.History.RecordBatch(res); err != nil {
			fmt.Fprintf(s.log(), "Warning: recording batch history: %v\n", err)
		}
	}
	send(batchEvent{Type: "summary", Succeeded: res.Succeeded, Failed: res.Failed})
}

func artifactURL(res types.Result) string {
	if !res.OK() {
		return ""
	}
	return "/artifacts/" + filepath.Base(res.ArtifactPath)
}

func (s *Server) log() io.Writer {
	if s.Log != nil {
		return s.Log
	}
	return io.Discard
}

func saveUpload(dst string, src io.Reader) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("storing upload: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("storing upload: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
