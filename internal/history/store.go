// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records every compilation in a SQLite database inside
// the working directory, so a session's outcomes survive across
// invocations and can be listed with the history subcommand.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/berkanimo/autolatex/pkg/types"
)

const dbFile = "autolatex.db"

// Mode identifies how a compilation was performed.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
	ModeBatch  Mode = "batch"
)

// Entry is one recorded compilation.
type Entry struct {
	ID        int64
	CreatedAt time.Time
	Mode      Mode
	Source    string // input filename or repo target
	Artifact  string // empty when the compile failed
	Success   bool
	Log       string
}

// Store manages the compilation history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database in workdir.
func Open(workdir string) (*Store, error) {
	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return nil, fmt.Errorf("creating working directory: %w", err)
	}
	dbPath := filepath.Join(workdir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS compilations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TEXT NOT NULL,
		mode TEXT NOT NULL,
		source TEXT NOT NULL,
		artifact TEXT,
		success INTEGER NOT NULL,
		log TEXT
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Record stores one compilation outcome.
func (s *Store) Record(mode Mode, source string, res types.Result) error {
	_, err := s.db.Exec(
		`INSERT INTO compilations (created_at, mode, source, artifact, success, log)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), string(mode), source,
		res.ArtifactPath, boolToInt(res.OK()), res.Log,
	)
	if err != nil {
		return fmt.Errorf("recording compilation of %s: %w", source, err)
	}
	return nil
}

// RecordBatch stores every entry of a batch under ModeBatch.
func (s *Store) RecordBatch(result types.BatchResult) error {
	for _, e := range result.Entries {
		if err := s.Record(ModeBatch, e.Target, e.Result); err != nil {
			return err
		}
	}
	return nil
}

// Recent returns the latest n entries, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := s.db.Query(
		`SELECT id, created_at, mode, source, artifact, success, log
		 FROM compilations ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		var success int
		if err := rows.Scan(&e.ID, &createdAt, &e.Mode, &e.Source, &e.Artifact, &success, &e.Log); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if t, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
			e.CreatedAt = t
		}
		e.Success = success != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
