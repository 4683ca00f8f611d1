// Package datasource reads the recall shell-history database (recall.db)
// and turns it into graph payloads, drill-down command lists and stats.
// It also creates and seeds databases for demos and tests.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EnvDB overrides the database location.
const EnvDB = "RECALL_DB"

// ErrNoDatabase is returned when no recall.db exists at the resolved path.
var ErrNoDatabase = errors.New("recall database not found")

// DefaultDir returns ~/.recall.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".recall"
	}
	return filepath.Join(home, ".recall")
}

// DefaultPath returns ~/.recall/recall.db.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "recall.db")
}

// Resolve picks the database path: explicit path, then $RECALL_DB, then
// the default. The file must exist.
func Resolve(path string) (string, error) {
	if path == "" {
		path = os.Getenv(EnvDB)
	}
	if path == "" {
		path = DefaultPath()
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s: %w", path, ErrNoDatabase)
		}
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory: %w", path, ErrNoDatabase)
	}
	return path, nil
}

// Source describes a database file after inspection.
type Source struct {
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
	// Valid indicates whether the sessions and commands tables could be read.
	Valid           bool   `json:"valid"`
	ValidationError string `json:"validation_error,omitempty"`
	Sessions        int    `json:"sessions"`
	Commands        int    `json:"commands"`
}

// String returns a human-readable description of the source.
func (s Source) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (mod=%s, sessions=%d, commands=%d, %s)",
		s.Path, s.ModTime.Format(time.RFC3339), s.Sessions, s.Commands, status)
}

// Inspect stats and validates the database at path. An unreadable schema
// yields an invalid Source, not an error; a missing file is ErrNoDatabase.
func Inspect(ctx context.Context, path string) (Source, error) {
	resolved, err := Resolve(path)
	if err != nil {
		return Source{Path: path}, err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return Source{Path: resolved}, err
	}
	src := Source{Path: resolved, ModTime: info.ModTime(), Size: info.Size()}
	if info.Size() == 0 {
		src.ValidationError = "empty file"
		return src, nil
	}

	r, err := Open(resolved)
	if err != nil {
		src.ValidationError = err.Error()
		return src, nil
	}
	defer r.Close()

	stats, err := r.Stats(ctx)
	if err != nil {
		src.ValidationError = err.Error()
		return src, nil
	}
	src.Valid = true
	src.Sessions = stats.Sessions
	src.Commands = stats.Commands
	return src, nil
}
