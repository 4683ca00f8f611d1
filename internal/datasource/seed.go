package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"

	"github.com/vanderheijden86/recall/pkg/model"
)

// Schema creates the sessions and commands tables used by recall.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	start_time INTEGER NOT NULL,
	end_time INTEGER,
	terminal_app TEXT,
	initial_dir TEXT
);

CREATE TABLE IF NOT EXISTS commands (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	command_text TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	duration_ms INTEGER,
	cwd TEXT,
	git_repo TEXT,
	git_branch TEXT,
	exit_code INTEGER,
	FOREIGN KEY (session_id) REFERENCES sessions(id)
);

CREATE INDEX IF NOT EXISTS idx_commands_session ON commands(session_id);
CREATE INDEX IF NOT EXISTS idx_commands_timestamp ON commands(timestamp);
CREATE INDEX IF NOT EXISTS idx_commands_exit_code ON commands(exit_code);
CREATE INDEX IF NOT EXISTS idx_commands_git_repo ON commands(git_repo);
`

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Writer appends to a recall database.
type Writer struct {
	db *sql.DB
}

// Create opens path read-write, creating the file and schema as needed.
func Create(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Writer{db: db}, nil
}

// Close closes the database.
func (w *Writer) Close() error { return w.db.Close() }

// NewSessionID returns a fresh random session id.
func NewSessionID() (string, error) {
	id, err := nanoid.Generate(idAlphabet, 12)
	if err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	return id, nil
}

// Insert writes one session and its commands in a transaction. Command ids
// are assigned by the database and written back into h.
func (w *Writer) Insert(ctx context.Context, h *SessionHistory) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	s := h.Session
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, start_time, end_time, terminal_app, initial_dir) VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.StartTime, nullInt64(s.EndTime), nullString(s.TerminalApp), nullString(s.InitialDir)); err != nil {
		return fmt.Errorf("insert session %s: %w", s.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO commands
		(session_id, command_text, timestamp, duration_ms, cwd, git_repo, git_branch, exit_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range h.Commands {
		c := &h.Commands[i]
		c.SessionID = s.ID
		res, err := stmt.ExecContext(ctx, c.SessionID, c.CommandText, c.Timestamp, nullInt64(c.DurationMs),
			nullString(c.Cwd), nullString(c.GitRepo), nullString(c.GitBranch), nullExit(c.ExitCode))
		if err != nil {
			return fmt.Errorf("insert command: %w", err)
		}
		if id, err := res.LastInsertId(); err == nil {
			c.ID = id
		}
	}
	return tx.Commit()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullExit(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// SeedOptions shapes demo data.
type SeedOptions struct {
	Sessions           int
	CommandsPerSession int
	Repos              []string
	Seed               int64
	// End is the start time of the newest session; zero means now.
	End time.Time
}

// DefaultSeedOptions returns a small but well-connected history.
func DefaultSeedOptions() SeedOptions {
	return SeedOptions{
		Sessions:           40,
		CommandsPerSession: 25,
		Repos:              []string{"recall", "dotfiles", "api-gateway", "web-client", "infra", "notes"},
		Seed:               1,
	}
}

var demoCommands = []struct {
	text     string
	failRate float64
}{
	{"git status", 0},
	{"git commit -m wip", 0.05},
	{"git push", 0.1},
	{"cargo build", 0.3},
	{"cargo test", 0.35},
	{"go test ./...", 0.2},
	{"npm run dev", 0.1},
	{"make", 0.25},
	{"docker compose up", 0.15},
	{"kubectl get pods", 0.05},
	{"rg TODO", 0},
	{"ls -la", 0},
	{"vim README.md", 0},
	{"./scripts/deploy.sh", 0.4},
}

// Seed writes synthetic sessions into w and returns them.
func Seed(ctx context.Context, w *Writer, opts SeedOptions) ([]SessionHistory, error) {
	d := DefaultSeedOptions()
	if opts.Sessions <= 0 {
		opts.Sessions = d.Sessions
	}
	if opts.CommandsPerSession <= 0 {
		opts.CommandsPerSession = d.CommandsPerSession
	}
	if len(opts.Repos) == 0 {
		opts.Repos = d.Repos
	}
	end := opts.End
	if end.IsZero() {
		end = time.Now()
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	out := make([]SessionHistory, 0, opts.Sessions)
	for i := 0; i < opts.Sessions; i++ {
		id, err := NewSessionID()
		if err != nil {
			return out, err
		}
		start := end.Add(-time.Duration(opts.Sessions-1-i) * 3 * time.Hour)
		finish := start.Add(time.Duration(opts.CommandsPerSession) * time.Minute).UnixMilli()
		h := SessionHistory{}
		h.Session.ID = id
		h.Session.StartTime = start.UnixMilli()
		h.Session.EndTime = &finish
		h.Session.TerminalApp = "demo"
		h.Session.InitialDir = "/home/demo"

		// Sessions mostly stay in one or two repositories.
		primary := opts.Repos[rng.Intn(len(opts.Repos))]
		secondary := opts.Repos[rng.Intn(len(opts.Repos))]
		for c := 0; c < opts.CommandsPerSession; c++ {
			repo := primary
			if rng.Float64() < 0.25 {
				repo = secondary
			}
			dc := demoCommands[rng.Intn(len(demoCommands))]
			code := 0
			if rng.Float64() < dc.failRate {
				code = 1
			}
			dur := int64(50 + rng.Intn(5000))
			h.Commands = append(h.Commands, commandAt(start.Add(time.Duration(c)*time.Minute), dc.text,
				"/home/demo/src/"+repo, "main", dur, code))
		}
		if err := w.Insert(ctx, &h); err != nil {
			return out, err
		}
		out = append(out, h)
	}
	return out, nil
}

func commandAt(at time.Time, text, repo, branch string, durMs int64, exit int) model.Command {
	return model.Command{
		CommandText: text,
		Timestamp:   at.UnixMilli(),
		DurationMs:  &durMs,
		Cwd:         repo,
		GitRepo:     repo,
		GitBranch:   branch,
		ExitCode:    &exit,
	}
}
