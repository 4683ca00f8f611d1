package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/recall/pkg/debug"
	"github.com/vanderheijden86/recall/pkg/model"
)

const commandColumns = `id, session_id, command_text, timestamp, duration_ms, cwd, git_repo, git_branch, exit_code`

// toolScanCap bounds how many rows a tool lookup inspects. Tool names are
// derived from command text, so the filter runs in Go.
const toolScanCap = 20000

// Reader provides read access to a recall database.
type Reader struct {
	db   *sql.DB
	path string
}

// Open opens the database at path read-only.
func Open(path string) (*Reader, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA cache_size = -16000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			debug.Log("datasource: %s: %v", pragma, err)
		}
	}
	return &Reader{db: db, path: path}, nil
}

// NewReader wraps an existing handle.
func NewReader(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// Path returns the file the reader was opened on, or "".
func (r *Reader) Path() string { return r.path }

// Close closes the database connection.
func (r *Reader) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Sessions returns sessions newest first.
func (r *Reader) Sessions(ctx context.Context, limit, offset int) ([]model.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, start_time, end_time, terminal_app, initial_dir
		FROM sessions
		ORDER BY start_time DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []model.Session
	for rows.Next() {
		var s model.Session
		var end sql.NullInt64
		var term, dir sql.NullString
		if err := rows.Scan(&s.ID, &s.StartTime, &end, &term, &dir); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if end.Valid {
			v := end.Int64
			s.EndTime = &v
		}
		s.TerminalApp = term.String
		s.InitialDir = dir.String
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return out, nil
}

// SessionCommands returns one session's commands in execution order.
func (r *Reader) SessionCommands(ctx context.Context, sessionID string) ([]model.Command, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+commandColumns+` FROM commands WHERE session_id = ? ORDER BY timestamp ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session commands: %w", err)
	}
	defer rows.Close()
	return scanCommands(rows, 0, nil)
}

// Commands answers a drill-down or listing query. Session lookups return
// execution order; everything else returns newest first.
func (r *Reader) Commands(ctx context.Context, q model.CommandQuery) ([]model.Command, error) {
	limit := q.EffectiveLimit()
	var (
		rows *sql.Rows
		err  error
		keep func(model.Command) bool
	)
	switch {
	case q.SessionID != "":
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+commandColumns+` FROM commands WHERE session_id = ? ORDER BY timestamp ASC LIMIT ?`,
			q.SessionID, limit)
	case q.Repo != "":
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+commandColumns+` FROM commands WHERE git_repo = ? OR git_repo LIKE ? ORDER BY timestamp DESC LIMIT ?`,
			q.Repo, "%/"+q.Repo, limit)
	case q.Tool != "":
		tool := strings.ToLower(q.Tool)
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+commandColumns+` FROM commands WHERE lower(command_text) LIKE ? ORDER BY timestamp DESC LIMIT ?`,
			"%"+tool+"%", toolScanCap)
		keep = func(c model.Command) bool { return c.ToolName() == tool }
	default:
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+commandColumns+` FROM commands ORDER BY timestamp DESC LIMIT ?`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query commands: %w", err)
	}
	defer rows.Close()
	return scanCommands(rows, limit, keep)
}

// Stats counts sessions, commands, failures and distinct repositories.
func (r *Reader) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&st.Sessions); err != nil {
		return st, fmt.Errorf("count sessions: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN exit_code IS NOT NULL AND exit_code != 0 THEN 1 ELSE 0 END), 0)
		FROM commands`).Scan(&st.Commands, &st.Failures); err != nil {
		return st, fmt.Errorf("count commands: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT git_repo FROM commands WHERE git_repo IS NOT NULL AND git_repo != '' ORDER BY git_repo`)
	if err != nil {
		return st, fmt.Errorf("query repos: %w", err)
	}
	defer rows.Close()
	st.RepoNames = []string{}
	for rows.Next() {
		var repo string
		if err := rows.Scan(&repo); err != nil {
			return st, fmt.Errorf("scan repo: %w", err)
		}
		st.RepoNames = append(st.RepoNames, repo)
	}
	if err := rows.Err(); err != nil {
		return st, fmt.Errorf("error iterating repos: %w", err)
	}
	st.Repos = len(st.RepoNames)
	return st, nil
}

// LastActivity returns the newest command timestamp, or the zero time for
// an empty database.
func (r *Reader) LastActivity(ctx context.Context) (time.Time, error) {
	var ms sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(timestamp) FROM commands`).Scan(&ms); err != nil {
		return time.Time{}, err
	}
	if !ms.Valid {
		return time.Time{}, nil
	}
	return time.UnixMilli(ms.Int64), nil
}

// scanCommands reads command rows. A positive limit stops the scan once
// that many rows pass keep; a nil keep accepts every row.
func scanCommands(rows *sql.Rows, limit int, keep func(model.Command) bool) ([]model.Command, error) {
	out := []model.Command{}
	for rows.Next() {
		var c model.Command
		var dur sql.NullInt64
		var exit sql.NullInt64
		var cwd, repo, branch sql.NullString
		if err := rows.Scan(&c.ID, &c.SessionID, &c.CommandText, &c.Timestamp,
			&dur, &cwd, &repo, &branch, &exit); err != nil {
			return nil, fmt.Errorf("scan command: %w", err)
		}
		if dur.Valid {
			v := dur.Int64
			c.DurationMs = &v
		}
		if exit.Valid {
			v := int(exit.Int64)
			c.ExitCode = &v
		}
		c.Cwd = cwd.String
		c.GitRepo = repo.String
		c.GitBranch = branch.String

		if keep != nil && !keep(c) {
			continue
		}
		out = append(out, c)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commands: %w", err)
	}
	return out, nil
}
