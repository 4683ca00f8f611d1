package datasource

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/vanderheijden86/recall/pkg/model"
)

func newMockReader(t *testing.T) (*Reader, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return NewReader(db), mock
}

var commandCols = []string{"id", "session_id", "command_text", "timestamp", "duration_ms", "cwd", "git_repo", "git_branch", "exit_code"}

func TestSessions_QueryError(t *testing.T) {
	r, mock := newMockReader(t)
	mock.ExpectQuery("SELECT .+ FROM sessions").WithArgs(10, 0).WillReturnError(errors.New("disk I/O error"))

	_, err := r.Sessions(context.Background(), 10, 0)
	if err == nil || !strings.Contains(err.Error(), "query sessions") {
		t.Errorf("expected wrapped query error, got %v", err)
	}
}

func TestSessions_NullableColumns(t *testing.T) {
	r, mock := newMockReader(t)
	rows := sqlmock.NewRows([]string{"id", "start_time", "end_time", "terminal_app", "initial_dir"}).
		AddRow("s1", int64(10), nil, nil, "/home").
		AddRow("s2", int64(5), int64(9), "kitty", nil)
	mock.ExpectQuery("SELECT .+ FROM sessions").WithArgs(2, 0).WillReturnRows(rows)

	got, err := r.Sessions(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(got))
	}
	if got[0].EndTime != nil || got[0].InitialDir != "/home" {
		t.Errorf("unexpected first session %+v", got[0])
	}
	if got[1].EndTime == nil || *got[1].EndTime != 9 || got[1].TerminalApp != "kitty" {
		t.Errorf("unexpected second session %+v", got[1])
	}
}

func TestCommands_ToolFilterRunsInGo(t *testing.T) {
	r, mock := newMockReader(t)
	rows := sqlmock.NewRows(commandCols).
		AddRow(int64(3), "s", "/usr/bin/GIT log", int64(3), nil, nil, "/src/a", nil, int64(0)).
		AddRow(int64(2), "s", "gitk --all", int64(2), nil, nil, nil, nil, nil).
		AddRow(int64(1), "s", "git status", int64(1), int64(40), "/src/a", "/src/a", "main", int64(1))
	mock.ExpectQuery("SELECT .+ FROM commands WHERE lower\\(command_text\\) LIKE").
		WithArgs("%git%", toolScanCap).WillReturnRows(rows)

	got, err := r.Commands(context.Background(), model.CommandQuery{Tool: "git"})
	if err != nil {
		t.Fatalf("commands: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected gitk to be filtered out, got %d commands", len(got))
	}
	if got[1].DurationMs == nil || *got[1].DurationMs != 40 || !got[1].Failed() {
		t.Errorf("expected duration and failure to scan, got %+v", got[1])
	}
}

func TestBuildPayload_SessionQueryFails(t *testing.T) {
	r, mock := newMockReader(t)
	mock.ExpectQuery("SELECT .+ FROM sessions").WithArgs(DefaultSessionWindow, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "start_time", "end_time", "terminal_app", "initial_dir"}).
			AddRow("s1", int64(1), nil, nil, nil))
	mock.ExpectQuery("SELECT .+ FROM commands WHERE session_id").WithArgs("s1").
		WillReturnError(sql.ErrConnDone)

	_, err := r.BuildPayload(context.Background(), BuildOptions{})
	if !errors.Is(err, sql.ErrConnDone) {
		t.Errorf("expected ErrConnDone to propagate, got %v", err)
	}
	if err == nil || !strings.Contains(err.Error(), "session s1") {
		t.Errorf("expected session id in error, got %v", err)
	}
}

func TestStats_CountError(t *testing.T) {
	r, mock := newMockReader(t)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM sessions").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\), COALESCE").WillReturnError(errors.New("no such table: commands"))

	_, err := r.Stats(context.Background())
	if err == nil || !strings.Contains(err.Error(), "count commands") {
		t.Errorf("expected count commands error, got %v", err)
	}
}
