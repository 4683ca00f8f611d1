package model

import (
	"path"
	"sort"
	"strings"
	"time"
)

// Session is one recorded shell session.
type Session struct {
	ID          string `json:"id"`
	StartTime   int64  `json:"start_time"`
	EndTime     *int64 `json:"end_time,omitempty"`
	TerminalApp string `json:"terminal_app,omitempty"`
	InitialDir  string `json:"initial_dir,omitempty"`
}

// Started returns the session start as a time.
func (s Session) Started() time.Time {
	return time.UnixMilli(s.StartTime)
}

// Command is one recorded shell command.
type Command struct {
	ID          int64  `json:"id"`
	SessionID   string `json:"session_id"`
	CommandText string `json:"command_text"`
	Timestamp   int64  `json:"timestamp"`
	DurationMs  *int64 `json:"duration_ms,omitempty"`
	Cwd         string `json:"cwd,omitempty"`
	GitRepo     string `json:"git_repo,omitempty"`
	GitBranch   string `json:"git_branch,omitempty"`
	ExitCode    *int   `json:"exit_code,omitempty"`
}

// Failed reports whether the command exited with a non-zero code.
// Commands without a recorded exit code are not failures.
func (c Command) Failed() bool {
	return c.ExitCode != nil && *c.ExitCode != 0
}

// Time returns the command timestamp as a time.
func (c Command) Time() time.Time {
	return time.UnixMilli(c.Timestamp)
}

// RepoName returns the last path segment of the git repository, or "".
func (c Command) RepoName() string {
	return LastSegment(c.GitRepo)
}

// ToolName returns the lowercased basename of the first token of the
// command text, or "" for blank commands.
func (c Command) ToolName() string {
	fields := strings.Fields(c.CommandText)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(LastSegment(fields[0]))
}

// LastSegment returns the final non-empty "/"-separated element of p.
func LastSegment(p string) string {
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}

// Stats is the /api/stats response.
type Stats struct {
	Sessions  int      `json:"sessions"`
	Commands  int      `json:"commands"`
	Repos     int      `json:"repos"`
	Failures  int      `json:"failures"`
	RepoNames []string `json:"repo_names"`
}

// SessionSummary is one /api/sessions entry: a session plus aggregates
// over its commands.
type SessionSummary struct {
	Session
	CommandCount int      `json:"command_count"`
	HasFailures  bool     `json:"has_failures"`
	FailureCount int      `json:"failure_count"`
	Repos        []string `json:"repos"`
	Branches     []string `json:"branches"`
}

// Summarize aggregates cmds into a SessionSummary. Repos and branches are
// sorted and deduplicated.
func Summarize(s Session, cmds []Command) SessionSummary {
	out := SessionSummary{Session: s, CommandCount: len(cmds), Repos: []string{}, Branches: []string{}}
	repos := map[string]bool{}
	branches := map[string]bool{}
	for _, c := range cmds {
		if c.Failed() {
			out.FailureCount++
		}
		if c.GitRepo != "" {
			repos[c.GitRepo] = true
		}
		if c.GitBranch != "" {
			branches[c.GitBranch] = true
		}
	}
	out.HasFailures = out.FailureCount > 0
	for r := range repos {
		out.Repos = append(out.Repos, r)
	}
	for b := range branches {
		out.Branches = append(out.Branches, b)
	}
	sort.Strings(out.Repos)
	sort.Strings(out.Branches)
	return out
}
