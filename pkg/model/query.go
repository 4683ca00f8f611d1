package model

import (
	"net/url"
	"strconv"
)

// DefaultCommandLimit bounds /api/commands when no limit is given.
const DefaultCommandLimit = 100

// CommandQuery filters a commands lookup. At most one of Repo, Tool and
// SessionID is normally set; an empty query lists the latest commands.
type CommandQuery struct {
	Repo      string
	Tool      string
	SessionID string
	Limit     int
}

// EffectiveLimit returns Limit, or DefaultCommandLimit when unset.
func (q CommandQuery) EffectiveLimit() int {
	if q.Limit <= 0 {
		return DefaultCommandLimit
	}
	return q.Limit
}

// Values encodes the query as URL parameters.
func (q CommandQuery) Values() url.Values {
	v := url.Values{}
	if q.Repo != "" {
		v.Set("repo", q.Repo)
	}
	if q.Tool != "" {
		v.Set("tool", q.Tool)
	}
	if q.SessionID != "" {
		v.Set("session_id", q.SessionID)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// ParseCommandQuery reads a query from URL parameters. A malformed limit
// falls back to the default.
func ParseCommandQuery(v url.Values) CommandQuery {
	q := CommandQuery{
		Repo:      v.Get("repo"),
		Tool:      v.Get("tool"),
		SessionID: v.Get("session_id"),
	}
	if n, err := strconv.Atoi(v.Get("limit")); err == nil && n > 0 {
		q.Limit = n
	}
	return q
}

// CommandsResponse is the /api/commands body.
type CommandsResponse struct {
	Commands []Command `json:"commands"`
}
