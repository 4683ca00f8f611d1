// Package model defines the wire types exchanged between the recall backend
// and the graph viewer: the graph payload and the session/command records
// used for drill-down lookups.
package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ErrEmptyPayload is returned when a payload body carries no JSON object.
var ErrEmptyPayload = errors.New("empty graph payload")

// NodeType is the payload spelling of a node kind.
type NodeType string

const (
	NodeRepo NodeType = "repo"
	NodeTool NodeType = "tool"
)

// EdgeType is the payload spelling of an edge kind.
type EdgeType string

const (
	EdgeRepoRepo EdgeType = "repo-repo"
	EdgeRepoTool EdgeType = "repo-tool"
)

// ToolIDPrefix prefixes tool node ids so a tool never collides with a
// repository of the same name.
const ToolIDPrefix = "tool:"

// GraphNode is one repository or tool as served by /api/graph.
type GraphNode struct {
	ID         string     `json:"id"`
	Label      string     `json:"label"`
	Type       NodeType   `json:"type"`
	Commands   int        `json:"commands"`
	Sessions   int        `json:"sessions"`
	Failures   int        `json:"failures"`
	Branches   []string   `json:"branches,omitempty"`
	Repos      []string   `json:"repos,omitempty"`
	LastActive *Timestamp `json:"last_active,omitempty"`
}

// GraphEdge connects two nodes by id. Repo-repo edges carry
// shared_sessions, repo-tool edges carry weight; older payloads omit type.
type GraphEdge struct {
	Source         string   `json:"source"`
	Target         string   `json:"target"`
	Weight         int      `json:"weight,omitempty"`
	SharedSessions int      `json:"shared_sessions,omitempty"`
	Type           EdgeType `json:"type,omitempty"`
}

// EffectiveWeight returns weight, falling back to shared_sessions and then 1.
func (e GraphEdge) EffectiveWeight() int {
	switch {
	case e.Weight > 0:
		return e.Weight
	case e.SharedSessions > 0:
		return e.SharedSessions
	default:
		return 1
	}
}

// GraphPayload is the full /api/graph response.
type GraphPayload struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// Counts returns the number of repo and tool nodes.
func (p *GraphPayload) Counts() (repos, tools int) {
	if p == nil {
		return 0, 0
	}
	for _, n := range p.Nodes {
		if n.Type == NodeTool {
			tools++
		} else {
			repos++
		}
	}
	return repos, tools
}

// DecodeGraphPayload reads a graph payload from r.
func DecodeGraphPayload(r io.Reader) (*GraphPayload, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading graph payload: %w", err)
	}
	return ParseGraphPayload(data)
}

// ParseGraphPayload parses a graph payload from raw JSON.
func ParseGraphPayload(data []byte) (*GraphPayload, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyPayload
	}
	var p GraphPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing graph payload: %w", err)
	}
	return &p, nil
}

// EncodeGraphPayload writes p as JSON.
func EncodeGraphPayload(w io.Writer, p *GraphPayload) error {
	enc := json.NewEncoder(w)
	return enc.Encode(p)
}

// Timestamp is an instant that travels as epoch milliseconds. It also
// accepts RFC3339 strings on input. Zero milliseconds decode to the zero time.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

// FromMillis converts epoch milliseconds to a Timestamp.
func FromMillis(ms int64) *Timestamp {
	if ms == 0 {
		return &Timestamp{}
	}
	return &Timestamp{Time: time.UnixMilli(ms).UTC()}
}

// Millis returns the epoch milliseconds, or 0 for the zero time.
func (t Timestamp) Millis() int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(t.Millis(), 10)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		t.Time = time.Time{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if str == "" {
			t.Time = time.Time{}
			return nil
		}
		parsed, err := time.Parse(time.RFC3339, str)
		if err != nil {
			return fmt.Errorf("timestamp %q: %w", str, err)
		}
		t.Time = parsed
		return nil
	}
	ms, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("timestamp %s: %w", s, err)
	}
	*t = *FromMillis(int64(ms))
	return nil
}
