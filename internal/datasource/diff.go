package datasource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/recall/pkg/model"
)

// PayloadDiff summarises how a rebuilt graph differs from the previous one.
type PayloadDiff struct {
	// Added contains node ids present only in the new payload
	Added []string
	// Removed contains node ids present only in the old payload
	Removed []string
	// Changed contains nodes whose command counts moved
	Changed []CountChange
	// EdgesBefore and EdgesAfter count edges in each payload
	EdgesBefore int
	EdgesAfter  int
}

// CountChange is a command-count change for one node.
type CountChange struct {
	ID     string `json:"id"`
	Before int    `json:"before"`
	After  int    `json:"after"`
}

// Empty reports whether nothing changed.
func (d PayloadDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0 && d.EdgesBefore == d.EdgesAfter
}

// Summary returns a one-line description, e.g. "+2 nodes, 5 updated".
func (d PayloadDiff) Summary() string {
	if d.Empty() {
		return "no changes"
	}
	var parts []string
	if n := len(d.Added); n > 0 {
		parts = append(parts, fmt.Sprintf("+%d nodes", n))
	}
	if n := len(d.Removed); n > 0 {
		parts = append(parts, fmt.Sprintf("-%d nodes", n))
	}
	if n := len(d.Changed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d updated", n))
	}
	if d.EdgesBefore != d.EdgesAfter {
		parts = append(parts, fmt.Sprintf("edges %d→%d", d.EdgesBefore, d.EdgesAfter))
	}
	return strings.Join(parts, ", ")
}

// DiffPayloads compares two payloads by node id. Either may be nil.
func DiffPayloads(before, after *model.GraphPayload) PayloadDiff {
	var d PayloadDiff
	old := map[string]int{}
	if before != nil {
		for _, n := range before.Nodes {
			old[n.ID] = n.Commands
		}
		d.EdgesBefore = len(before.Edges)
	}
	seen := map[string]bool{}
	if after != nil {
		for _, n := range after.Nodes {
			seen[n.ID] = true
			prev, ok := old[n.ID]
			switch {
			case !ok:
				d.Added = append(d.Added, n.ID)
			case prev != n.Commands:
				d.Changed = append(d.Changed, CountChange{ID: n.ID, Before: prev, After: n.Commands})
			}
		}
		d.EdgesAfter = len(after.Edges)
	}
	for id := range old {
		if !seen[id] {
			d.Removed = append(d.Removed, id)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Slice(d.Changed, func(i, j int) bool { return d.Changed[i].ID < d.Changed[j].ID })
	return d
}
