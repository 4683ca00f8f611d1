package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/vanderheijden86/recall/pkg/model"
)

// AssertNodeCount verifies the expected number of payload nodes.
func AssertNodeCount(t *testing.T, p *model.GraphPayload, expected int) {
	t.Helper()
	if len(p.Nodes) != expected {
		t.Errorf("expected %d nodes, got %d", expected, len(p.Nodes))
	}
}

// AssertNoDuplicateIDs verifies all payload node ids are unique.
func AssertNoDuplicateIDs(t *testing.T, p *model.GraphPayload) {
	t.Helper()
	seen := make(map[string]bool, len(p.Nodes))
	for _, n := range p.Nodes {
		if seen[n.ID] {
			t.Errorf("duplicate node ID: %s", n.ID)
		}
		seen[n.ID] = true
	}
}

// AssertEdgesResolve verifies every payload edge names existing nodes.
func AssertEdgesResolve(t *testing.T, p *model.GraphPayload) {
	t.Helper()
	ids := make(map[string]bool, len(p.Nodes))
	for _, n := range p.Nodes {
		ids[n.ID] = true
	}
	for _, e := range p.Edges {
		if !ids[e.Source] || !ids[e.Target] {
			t.Errorf("edge %s -> %s references an unknown node", e.Source, e.Target)
		}
	}
}

// AssertNear fails when got is further than tol from want.
func AssertNear(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > tol {
		t.Errorf("%s: expected %.4f ± %.4f, got %.4f", name, want, tol, got)
	}
}

// AssertFileNotEmpty verifies a file exists and has content.
func AssertFileNotEmpty(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("output not created: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("output file %s is empty", filepath.Base(path))
	}
}
