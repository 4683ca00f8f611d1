package testutil

import (
	"testing"

	"github.com/vanderheijden86/recall/pkg/model"
)

func TestChain(t *testing.T) {
	gen := NewDefault()

	tests := []struct {
		name      string
		size      int
		wantNodes int
		wantEdges int
	}{
		{"chain_1", 1, 1, 0},
		{"chain_2", 2, 2, 1},
		{"chain_5", 5, 5, 4},
		{"chain_10", 10, 10, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := gen.Chain(tt.size)

			AssertNodeCount(t, p, tt.wantNodes)
			if len(p.Edges) != tt.wantEdges {
				t.Errorf("Chain(%d) edges = %d, want %d", tt.size, len(p.Edges), tt.wantEdges)
			}
			AssertNoDuplicateIDs(t, p)
			AssertEdgesResolve(t, p)
			for _, e := range p.Edges {
				if e.Type != model.EdgeRepoRepo {
					t.Errorf("expected repo-repo edge, got %q", e.Type)
				}
				if e.EffectiveWeight() < 1 {
					t.Errorf("expected positive weight, got %d", e.EffectiveWeight())
				}
			}
		})
	}
}

func TestStar(t *testing.T) {
	p := NewDefault().Star(6)

	AssertNodeCount(t, p, 7)
	AssertEdgesResolve(t, p)
	for _, e := range p.Edges {
		if e.Source != "repo0" {
			t.Errorf("expected every edge to start at the hub, got %s", e.Source)
		}
	}
	repos, tools := p.Counts()
	if repos != 1 || tools != 6 {
		t.Errorf("expected 1 repo and 6 tools, got %d and %d", repos, tools)
	}
}

func TestBipartite_Deterministic(t *testing.T) {
	a := New(DefaultConfig()).Bipartite(8, 5, 0.4)
	b := New(DefaultConfig()).Bipartite(8, 5, 0.4)

	if len(a.Nodes) != len(b.Nodes) || len(a.Edges) != len(b.Edges) {
		t.Fatalf("same seed produced different shapes: %d/%d vs %d/%d",
			len(a.Nodes), len(a.Edges), len(b.Nodes), len(b.Edges))
	}
	for i := range a.Edges {
		if a.Edges[i] != b.Edges[i] {
			t.Errorf("edge %d differs: %+v vs %+v", i, a.Edges[i], b.Edges[i])
		}
	}
	AssertEdgesResolve(t, a)
	AssertNoDuplicateIDs(t, a)
}

func TestHistory(t *testing.T) {
	gen := NewDefault()
	fx := gen.History(3, 10, []string{"alpha", "beta"}, []string{"git", "go"})

	if len(fx) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(fx))
	}
	failed := 0
	for _, s := range fx {
		if len(s.Commands) != 10 {
			t.Errorf("expected 10 commands in %s, got %d", s.Session.ID, len(s.Commands))
		}
		for _, c := range s.Commands {
			if c.SessionID != s.Session.ID {
				t.Errorf("command %d attached to %s, want %s", c.ID, c.SessionID, s.Session.ID)
			}
			if c.Failed() {
				failed++
			}
		}
	}
	if failed != 6 {
		t.Errorf("expected every fifth command to fail (6), got %d", failed)
	}
}

func TestPair(t *testing.T) {
	p := Pair()
	AssertNodeCount(t, p, 2)
	AssertEdgesResolve(t, p)
	if p.Edges[0].Weight != 3 {
		t.Errorf("expected weight 3, got %d", p.Edges[0].Weight)
	}
}
