// Package scene holds the graph data model the viewer simulates and draws:
// an arena of nodes, the edges between them and the particles that flow
// along those edges. A Scene is rebuilt wholesale on every load; node and
// edge slices never grow or shrink after Build, so indices stay valid for
// the scene's lifetime.
package scene

import (
	"math"
	"time"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/spatial/r2"
)

// NoNode marks an absent node reference.
const NoNode = -1

// Kind distinguishes repositories from tools.
type Kind int

const (
	KindRepo Kind = iota
	KindTool
)

func (k Kind) String() string {
	if k == KindTool {
		return "tool"
	}
	return "repo"
}

// EdgeKind fixes an edge's spring rest length and visual treatment.
type EdgeKind int

const (
	RepoRepo EdgeKind = iota
	RepoTool
)

func (k EdgeKind) String() string {
	if k == RepoTool {
		return "repo-tool"
	}
	return "repo-repo"
}

// Node is one simulated graph node. Pos is written only by the physics
// engine and by drag handling.
type Node struct {
	ID         string
	Label      string
	Kind       Kind
	Commands   int
	Sessions   int
	Failures   int
	Branches   []string
	Repos      []string
	LastActive time.Time

	Pos        r2.Vec
	Vel        r2.Vec
	Radius     float64
	ColorIndex int
	Phase      float64
}

// FailureRatio is failures over commands, with commands floored at 1.
func (n *Node) FailureRatio() float64 {
	return float64(n.Failures) / float64(max(1, n.Commands))
}

// Edge connects two distinct node indices.
type Edge struct {
	Source int
	Target int
	Weight int
	Kind   EdgeKind
}

// Touches reports whether node i is one of the edge's endpoints.
func (e Edge) Touches(i int) bool {
	return i != NoNode && (e.Source == i || e.Target == i)
}

// Particle travels along an edge; T is the fraction of the way from
// source to target and wraps modulo 1.
type Particle struct {
	Edge  int
	T     float64
	Speed float64
}

// Advance moves the particle one frame along its edge.
func (p *Particle) Advance() {
	p.T += p.Speed
	if p.T >= 1 {
		p.T -= math.Floor(p.T)
	}
}

// Scene is the arena built from one graph payload.
type Scene struct {
	Nodes     []Node
	Edges     []Edge
	Particles []Particle

	// DroppedEdges counts payload edges discarded during Build.
	DroppedEdges int

	index map[string]int
	adj   []map[int]struct{}
}

// Empty returns a scene with no nodes.
func Empty() *Scene {
	return &Scene{index: map[string]int{}}
}

// Len returns the number of nodes.
func (s *Scene) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Nodes)
}

// Valid reports whether i indexes a node.
func (s *Scene) Valid(i int) bool {
	return s != nil && i >= 0 && i < len(s.Nodes)
}

// Node returns a pointer to node i, or nil when i is out of range.
func (s *Scene) Node(i int) *Node {
	if !s.Valid(i) {
		return nil
	}
	return &s.Nodes[i]
}

// Find returns the index of the node with the given id, or NoNode.
func (s *Scene) Find(id string) int {
	if s == nil {
		return NoNode
	}
	if i, ok := s.index[id]; ok {
		return i
	}
	return NoNode
}

// Connected reports whether a and b share an edge. A node counts as
// connected to itself.
func (s *Scene) Connected(a, b int) bool {
	if !s.Valid(a) || !s.Valid(b) {
		return false
	}
	if a == b {
		return true
	}
	if a >= len(s.adj) {
		return false
	}
	_, ok := s.adj[a][b]
	return ok
}

// Degree returns the number of distinct neighbours of node i.
func (s *Scene) Degree(i int) int {
	if !s.Valid(i) || i >= len(s.adj) {
		return 0
	}
	return len(s.adj[i])
}

// Counts returns the number of repo and tool nodes.
func (s *Scene) Counts() (repos, tools int) {
	if s == nil {
		return 0, 0
	}
	for i := range s.Nodes {
		if s.Nodes[i].Kind == KindTool {
			tools++
		} else {
			repos++
		}
	}
	return repos, tools
}

// Components returns the number of connected components.
func (s *Scene) Components() int {
	if s.Len() == 0 {
		return 0
	}
	g := simple.NewUndirectedGraph()
	for i := range s.Nodes {
		g.AddNode(simple.Node(int64(i)))
	}
	for _, e := range s.Edges {
		if g.HasEdgeBetween(int64(e.Source), int64(e.Target)) {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(int64(e.Source)), T: simple.Node(int64(e.Target))})
	}
	return len(topo.ConnectedComponents(g))
}

// DrawOrder returns node indices back to front: tools beneath repos, then
// the selected node, then the hovered node on top. Hit testing walks this
// slice in reverse so the visually topmost node wins.
func (s *Scene) DrawOrder(hovered, selected int) []int {
	order := make([]int, 0, s.Len())
	for _, kind := range []Kind{KindTool, KindRepo} {
		for i := range s.Nodes {
			if s.Nodes[i].Kind != kind || i == hovered || i == selected {
				continue
			}
			order = append(order, i)
		}
	}
	if s.Valid(selected) && selected != hovered {
		order = append(order, selected)
	}
	if s.Valid(hovered) {
		order = append(order, hovered)
	}
	return order
}
