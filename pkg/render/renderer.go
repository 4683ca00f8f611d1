package render

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/vanderheijden86/recall/pkg/camera"
	"github.com/vanderheijden86/recall/pkg/metrics"
	"github.com/vanderheijden86/recall/pkg/scene"
)

// Options tunes the visual encoding.
type Options struct {
	Theme Theme

	GridSpacing float64 // world units between grid dots
	MaxGridDots int     // spacing doubles until the visible grid fits

	EdgeWidthPerWeight float64
	MaxEdgeWidth       float64
	ToolEdgeScale      float64 // width factor for repo-tool edges
	Dash               []float64

	ParticleRadius float64

	WarnRatio   float64 // failure ratio above which a node turns Warning
	PulseRate   float64 // radians per frame
	PulseAmp    float64
	GlowOffset  float64
	DimAlpha    float64 // alpha of nodes outside the hovered neighbourhood
	CountRadius float64 // repo nodes larger than this show their command count
	LabelOffset float64

	HideHUD bool
}

// DefaultOptions returns the viewer's standard look.
func DefaultOptions() Options {
	return Options{
		Theme:              DarkTheme(),
		GridSpacing:        40,
		MaxGridDots:        6000,
		EdgeWidthPerWeight: 1.5,
		MaxEdgeWidth:       6,
		ToolEdgeScale:      0.5,
		Dash:               []float64{5, 5},
		ParticleRadius:     1.8,
		WarnRatio:          0.3,
		PulseRate:          0.06,
		PulseAmp:           3,
		GlowOffset:         6,
		DimAlpha:           0.22,
		CountRadius:        18,
		LabelOffset:        16,
	}
}

// HUD is the status overlay drawn in screen space.
type HUD struct {
	Status    string
	Settled   bool
	FrameTime time.Duration
	Hint      string
}

// FrameState is everything one frame reads.
type FrameState struct {
	Scene    *scene.Scene
	Camera   *camera.Camera
	Hovered  int
	Selected int
	HUD      HUD
}

// Renderer draws frames and owns the frame counter used by the pulse.
type Renderer struct {
	opts  Options
	frame uint64
}

// New creates a Renderer. Zero-valued numeric options take defaults.
func New(opts Options) *Renderer {
	d := DefaultOptions()
	if len(opts.Theme.RepoPalette) == 0 {
		opts.Theme = d.Theme
	}
	if opts.GridSpacing <= 0 {
		opts.GridSpacing = d.GridSpacing
	}
	if opts.MaxGridDots <= 0 {
		opts.MaxGridDots = d.MaxGridDots
	}
	if opts.EdgeWidthPerWeight <= 0 {
		opts.EdgeWidthPerWeight = d.EdgeWidthPerWeight
	}
	if opts.MaxEdgeWidth <= 0 {
		opts.MaxEdgeWidth = d.MaxEdgeWidth
	}
	if opts.ToolEdgeScale <= 0 {
		opts.ToolEdgeScale = d.ToolEdgeScale
	}
	if opts.Dash == nil {
		opts.Dash = d.Dash
	}
	if opts.ParticleRadius <= 0 {
		opts.ParticleRadius = d.ParticleRadius
	}
	if opts.WarnRatio <= 0 {
		opts.WarnRatio = d.WarnRatio
	}
	if opts.PulseRate <= 0 {
		opts.PulseRate = d.PulseRate
	}
	if opts.PulseAmp <= 0 {
		opts.PulseAmp = d.PulseAmp
	}
	if opts.GlowOffset <= 0 {
		opts.GlowOffset = d.GlowOffset
	}
	if opts.DimAlpha <= 0 {
		opts.DimAlpha = d.DimAlpha
	}
	if opts.CountRadius <= 0 {
		opts.CountRadius = d.CountRadius
	}
	if opts.LabelOffset <= 0 {
		opts.LabelOffset = d.LabelOffset
	}
	return &Renderer{opts: opts}
}

// Frames returns how many frames have been drawn. It never resets.
func (r *Renderer) Frames() uint64 { return r.frame }

// Options returns the active options.
func (r *Renderer) Options() Options { return r.opts }

// Frame draws one complete frame. It advances particles but never moves
// nodes.
func (r *Renderer) Frame(s Surface, st FrameState) {
	defer metrics.Timer(metrics.RenderFrame)()
	defer func() { r.frame++ }()

	t := r.opts.Theme
	s.ResetTransform()
	s.Clear(t.Background)

	sc, cam := st.Scene, st.Camera
	if cam == nil {
		w, h := s.Size()
		cam = camera.New(w, h)
	}

	s.SetTransform(cam.Pan, cam.Zoom)
	r.drawGrid(s, cam)
	if sc.Len() > 0 {
		r.drawEdges(s, sc, st.Hovered, st.Selected)
		r.drawParticles(s, sc, st.Hovered)
		r.drawNodes(s, sc, st.Hovered, st.Selected)
	}
	s.ResetTransform()

	if !r.opts.HideHUD {
		r.drawHUD(s, sc, st.HUD)
	}
}

func (r *Renderer) drawGrid(s Surface, cam *camera.Camera) {
	lo, hi := cam.VisibleRect()
	spacing := r.opts.GridSpacing
	for {
		cols := (hi.X - lo.X) / spacing
		rows := (hi.Y - lo.Y) / spacing
		if cols*rows <= float64(r.opts.MaxGridDots) {
			break
		}
		spacing *= 2
	}
	dot := Solid(r.opts.Theme.Grid)
	radius := 1 / cam.Zoom
	for x := math.Floor(lo.X/spacing) * spacing; x <= hi.X; x += spacing {
		for y := math.Floor(lo.Y/spacing) * spacing; y <= hi.Y; y += spacing {
			s.FillCircle(r2.Vec{X: x, Y: y}, radius, dot)
		}
	}
}

func (r *Renderer) nodeColor(n *scene.Node) colorPair {
	base := r.opts.Theme.NodeColor(n.Kind == scene.KindTool, n.ColorIndex)
	if n.FailureRatio() > r.opts.WarnRatio {
		base = r.opts.Theme.Warning
	}
	return colorPair{base: base, light: lighten(base, 0.45)}
}

// EdgeWidth returns the stroke width for an edge before highlighting.
func (r *Renderer) EdgeWidth(e scene.Edge) float64 {
	w := math.Min(float64(e.Weight)*r.opts.EdgeWidthPerWeight, r.opts.MaxEdgeWidth)
	if e.Kind == scene.RepoTool {
		w *= r.opts.ToolEdgeScale
	}
	return math.Max(w, 0.5)
}

func (r *Renderer) drawEdges(s Surface, sc *scene.Scene, hovered, selected int) {
	for _, e := range sc.Edges {
		a, b := &sc.Nodes[e.Source], &sc.Nodes[e.Target]
		ca, cb := r.nodeColor(a).base, r.nodeColor(b).base

		alpha := 0.45
		var dash []float64
		if e.Kind == scene.RepoTool {
			alpha = 0.25
			dash = r.opts.Dash
		}
		width := r.EdgeWidth(e)
		if e.Touches(hovered) || e.Touches(selected) {
			alpha = 0.9
			width += 1.5
		}
		s.Line(a.Pos, b.Pos, Stroke{
			From:  withAlpha(ca, alpha),
			To:    withAlpha(cb, alpha),
			Width: width,
			Dash:  dash,
		})
	}
}

func (r *Renderer) drawParticles(s Surface, sc *scene.Scene, hovered int) {
	for i := range sc.Particles {
		p := &sc.Particles[i]
		p.Advance()
		e := sc.Edges[p.Edge]
		a, b := sc.Nodes[e.Source].Pos, sc.Nodes[e.Target].Pos
		pos := r2.Add(a, r2.Scale(p.T, r2.Sub(b, a)))

		c := withAlpha(r.nodeColor(&sc.Nodes[e.Source]).light, 0.55)
		if e.Touches(hovered) {
			c = r.opts.Theme.Particle
		}
		s.FillCircle(pos, r.opts.ParticleRadius, Solid(c))
	}
}

// Pulse returns the glow ring radius for n on the current frame.
func (r *Renderer) Pulse(n *scene.Node) float64 {
	return n.Radius + r.opts.GlowOffset + math.Sin(float64(r.frame)*r.opts.PulseRate+n.Phase)*r.opts.PulseAmp
}

func (r *Renderer) drawNodes(s Surface, sc *scene.Scene, hovered, selected int) {
	t := r.opts.Theme
	for _, i := range sc.DrawOrder(hovered, selected) {
		n := &sc.Nodes[i]
		cp := r.nodeColor(n)
		alpha := 1.0
		if sc.Valid(hovered) && !sc.Connected(hovered, i) {
			alpha = r.opts.DimAlpha
		}

		if i == hovered || i == selected {
			s.StrokeCircle(n.Pos, r.Pulse(n), Stroke{From: withAlpha(cp.base, 0.45), Width: 2})
		}
		s.FillCircle(n.Pos, n.Radius, Fill{
			Inner: withAlpha(cp.light, alpha),
			Outer: withAlpha(cp.base, alpha),
		})

		size := math.Max(11, math.Min(14, n.Radius*0.45))
		s.Text(r2.Vec{X: n.Pos.X, Y: n.Pos.Y + n.Radius + r.opts.LabelOffset}, n.Label, TextStyle{
			Color:  scaleAlpha(t.Text, alpha),
			Size:   size,
			Anchor: AnchorCenter,
			Bold:   i == hovered || i == selected,
		})
		if n.Kind == scene.KindRepo && n.Radius > r.opts.CountRadius {
			s.Text(n.Pos, strconv.Itoa(n.Commands), TextStyle{
				Color:  scaleAlpha(t.CountText, alpha),
				Size:   math.Floor(n.Radius * 0.5),
				Anchor: AnchorCenter,
				Bold:   true,
			})
		}
	}
}

// Summary formats the "N repos · M tools · K connections" line.
func Summary(sc *scene.Scene) string {
	repos, tools := sc.Counts()
	edges := 0
	if sc != nil {
		edges = len(sc.Edges)
	}
	return fmt.Sprintf("%d repos · %d tools · %d connections", repos, tools, edges)
}

func (r *Renderer) drawHUD(s Surface, sc *scene.Scene, h HUD) {
	t := r.opts.Theme
	w, hgt := s.Size()
	style := TextStyle{Color: t.Muted, Size: 12, Anchor: AnchorLeft}

	if sc.Len() == 0 {
		msg := h.Status
		if msg == "" {
			msg = "No graph data"
		}
		s.Text(r2.Vec{X: w / 2, Y: hgt / 2}, msg, TextStyle{Color: t.Muted, Size: 14, Anchor: AnchorCenter})
		return
	}

	lines := []string{Summary(sc)}
	state := "simulating"
	if h.Settled {
		state = "settled"
	}
	if h.FrameTime > 0 {
		state = fmt.Sprintf("%s · %.1fms/frame", state, float64(h.FrameTime.Microseconds())/1000)
	}
	lines = append(lines, state)
	if h.Status != "" {
		lines = append(lines, h.Status)
	}
	for i, line := range lines {
		s.Text(r2.Vec{X: 12, Y: 20 + float64(i)*16}, line, style)
	}
	if h.Hint != "" {
		s.Text(r2.Vec{X: 12, Y: hgt - 12}, h.Hint, style)
	}
}

type colorPair struct {
	base, light color.NRGBA
}
