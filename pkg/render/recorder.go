package render

import (
	"image/color"

	"gonum.org/v1/gonum/spatial/r2"
)

// OpKind names a recorded draw call.
type OpKind int

const (
	OpClear OpKind = iota
	OpTransform
	OpReset
	OpFillCircle
	OpStrokeCircle
	OpLine
	OpText
)

// Op is one recorded draw call. Points are as passed, in world or screen
// space depending on the transform in effect.
type Op struct {
	Kind   OpKind
	A, B   r2.Vec
	R      float64
	Fill   Fill
	Stroke Stroke
	Text   string
	Style  TextStyle
	Zoom   float64
	World  bool
}

// Recorder is a Surface that keeps every call for inspection.
type Recorder struct {
	W, H  float64
	Ops   []Op
	world bool
}

// NewRecorder returns an empty w x h recorder.
func NewRecorder(w, h float64) *Recorder { return &Recorder{W: w, H: h} }

func (r *Recorder) Size() (float64, float64) { return r.W, r.H }

func (r *Recorder) Clear(bg color.NRGBA) {
	r.Ops = append(r.Ops, Op{Kind: OpClear, Fill: Solid(bg)})
}

func (r *Recorder) SetTransform(pan r2.Vec, zoom float64) {
	r.world = true
	r.Ops = append(r.Ops, Op{Kind: OpTransform, A: pan, Zoom: zoom})
}

func (r *Recorder) ResetTransform() {
	r.world = false
	r.Ops = append(r.Ops, Op{Kind: OpReset})
}

func (r *Recorder) FillCircle(c r2.Vec, rad float64, f Fill) {
	r.Ops = append(r.Ops, Op{Kind: OpFillCircle, A: c, R: rad, Fill: f, World: r.world})
}

func (r *Recorder) StrokeCircle(c r2.Vec, rad float64, s Stroke) {
	r.Ops = append(r.Ops, Op{Kind: OpStrokeCircle, A: c, R: rad, Stroke: s, World: r.world})
}

func (r *Recorder) Line(a, b r2.Vec, s Stroke) {
	r.Ops = append(r.Ops, Op{Kind: OpLine, A: a, B: b, Stroke: s, World: r.world})
}

func (r *Recorder) Text(p r2.Vec, text string, t TextStyle) {
	r.Ops = append(r.Ops, Op{Kind: OpText, A: p, Text: text, Style: t, World: r.world})
}

// Count returns the number of ops of kind k.
func (r *Recorder) Count(k OpKind) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == k {
			n++
		}
	}
	return n
}

// Filter returns the ops of kind k in call order.
func (r *Recorder) Filter(k OpKind) []Op {
	var out []Op
	for _, op := range r.Ops {
		if op.Kind == k {
			out = append(out, op)
		}
	}
	return out
}

// Texts returns every drawn string in call order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, op := range r.Filter(OpText) {
		out = append(out, op.Text)
	}
	return out
}

// Reset drops all recorded ops.
func (r *Recorder) Reset() { r.Ops = r.Ops[:0] }
