// Package export renders the graph headlessly to image files.
package export

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vanderheijden86/recall/pkg/debug"
	"github.com/vanderheijden86/recall/pkg/engine"
	"github.com/vanderheijden86/recall/pkg/physics"
	"github.com/vanderheijden86/recall/pkg/render"
)

// ErrUnsupportedFormat is returned for formats other than png and svg.
var ErrUnsupportedFormat = errors.New("unsupported snapshot format")

const (
	DefaultWidth     = 1600
	DefaultHeight    = 1000
	DefaultMaxFrames = 3000
)

// SnapshotOptions controls SaveGraphSnapshot.
type SnapshotOptions struct {
	Path   string // output file path (required)
	Format string // "png" or "svg"; inferred from Path when empty
	Width  int
	Height int

	// MaxFrames caps the settle loop; the last frame is written even when
	// physics has not come to rest.
	MaxFrames int

	Theme   string // dark or light; empty is light
	HideHUD bool

	Physics physics.Params
	Fetcher engine.Fetcher
	Rand    *rand.Rand
}

// SnapshotResult reports what SaveGraphSnapshot wrote.
type SnapshotResult struct {
	Path    string
	Format  string
	Frames  int
	Settled bool
	Summary string
	Nodes   int
	Edges   int
}

// ResolveFormat returns the output format from the explicit value or the
// path's extension.
func (o SnapshotOptions) ResolveFormat() (string, error) {
	format := strings.ToLower(strings.TrimSpace(o.Format))
	if format == "" {
		ext := strings.ToLower(filepath.Ext(o.Path))
		switch ext {
		case ".svg":
			format = "svg"
		case ".png", "":
			format = "png"
		default:
			return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
		}
	}
	if format != "png" && format != "svg" {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return format, nil
}

func (o SnapshotOptions) withDefaults() SnapshotOptions {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.MaxFrames <= 0 {
		o.MaxFrames = DefaultMaxFrames
	}
	if o.Physics == (physics.Params{}) {
		o.Physics = physics.DefaultParams()
	}
	if o.Theme == "" {
		o.Theme = "light"
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}

func (o SnapshotOptions) renderOptions() render.Options {
	ro := render.DefaultOptions()
	ro.Theme = render.ThemeByName(o.Theme)
	ro.HideHUD = o.HideHUD
	return ro
}

// SaveGraphSnapshot loads the graph, runs the simulation until it settles
// (or MaxFrames), and writes a single frame to opts.Path.
func SaveGraphSnapshot(ctx context.Context, opts SnapshotOptions) (*SnapshotResult, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("output path is required")
	}
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("no graph source")
	}
	format, err := opts.ResolveFormat()
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	eng := engine.New(engine.Options{
		Width:   float64(opts.Width),
		Height:  float64(opts.Height),
		Physics: opts.Physics,
		Render:  opts.renderOptions(),
		Rand:    opts.Rand,
	})
	if err := eng.Load(ctx, opts.Fetcher); err != nil {
		return nil, fmt.Errorf("loading graph: %w", err)
	}
	if err := eng.LoadErr(); err != nil {
		return nil, fmt.Errorf("loading graph: %w", err)
	}
	eng.Start()
	defer eng.Teardown()

	// Settle against a recorder that is emptied each frame.
	rec := render.NewRecorder(float64(opts.Width), float64(opts.Height))
	sched := engine.NewScheduler(eng, rec, engine.DefaultFPS)
	sched.OnFrame = func(uint64) { rec.Ops = rec.Ops[:0] }
	frames := sched.RunUntilSettled(opts.MaxFrames)
	debug.Log("snapshot: %d frames, settled=%v", frames, eng.Settled())

	if dir := filepath.Dir(opts.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}

	switch format {
	case "svg":
		err = renderSVG(opts.Path, eng, opts.Width, opts.Height)
	default:
		err = renderPNG(opts.Path, eng, opts.Width, opts.Height)
	}
	if err != nil {
		return nil, err
	}

	sc := eng.Scene()
	return &SnapshotResult{
		Path:    opts.Path,
		Format:  format,
		Frames:  frames,
		Settled: eng.Settled(),
		Summary: eng.Summary(),
		Nodes:   sc.Len(),
		Edges:   len(sc.Edges),
	}, nil
}

func renderPNG(path string, eng *engine.Engine, w, h int) error {
	s := render.NewRasterSurface(w, h)
	eng.Render(s)
	if err := s.SavePNG(path); err != nil {
		return fmt.Errorf("writing png: %w", err)
	}
	return nil
}

func renderSVG(path string, eng *engine.Engine, w, h int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating svg: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	s := render.NewVectorSurface(f, w, h)
	eng.Render(s)
	s.Close()
	return nil
}
