package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vanderheijden86/recall/pkg/export"
	"github.com/vanderheijden86/recall/pkg/hooks"
)

type renderFlags struct {
	out       string
	format    string
	width     int
	height    int
	frames    int
	theme     string
	hideHUD   bool
	seed      int64
	noPrompts bool
	noHooks   bool
}

func renderCmd(a *app) *cobra.Command {
	var rf renderFlags
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Settle the layout headlessly and write a PNG or SVG",
		Long: "Runs the simulation until the layout settles (or the frame limit) and writes one frame.\n" +
			"Without --out on a terminal, an interactive prompt asks for the settings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := rf.options(a, cmd.Flags().Changed)
			if err != nil {
				return err
			}
			opts.Fetcher, _ = a.source()
			opts.Physics = a.cfg.Physics

			format, err := opts.ResolveFormat()
			if err != nil {
				return err
			}
			rc := hooks.RenderContext{SnapshotPath: opts.Path, SnapshotFormat: format, Timestamp: time.Now()}
			cwd, _ := os.Getwd()
			hx, err := hooks.RunHooks(cwd, rc, rf.noHooks)
			if err != nil {
				return err
			}
			if hx != nil {
				hx.WithContext(cmd.Context())
				if err := hx.RunPreRender(); err != nil {
					return err
				}
			}

			start := time.Now()
			res, err := export.SaveGraphSnapshot(cmd.Context(), opts)
			if err != nil {
				return err
			}
			okf("wrote %s", res.Path)
			field("graph", res.Summary)
			state := "settled"
			if !res.Settled {
				state = "frame limit reached"
			}
			field("layout", fmt.Sprintf("%s after %d frames (%s)", state, res.Frames, time.Since(start).Round(time.Millisecond)))

			if hx != nil {
				rc.NodeCount, rc.EdgeCount = res.Nodes, res.Edges
				hx.SetRenderContext(rc)
				err := hx.RunPostRender()
				fmt.Println(Subtle.Sprint(hx.Summary()))
				return err
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&rf.out, "out", "o", "", "output file (.png or .svg)")
	f.StringVar(&rf.format, "format", "", "png or svg (default from extension)")
	f.IntVar(&rf.width, "width", 0, "image width in pixels")
	f.IntVar(&rf.height, "height", 0, "image height in pixels")
	f.IntVar(&rf.frames, "frames", 0, "maximum simulation frames before writing")
	f.StringVar(&rf.theme, "theme", "", "light or dark")
	f.BoolVar(&rf.hideHUD, "hide-hud", false, "omit the status overlay")
	f.Int64Var(&rf.seed, "seed", 0, "random seed for initial positions (0 = clock)")
	f.BoolVar(&rf.noPrompts, "no-prompt", false, "never start the interactive prompt")
	f.BoolVar(&rf.noHooks, "no-hooks", false, "skip pre-render and post-render hooks")
	return cmd
}

// options merges config defaults, the wizard (when needed) and flags.
func (rf renderFlags) options(a *app, changed func(string) bool) (export.SnapshotOptions, error) {
	var opts export.SnapshotOptions
	if rf.out == "" && !rf.noPrompts && term.IsTerminal(int(os.Stdin.Fd())) {
		var err error
		opts, err = export.NewWizard(a.cfg.Export).Run()
		if err != nil {
			return opts, err
		}
	} else {
		ec := a.cfg.Export
		opts = export.SnapshotOptions{
			Path:      rf.out,
			Format:    ec.Format,
			Width:     ec.Width,
			Height:    ec.Height,
			MaxFrames: ec.MaxFrames,
			Theme:     ec.Theme,
		}
		if opts.Path == "" {
			dir := ec.Dir
			if dir == "" {
				dir = "."
			}
			format := ec.Format
			if format == "" {
				format = "png"
			}
			opts.Path = filepath.Join(dir, "recall-graph."+format)
		} else if !changed("format") {
			// An explicit file name decides the format.
			opts.Format = ""
		}
	}

	if changed("format") {
		opts.Format = rf.format
	}
	if changed("width") {
		opts.Width = rf.width
	}
	if changed("height") {
		opts.Height = rf.height
	}
	if changed("frames") {
		opts.MaxFrames = rf.frames
	}
	if changed("theme") {
		opts.Theme = rf.theme
	}
	if changed("hide-hud") {
		opts.HideHUD = rf.hideHUD
	}
	if rf.seed != 0 {
		opts.Rand = rand.New(rand.NewSource(rf.seed))
	}
	return opts, nil
}
