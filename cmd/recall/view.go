package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/recall/internal/datasource"
	"github.com/vanderheijden86/recall/pkg/debug"
	"github.com/vanderheijden86/recall/pkg/render"
	"github.com/vanderheijden86/recall/pkg/ui"
	"github.com/vanderheijden86/recall/pkg/watcher"
)

const envDebugFile = "RECALL_DEBUG_FILE"

func viewCmd(a *app) *cobra.Command {
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open the interactive graph in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path := os.Getenv(envDebugFile); path != "" {
				f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("opening debug log: %w", err)
				}
				defer f.Close()
				debug.SetOutput(f)
			}

			fetcher, lookup := a.source()
			var w *watcher.Watcher
			if a.cfg.Data.Server == "" {
				path, err := datasource.Resolve(a.cfg.Data.DB)
				if err != nil {
					if errors.Is(err, datasource.ErrNoDatabase) {
						return fmt.Errorf("%w (run `recall demo` to create sample data)", err)
					}
					return err
				}
				if !noWatch {
					w, err = watcher.NewWatcher(path, watcher.WithSidecars(watcher.SQLiteSidecars...))
					if err != nil {
						return fmt.Errorf("watching %s: %w", path, err)
					}
					if err := w.Start(); err != nil {
						warnf("live reload disabled: %v", err)
						w = nil
					} else {
						defer w.Stop()
					}
				}
			}

			ro := render.DefaultOptions()
			ro.Theme = render.ThemeByName(a.cfg.View.Theme)
			ro.HideHUD = a.cfg.View.HideHUD

			m := ui.NewModel(ui.Options{
				Fetcher:      fetcher,
				Lookup:       lookup,
				Watcher:      w,
				Physics:      a.cfg.Physics,
				Render:       ro,
				FPS:          a.cfg.View.FPS,
				HitPadding:   a.cfg.View.HitPadding,
				MinZoom:      a.cfg.View.MinZoom,
				MaxZoom:      a.cfg.View.MaxZoom,
				CommandLimit: a.cfg.Data.CommandLimit,
				GlamourStyle: a.cfg.View.Theme,
			})
			p := tea.NewProgram(m,
				tea.WithAltScreen(),
				tea.WithMouseAllMotion(),
				tea.WithReportFocus(),
				tea.WithContext(cmd.Context()),
			)
			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("running viewer: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload when recall.db changes")
	return cmd
}
