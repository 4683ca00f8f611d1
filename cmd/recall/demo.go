package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/recall/internal/datasource"
	"github.com/vanderheijden86/recall/pkg/config"
)

func demoDBPath() string {
	return filepath.Join(config.StateDir(), "demo.db")
}

func demoCmd(a *app) *cobra.Command {
	var (
		out   string
		force bool
		opts  = datasource.DefaultSeedOptions()
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Create a recall.db filled with synthetic sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				out = demoDBPath()
			}
			if _, err := os.Stat(out); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to add more sessions)", out)
			}

			w, err := datasource.Create(out)
			if err != nil {
				return err
			}
			history, err := datasource.Seed(cmd.Context(), w, opts)
			if cerr := w.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("seeding %s: %w", out, err)
			}

			commands := 0
			for _, h := range history {
				commands += len(h.Commands)
			}
			okf("seeded %d sessions, %d commands", len(history), commands)
			field("database", out)
			fmt.Println()
			fmt.Println(Subtle.Sprintf("  open it with: recall view --db %s", out))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&out, "out", "o", "", "database to create (default $XDG_STATE_HOME/recall/demo.db)")
	f.BoolVar(&force, "force", false, "append to an existing database")
	f.IntVar(&opts.Sessions, "sessions", opts.Sessions, "number of sessions")
	f.IntVar(&opts.CommandsPerSession, "commands", opts.CommandsPerSession, "commands per session")
	f.StringSliceVar(&opts.Repos, "repos", opts.Repos, "repository names")
	f.Int64Var(&opts.Seed, "seed", opts.Seed, "random seed")
	return cmd
}
