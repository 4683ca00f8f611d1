// Command recall visualises shell history recorded in recall.db as a
// force-directed graph of repositories and the tools used in them.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/recall/pkg/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		Bad.Fprintf(os.Stderr, "recall: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "recall",
		Short: "recall — explore your shell history as a graph",
		Long: Brand.Sprint("recall") + " — repositories and tools from recall.db as a live graph\n" +
			Subtle.Sprint("Hover to highlight, drag to rearrange, double-click to list commands"),
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetVersionTemplate("recall {{ .Version }}\n")

	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "config file (default ~/.config/recall/config.yaml)")
	f.StringVar(&a.envPath, "env-file", "", "env file (default ~/.recall/env)")
	f.StringVar(&a.dbFlag, "db", "", "path to recall.db (default $RECALL_DB or ~/.recall/recall.db)")
	f.StringVar(&a.serverFlag, "server", "", "fetch the graph from a recall server instead of the database")

	root.AddCommand(
		viewCmd(a),
		renderCmd(a),
		payloadCmd(a),
		serveCmd(a),
		demoCmd(a),
		infoCmd(a),
		configCmd(a),
	)
	// Bare `recall` opens the viewer.
	root.RunE = viewCmd(a).RunE
	return root
}
