package main

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/recall/internal/datasource"
	"github.com/vanderheijden86/recall/pkg/server"
	"github.com/vanderheijden86/recall/pkg/watcher"
)

// DefaultPort is the port `serve` listens on.
const DefaultPort = 3141

func serveCmd(a *app) *cobra.Command {
	var (
		host    string
		port    int
		noWatch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph API over HTTP",
		Long:  "Serves /api/graph, /api/commands, /api/sessions and /api/stats from recall.db. Point `recall view --server` at it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := a.db()
			path, err := datasource.Resolve(db.Path)
			if err != nil {
				return err
			}
			db.Path = path
			srv := server.New(db)

			var workers []func(context.Context) error
			if !noWatch {
				w, err := watcher.NewWatcher(path,
					watcher.WithSidecars(watcher.SQLiteSidecars...),
					watcher.WithOnChange(srv.Invalidate),
				)
				if err != nil {
					return fmt.Errorf("watching %s: %w", path, err)
				}
				workers = append(workers, w.Run)
			}

			addr := net.JoinHostPort(host, strconv.Itoa(port))
			okf("serving %s", Brand.Sprintf("http://%s", addr))
			field("database", path)
			return srv.Serve(cmd.Context(), addr, workers...)
		},
	}
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "interface to listen on")
	cmd.Flags().IntVar(&port, "port", DefaultPort, "port to listen on")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not drop the cache when recall.db changes")
	return cmd
}
