package main

import (
	"os"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/recall/internal/datasource"
)

func infoCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Describe the recall database in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, err := datasource.Inspect(ctx, a.cfg.Data.DB)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(src)
			}

			if !src.Valid {
				warnf("%s is not readable: %s", src.Path, src.ValidationError)
				return nil
			}
			okf("%s", src.Path)
			field("modified", src.ModTime.Format("2006-01-02 15:04"))
			field("sessions", strconv.Itoa(src.Sessions))
			field("commands", strconv.Itoa(src.Commands))

			stats, err := a.db().Stats(ctx)
			if err != nil {
				return err
			}
			field("repos", strconv.Itoa(stats.Repos))
			field("failures", strconv.Itoa(stats.Failures))
			if len(stats.RepoNames) > 0 {
				field("", Subtle.Sprint(strings.Join(stats.RepoNames, ", ")))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
