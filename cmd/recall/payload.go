package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/recall/internal/datasource"
	"github.com/vanderheijden86/recall/pkg/model"
)

func payloadCmd(a *app) *cobra.Command {
	var (
		out  string
		diff string
	)
	cmd := &cobra.Command{
		Use:   "payload",
		Short: "Print the graph payload as JSON",
		Long:  "Builds the graph payload the viewer consumes and prints it. With --diff, compares it to a saved payload instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher, _ := a.source()
			p, err := fetcher.FetchGraph(cmd.Context())
			if err != nil {
				return err
			}

			if diff != "" {
				f, err := os.Open(diff)
				if err != nil {
					return err
				}
				defer f.Close()
				before, err := model.DecodeGraphPayload(f)
				if err != nil {
					return fmt.Errorf("reading %s: %w", diff, err)
				}
				d := datasource.DiffPayloads(before, p)
				fmt.Println(d.Summary())
				for _, id := range d.Added {
					fmt.Printf("  %s %s\n", Good.Sprint("+"), id)
				}
				for _, id := range d.Removed {
					fmt.Printf("  %s %s\n", Bad.Sprint("-"), id)
				}
				return nil
			}

			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := model.EncodeGraphPayload(w, p); err != nil {
				return fmt.Errorf("encoding payload: %w", err)
			}
			if out != "" {
				repos, tools := p.Counts()
				okf("wrote %s (%d repos, %d tools, %d edges)", out, repos, tools, len(p.Edges))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to a file instead of stdout")
	cmd.Flags().StringVar(&diff, "diff", "", "compare with a previously saved payload")
	return cmd
}
