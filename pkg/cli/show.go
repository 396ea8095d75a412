package cli

import (
	"fmt"
	"log/slog"

	"sunburst/pkg/card"
	"sunburst/pkg/display"

	"github.com/spf13/cobra"
)

func newShowCmd(g *globalOptions) *cobra.Command {
	var format string
	var out string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Fetch the usage document and render it once",
		Long:  "Fetch the usage document, prepare it and render it once, as a tree on stdout or as a Plotly figure file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var sink display.Sink
			switch format {
			case "tree":
				sink = display.NewWriterSink(cmd.OutOrStdout())
			case "plotly":
				if out == "" {
					out = display.DefaultPlotlyPath()
				}
				sink = display.NewPlotly(out)
			default:
				return fmt.Errorf("unknown format %q (want tree or plotly)", format)
			}

			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			c := card.New(card.WithLogger(slog.Default()))
			if err := c.SetConfig(cfg); err != nil {
				return err
			}
			defer c.Close()

			c.Attach(sink)
			c.Wait()

			st := c.Status()
			if !st.Created {
				if st.Cache.LastError != nil {
					return fmt.Errorf("%w: %w", card.ErrNoData, st.Cache.LastError)
				}
				return card.ErrNoData
			}
			if format == "plotly" {
				slog.Info("Wrote Plotly figure", "path", out, "nodes", len(st.Cache.Dataset.Points))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "tree", "Output format: tree or plotly")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Plotly output file (default under the XDG state dir)")

	return cmd
}
