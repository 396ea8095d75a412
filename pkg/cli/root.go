// Package cli wires the sunburst card into cobra commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"sunburst/pkg/config"

	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	url        string
	verbose    bool
}

func NewRootCmd() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:   "sunburst",
		Short: "Disk usage sunburst from a remote JSON document",
		Long: "Sunburst fetches a hierarchical disk usage document (labels, parents, values), " +
			"drops entries of 5000 bytes or less, converts sizes to megabytes and renders the result.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), g.verbose))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", config.DefaultPath(), "Path to the config file")
	root.PersistentFlags().StringVar(&g.url, "url", "", "Usage document URL (overrides json_url)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newShowCmd(g),
		newWatchCmd(g),
		newVersionCmd(),
	)

	root.Version = config.BuildVersion
	root.SetVersionTemplate(config.GetBuildInfo() + "\n")

	return root
}

func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the config file, if any, and applies flag overrides.
func (g *globalOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("No config file", "path", g.configPath)
		cfg = &config.Config{}
	} else if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	if g.url != "" {
		cfg.JSONURL = g.url
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), config.GetBuildInfo())
			return nil
		},
	}
}
