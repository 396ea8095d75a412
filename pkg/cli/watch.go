package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"sunburst/pkg/card"
	"sunburst/pkg/display"

	"github.com/adrg/xdg"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newWatchCmd(g *globalOptions) *cobra.Command {
	var interval time.Duration
	var useTUI bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Render and keep refreshing",
		Long: "Render the usage document and refresh it on every interval tick. " +
			"SIGHUP drops the cached data and refreshes immediately.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got %s", interval)
			}
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := slog.Default()
			var sink display.Sink
			var tui *display.TUI
			if useTUI {
				// The alternate screen owns the terminal, so logs go to a file.
				w, closeLog, err := openLogFile()
				if err != nil {
					return err
				}
				defer closeLog()
				logger = newLogger(w, g.verbose)
				tui = display.NewTUI(tea.WithContext(ctx))
				sink = tui
			} else {
				sink = display.NewWriterSink(cmd.OutOrStdout())
			}

			c := card.New(card.WithLogger(logger))
			if err := c.SetConfig(cfg); err != nil {
				return err
			}
			defer c.Close()

			grp, gctx := errgroup.WithContext(ctx)
			if tui != nil {
				grp.Go(func() error {
					defer stop()
					err := tui.Run()
					if errors.Is(err, tea.ErrProgramKilled) {
						return nil
					}
					return err
				})
			}

			c.Attach(sink)
			grp.Go(func() error {
				return notifyLoop(gctx, c, interval, logger)
			})
			return grp.Wait()
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", time.Minute, "Refresh interval")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "Interactive full-screen view")

	return cmd
}

// notifyLoop turns ticks and SIGHUP into "context changed" notifications
// until ctx ends.
func notifyLoop(ctx context.Context, c *card.Card, interval time.Duration, logger *slog.Logger) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	rev := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rev++
			c.SetContext(strconv.Itoa(rev))
		case <-hup:
			logger.Info("Reload requested, dropping cached data")
			c.Invalidate()
			rev++
			c.SetContext(strconv.Itoa(rev))
		}
	}
}

func openLogFile() (io.Writer, func(), error) {
	path, err := xdg.StateFile("sunburst/sunburst.log")
	if err != nil {
		return nil, nil, fmt.Errorf("error locating log file: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening log file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
