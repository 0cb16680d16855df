package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dockman-dev/dockman/internal/config"
	"github.com/dockman-dev/dockman/internal/driver"
	"github.com/dockman-dev/dockman/internal/errors"
	"github.com/dockman-dev/dockman/internal/logger"
	"github.com/dockman-dev/dockman/internal/resource"
	"github.com/dockman-dev/dockman/internal/ui"
)

var (
	watchIntervalFlag string
	watchCountFlag    int
)

var watchCmd = &cobra.Command{
	Use:   "watch [kind]",
	Short: "Print a kind on every refresh until interrupted",
	Long: `Refresh one kind on the configured interval and print each result.

With --json every refresh is one JSON object per line, suitable for
piping into other tools. Failed refreshes are reported and retried on the
next tick.

Examples:
  dockman watch
  dockman watch images --interval 10s
  dockman watch containers --json --count 3`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"containers", "images", "volumes", "networks"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kindArg := ""
		if len(args) == 1 {
			kindArg = args[0]
		}
		return watchCommand(cmd, kindArg)
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchIntervalFlag, "interval", "", "refresh interval (default from refresh.interval)")
	watchCmd.Flags().IntVar(&watchCountFlag, "count", 0, "exit after this many refreshes (0 runs until interrupted)")
	rootCmd.AddCommand(watchCmd)
}

// watchEvent is one line of --json watch output.
type watchEvent struct {
	Kind    string            `json:"kind"`
	At      time.Time         `json:"at"`
	Records []resource.Record `json:"records,omitempty"`
	Error   *JSONError        `json:"error,omitempty"`
}

func watchCommand(cmd *cobra.Command, kindArg string) error {
	interval, err := ParseInterval(watchIntervalFlag)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, cfg, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	kind := cfg.View()
	if kindArg != "" {
		if kind, err = ParseKindArg(kindArg); err != nil {
			return err
		}
	}
	if interval == 0 {
		interval = cfg.Refresh.Interval
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	drv := driver.New(eng, kind,
		driver.WithInterval(interval),
		driver.WithLogger(logger.NewEnvLogger("[driver]")))
	go drv.Run(ctx)

	return printUpdates(cmd, drv.Updates(), cancel, cfg.Thresholds)
}

// printUpdates writes each update until the channel closes or --count
// updates have been printed.
func printUpdates(cmd *cobra.Command, updates <-chan driver.Update, cancel context.CancelFunc, th config.ThresholdConfig) error {
	out := cmd.OutOrStdout()
	seen := 0
	var lastErr error

	for u := range updates {
		if machineMode {
			ev := watchEvent{Kind: u.Kind.String(), At: u.At, Records: u.Records, Error: ErrorToJSON(u.Err)}
			if err := writeJSONLine(out, ev); err != nil {
				cancel()
				return err
			}
		} else {
			stamp := lipgloss.NewStyle().Foreground(ui.ColorMuted).Render(u.At.Format(time.TimeOnly))
			fmt.Fprintf(out, "%s %s\n", stamp, u.Kind.Title())
			if u.Err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), lipgloss.NewStyle().Foreground(ui.ColorError).Render(
					ui.SymbolFail+" "+errors.Summary(u.Err)))
			} else {
				printRecords(out, u.Kind, u.Records, th)
			}
			fmt.Fprintln(out)
		}
		lastErr = u.Err

		seen++
		if watchCountFlag > 0 && seen >= watchCountFlag {
			cancel()
			for range updates {
			}
			break
		}
	}

	// Bounded runs report whether the final refresh succeeded.
	if watchCountFlag > 0 && lastErr != nil {
		return errors.NewExitError(errors.ExitCodeFor(lastErr))
	}
	return nil
}
