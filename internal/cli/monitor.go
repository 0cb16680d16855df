package cli

import (
	"context"
	stderrors "errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dockman-dev/dockman/internal/driver"
	"github.com/dockman-dev/dockman/internal/errors"
	"github.com/dockman-dev/dockman/internal/logger"
	"github.com/dockman-dev/dockman/internal/monitor"
	"github.com/dockman-dev/dockman/internal/runtime"
	"github.com/dockman-dev/dockman/internal/ui"
)

var (
	monitorIntervalFlag string
	monitorViewFlag     string
)

// monitorCmd starts the TUI dashboard
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive dashboard of containers, images, volumes and networks",
	Long: `Start an interactive dashboard that refreshes the visible tab on
the configured interval. Running dockman without a command does the same.

Keyboard shortcuts:
  q / Ctrl+C  Quit
  t / Tab     Next tab
  1-4         Jump to tab
  r           Refresh now
  s / x / R   Start / stop / restart container
  d           Remove (press twice)
  l           Container logs
  ?           Show help

Examples:
  dockman monitor
  dockman monitor --view images
  dockman monitor --interval 2s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return monitorCommand(cmd)
	},
}

func init() {
	monitorCmd.Flags().StringVar(&monitorIntervalFlag, "interval", "", "refresh interval (default from refresh.interval)")
	monitorCmd.Flags().StringVar(&monitorViewFlag, "view", "", "tab to open: containers, images, volumes or networks")
	rootCmd.AddCommand(monitorCmd)
}

// monitorCommand runs the dashboard until the user quits.
func monitorCommand(cmd *cobra.Command) error {
	if machineMode || !ui.IsTerminal(cmd.OutOrStdout()) {
		return errors.New(errors.ErrConfig,
			"The dashboard needs an interactive terminal",
			"Use 'dockman watch --json' or the list commands for scripts.")
	}

	interval, err := ParseInterval(monitorIntervalFlag)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	eng, cfg, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	view := cfg.View()
	if monitorViewFlag != "" {
		if view, err = ParseKindArg(monitorViewFlag); err != nil {
			return err
		}
	}
	if interval == 0 {
		interval = cfg.Refresh.Interval
	}

	// The dashboard owns the terminal from here on.
	restore, err := logger.Redirect(cfg.Logs.File)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Can't open the log file",
			"Check logs.file points to a writable location, or leave it empty.")
	}
	defer restore()

	drv := driver.New(eng, view,
		driver.WithInterval(interval),
		driver.WithLogger(logger.NewEnvLogger("[driver]")))

	model := monitor.NewModel(eng, drv, monitor.Options{
		Host:       runtime.ResolveHost(cfg.Host),
		Initial:    view,
		LogTail:    cfg.Logs.Tail,
		Thresholds: cfg.Thresholds,
	})

	go drv.Run(ctx)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	if stderrors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		err = nil
	}
	return err
}
