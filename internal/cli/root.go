package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dockman-dev/dockman/internal/config"
	"github.com/dockman-dev/dockman/internal/errors"
	"github.com/dockman-dev/dockman/internal/logger"
	"github.com/dockman-dev/dockman/internal/ui"
)

// Global flags
var (
	cfgFile     string
	debugFlag   bool
	noColorFlag bool
)

// Loaded configuration, resolved once per invocation.
var (
	loadedConfig *config.Config
	loadedPath   string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "dockman",
	Short: "Watch and manage local Docker containers, images, volumes and networks",
	Long: `dockman polls the local Docker daemon and shows containers, images,
volumes and networks with live CPU and memory usage.

Run without arguments to open the dashboard, or use the one-shot
commands for scripts.

Examples:
  dockman
  dockman ps -a
  dockman stop web
  dockman rm image nginx:latest --yes
  dockman watch networks --json`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debugFlag {
			logger.SetDebug(true)
		}
		if noColorFlag {
			ui.DisableColors()
			return nil
		}
		// Commands that need config report load errors themselves.
		if cfg, err := loadConfig(); err == nil {
			ui.ConfigureColor(cfg.Output.Color, cmd.OutOrStdout())
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return monitorCommand(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./.dockman.yaml, then ~/.config/dockman/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "log debug output (same as DOCKMAN_DEBUG=1)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&machineMode, "json", false, "print JSON instead of tables")
}

// loadConfig finds, loads and validates the configuration once.
func loadConfig() (*config.Config, error) {
	if loadedConfig != nil {
		return loadedConfig, nil
	}
	cfg, path, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	loadedConfig, loadedPath = cfg, path
	return cfg, nil
}

// resetConfig forgets the loaded configuration.
func resetConfig() {
	loadedConfig, loadedPath = nil, ""
}

// Execute runs the root command and exits with a status derived from the error.
func Execute() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

// run executes the CLI with args and returns the process exit status.
func run(ctx context.Context, args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return errors.ExitOK
	}

	if _, ok := errors.GetExitCode(err); !ok {
		// Cobra rejects unknown commands before parsing flags.
		reportError(rootCmd, err, machineMode || slices.Contains(args, "--json"))
	}
	return errors.ExitCodeFor(err)
}

func reportError(cmd *cobra.Command, err error, asJSON bool) {
	if asJSON {
		_ = WriteJSONFromError(cmd.OutOrStdout(), err)
		return
	}

	errStyle := lipgloss.NewStyle().Foreground(ui.ColorError)

	if isUnknownCommandError(err) {
		what := err.Error()
		if name := extractUnknownCommand(err); name != "" {
			what = fmt.Sprintf("Unknown command or flag %q", name)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s\n\n  Run 'dockman --help' to see available commands.\n",
			errStyle.Render(ui.SymbolFail+" "+what))
		return
	}

	var dmErr *errors.Error
	if stderrors.As(err, &dmErr) {
		fmt.Fprintln(cmd.ErrOrStderr(), errStyle.Render(strings.TrimRight(dmErr.Error(), "\n")))
		return
	}
	fmt.Fprintln(cmd.ErrOrStderr(), errStyle.Render(fmt.Sprintf("%s %s", ui.SymbolFail, err)))
}

// isUnknownCommandError reports whether cobra rejected the command line.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

// extractUnknownCommand pulls the offending word out of cobra's message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.IndexByte(msg, '"')
	if start < 0 {
		if i := strings.Index(msg, ": "); i >= 0 {
			return strings.TrimSpace(msg[i+2:])
		}
		return ""
	}
	end := strings.IndexByte(msg[start+1:], '"')
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}
