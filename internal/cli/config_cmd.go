package cli

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dockman-dev/dockman/internal/config"
	"github.com/dockman-dev/dockman/internal/errors"
	"github.com/dockman-dev/dockman/internal/ui"
)

var (
	configInitForce  bool
	configInitGlobal bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create, show and edit the configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .dockman.yaml",
	Long: `Write the default configuration with comments.

Creates .dockman.yaml in the current directory, or
~/.config/dockman/config.yaml with --global.

Examples:
  dockman config init
  dockman config init --global --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitCommand(cmd)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one value in the config file",
	Long: `Set a dotted key in the config file dockman would load, keeping
the file's comments. The result is validated before it is kept.

Examples:
  dockman config set refresh.interval 2s
  dockman config set thresholds.cpu.warning 60`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return configSetCommand(cmd, args[0], args[1])
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowCommand(cmd)
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
	configInitCmd.Flags().BoolVar(&configInitGlobal, "global", false, "write the per-user config instead")
	configCmd.AddCommand(configInitCmd, configSetCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func configInitCommand(cmd *cobra.Command) error {
	path := filepath.Join(".", config.ConfigFileName)
	if configInitGlobal {
		path = config.GlobalPath()
		if path == "" {
			return errors.New(errors.ErrConfig,
				"Can't find your home directory",
				"Run 'dockman config init' without --global to write .dockman.yaml here.")
		}
	}

	if err := config.WriteDefault(path, configInitForce); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't write the config file",
			"Use --force to overwrite an existing file.")
	}

	if machineMode {
		return WriteJSONSuccess(cmd.OutOrStdout(), map[string]string{"path": path})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", ui.SymbolSuccess, path)
	return nil
}

func configSetCommand(cmd *cobra.Command, key, value string) error {
	path, err := config.Find(cfgFile)
	if err != nil {
		return err
	}
	if path == "" {
		return errors.New(errors.ErrConfig,
			"No config file to edit",
			"Run 'dockman config init' first.")
	}

	original, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Couldn't read the config file", "")
	}
	if err := config.SetValue(path, key, value); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't set %s", key),
			"Keys are dotted paths such as refresh.interval or thresholds.cpu.warning.")
	}

	cfg, err := config.Load(path)
	if err == nil {
		err = config.Validate(cfg)
	}
	if err != nil {
		// Restore the previous file.
		if werr := os.WriteFile(path, original, 0o644); werr != nil {
			return stderrors.Join(err, werr)
		}
		return err
	}
	resetConfig()

	if machineMode {
		return WriteJSONSuccess(cmd.OutOrStdout(), map[string]string{"path": path, "key": key, "value": value})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s Set %s = %s in %s\n", ui.SymbolSuccess, key, value, path)
	return nil
}

func configShowCommand(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if machineMode {
		return WriteJSONSuccess(cmd.OutOrStdout(), map[string]interface{}{"path": loadedPath, "config": cfg})
	}

	data, err := config.Render(cfg)
	if err != nil {
		return err
	}
	source := loadedPath
	if source == "" {
		source = "defaults"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n%s", source, data)
	return nil
}
