package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/dockman-dev/dockman/internal/errors"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".dockman.yaml"
	// GlobalConfigDir is the directory for global config, relative to home.
	GlobalConfigDir = ".config/dockman"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. DOCKMAN_REFRESH_INTERVAL.
	EnvPrefix = "DOCKMAN"
)

// Load reads config from the specified path. Environment variables
// override file values.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'dockman config init' to create one, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .dockman.yaml in current directory
// 3. ~/.config/dockman/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	if global := GlobalPath(); global != "" {
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}

	return "", nil
}

// GlobalPath returns ~/.config/dockman/config.yaml, or "" without a home dir.
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
}

// LoadOrDefault loads the config Find locates, or defaults plus environment
// overrides when there is no file. The returned path is empty in that case.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		cfg, err := parseConfig(newViper(), "environment")
		return cfg, "", err
	}

	cfg, err := Load(path)
	return cfg, path, err
}

// newViper creates a viper instance with defaults and env binding.
// Every key needs a default for AutomaticEnv to reach it on Unmarshal.
func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, source string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+source)
	}

	cfg.Logs.File = expandHome(cfg.Logs.File)
	return cfg, nil
}

// setDefaults registers every key with its default value.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("host", d.Host)
	v.SetDefault("refresh.interval", d.Refresh.Interval)
	v.SetDefault("refresh.default_view", d.Refresh.DefaultView)
	v.SetDefault("refresh.show_stopped", d.Refresh.ShowStopped)
	v.SetDefault("timeouts.call", d.Timeouts.Call)
	v.SetDefault("timeouts.stop", d.Timeouts.Stop)
	v.SetDefault("stats.concurrency", d.Stats.Concurrency)
	v.SetDefault("logs.tail", d.Logs.Tail)
	v.SetDefault("logs.file", d.Logs.File)
	v.SetDefault("output.color", d.Output.Color)
	v.SetDefault("thresholds.cpu.warning", d.Thresholds.CPU.Warning)
	v.SetDefault("thresholds.cpu.critical", d.Thresholds.CPU.Critical)
	v.SetDefault("thresholds.memory.warning", d.Thresholds.Memory.Warning)
	v.SetDefault("thresholds.memory.critical", d.Thresholds.Memory.Critical)
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
