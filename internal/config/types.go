package config

import (
	"time"

	"github.com/dockman-dev/dockman/internal/resource"
)

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// MinRefreshInterval is the shortest refresh period accepted.
const MinRefreshInterval = 500 * time.Millisecond

// Config represents the complete .dockman.yaml configuration file.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// Host is the Docker endpoint, e.g. unix:///var/run/docker.sock.
	// Empty means DOCKER_HOST or the default socket.
	Host string `yaml:"host" mapstructure:"host"`

	Refresh    RefreshConfig   `yaml:"refresh" mapstructure:"refresh"`
	Timeouts   TimeoutConfig   `yaml:"timeouts" mapstructure:"timeouts"`
	Stats      StatsConfig     `yaml:"stats" mapstructure:"stats"`
	Logs       LogsConfig      `yaml:"logs" mapstructure:"logs"`
	Output     OutputConfig    `yaml:"output" mapstructure:"output"`
	Thresholds ThresholdConfig `yaml:"thresholds" mapstructure:"thresholds"`
}

// RefreshConfig controls the dashboard's polling.
type RefreshConfig struct {
	// Interval between automatic refreshes of the visible tab.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`

	// DefaultView is the tab shown at startup: containers, images, volumes or networks.
	DefaultView string `yaml:"default_view" mapstructure:"default_view"`

	// ShowStopped includes exited containers in the container list.
	ShowStopped bool `yaml:"show_stopped" mapstructure:"show_stopped"`
}

// TimeoutConfig bounds calls to the Docker daemon.
type TimeoutConfig struct {
	// Call is the deadline for a single daemon call.
	Call time.Duration `yaml:"call" mapstructure:"call"`

	// Stop is how long a container gets to exit on stop/restart before it is killed.
	Stop time.Duration `yaml:"stop" mapstructure:"stop"`
}

// StatsConfig controls container stats sampling.
type StatsConfig struct {
	// Concurrency is the number of stats calls in flight at once.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// LogsConfig controls log viewing and dockman's own log output.
type LogsConfig struct {
	// Tail is how many container log lines to fetch.
	Tail int `yaml:"tail" mapstructure:"tail"`

	// File receives dockman's own logs while the dashboard is open.
	// Empty discards them.
	File string `yaml:"file" mapstructure:"file"`
}

// OutputConfig controls terminal output formatting.
type OutputConfig struct {
	// Color mode: "auto", "always", or "never".
	// "auto" disables color when output is piped.
	Color string `yaml:"color" mapstructure:"color"`
}

// ThresholdConfig colors usage cells in the dashboard.
type ThresholdConfig struct {
	CPU    ThresholdValues `yaml:"cpu" mapstructure:"cpu"`
	Memory ThresholdValues `yaml:"memory" mapstructure:"memory"`
}

// ThresholdValues are percentages at which a value turns warning or critical.
type ThresholdValues struct {
	Warning  int `yaml:"warning" mapstructure:"warning"`
	Critical int `yaml:"critical" mapstructure:"critical"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Refresh: RefreshConfig{
			Interval:    5 * time.Second,
			DefaultView: resource.Container.String(),
			ShowStopped: true,
		},
		Timeouts: TimeoutConfig{
			Call: 30 * time.Second,
			Stop: 10 * time.Second,
		},
		Stats: StatsConfig{
			Concurrency: 8,
		},
		Logs: LogsConfig{
			Tail: 100,
		},
		Output: OutputConfig{
			Color: "auto",
		},
		Thresholds: ThresholdConfig{
			CPU:    ThresholdValues{Warning: 70, Critical: 90},
			Memory: ThresholdValues{Warning: 70, Critical: 90},
		},
	}
}

// View returns the configured startup tab, falling back to containers.
func (c *Config) View() resource.Kind {
	k, err := resource.ParseKind(c.Refresh.DefaultView)
	if err != nil {
		return resource.Container
	}
	return k
}
