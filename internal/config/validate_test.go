package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockman-dev/dockman/internal/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{
			name:    "future version",
			mutate:  func(c *Config) { c.Version = CurrentConfigVersion + 1 },
			wantErr: "from the future",
		},
		{name: "unix host", mutate: func(c *Config) { c.Host = "unix:///var/run/docker.sock" }},
		{name: "tcp host", mutate: func(c *Config) { c.Host = "tcp://127.0.0.1:2375" }},
		{
			name:    "ssh host",
			mutate:  func(c *Config) { c.Host = "ssh://me@box" },
			wantErr: "doesn't support",
		},
		{
			name:    "bare host",
			mutate:  func(c *Config) { c.Host = "localhost" },
			wantErr: "doesn't look like a Docker endpoint",
		},
		{
			name:    "scheme only",
			mutate:  func(c *Config) { c.Host = "tcp://" },
			wantErr: "missing an address",
		},
		{
			name:    "interval too short",
			mutate:  func(c *Config) { c.Refresh.Interval = 100 * time.Millisecond },
			wantErr: "refresh.interval",
		},
		{name: "minimum interval", mutate: func(c *Config) { c.Refresh.Interval = MinRefreshInterval }},
		{
			name:    "bad default view",
			mutate:  func(c *Config) { c.Refresh.DefaultView = "pods" },
			wantErr: "default_view",
		},
		{
			name:    "zero call timeout",
			mutate:  func(c *Config) { c.Timeouts.Call = 0 },
			wantErr: "timeouts.call",
		},
		{
			name:    "negative stop timeout",
			mutate:  func(c *Config) { c.Timeouts.Stop = -time.Second },
			wantErr: "timeouts.stop",
		},
		{name: "zero stop timeout", mutate: func(c *Config) { c.Timeouts.Stop = 0 }},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Stats.Concurrency = 0 },
			wantErr: "stats.concurrency",
		},
		{
			name:    "negative tail",
			mutate:  func(c *Config) { c.Logs.Tail = -1 },
			wantErr: "logs.tail",
		},
		{
			name:    "bad color",
			mutate:  func(c *Config) { c.Output.Color = "rainbow" },
			wantErr: "output.color",
		},
		{
			name:    "threshold out of range",
			mutate:  func(c *Config) { c.Thresholds.CPU.Critical = 120 },
			wantErr: "thresholds.cpu.critical",
		},
		{
			name:    "warning above critical",
			mutate:  func(c *Config) { c.Thresholds.Memory = ThresholdValues{Warning: 95, Critical: 80} },
			wantErr: "thresholds.memory.warning",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	assert.Error(t, Validate(nil))
}
