package config

import (
	"fmt"
	"strings"

	"github.com/dockman-dev/dockman/internal/errors"
	"github.com/dockman-dev/dockman/internal/resource"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but dockman only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade dockman, or lower 'version' in your config.")
	}

	if err := validateHost(cfg.Host); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Set 'host' to a unix:// or tcp:// address, or leave it empty to use DOCKER_HOST.")
	}

	if err := validateRefresh(cfg.Refresh); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'refresh' section in your .dockman.yaml.")
	}

	if err := validateTimeouts(cfg.Timeouts); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'timeouts' section in your .dockman.yaml.")
	}

	if cfg.Stats.Concurrency < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("stats.concurrency needs to be at least 1 (got %d)", cfg.Stats.Concurrency),
			"8 is a good default.")
	}

	if cfg.Logs.Tail < 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("logs.tail can't be negative (got %d)", cfg.Logs.Tail),
			"Use 0 for the full log, or a line count like 100.")
	}

	if err := validateOutput(cfg.Output); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'output' section in your .dockman.yaml.")
	}

	if err := validateThresholds("cpu", cfg.Thresholds.CPU); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'thresholds' section in your .dockman.yaml.")
	}
	if err := validateThresholds("memory", cfg.Thresholds.Memory); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'thresholds' section in your .dockman.yaml.")
	}

	return nil
}

// validateHost accepts the schemes the Docker client can dial directly.
func validateHost(host string) error {
	if host == "" {
		return nil
	}
	for _, scheme := range []string{"unix://", "tcp://", "npipe://"} {
		if strings.HasPrefix(host, scheme) {
			if len(host) == len(scheme) {
				return fmt.Errorf("host '%s' is missing an address after the scheme", host)
			}
			return nil
		}
	}
	if strings.HasPrefix(host, "ssh://") {
		return fmt.Errorf("host '%s' uses ssh, which dockman doesn't support", host)
	}
	return fmt.Errorf("host '%s' doesn't look like a Docker endpoint", host)
}

// validateRefresh checks refresh configuration.
func validateRefresh(r RefreshConfig) error {
	if r.Interval < MinRefreshInterval {
		return fmt.Errorf("refresh.interval %v is too short - use at least %v", r.Interval, MinRefreshInterval)
	}
	if r.DefaultView != "" {
		if _, err := resource.ParseKind(r.DefaultView); err != nil {
			return fmt.Errorf("refresh.default_view '%s' isn't valid - use containers, images, volumes, or networks", r.DefaultView)
		}
	}
	return nil
}

// validateTimeouts checks timeout configuration.
func validateTimeouts(t TimeoutConfig) error {
	if t.Call <= 0 {
		return fmt.Errorf("timeouts.call needs to be positive (got %v)", t.Call)
	}
	if t.Stop < 0 {
		return fmt.Errorf("timeouts.stop can't be negative - that doesn't make sense")
	}
	return nil
}

// validateOutput checks output configuration.
func validateOutput(out OutputConfig) error {
	validColors := map[string]bool{"auto": true, "always": true, "never": true, "": true}
	if !validColors[out.Color] {
		return fmt.Errorf("output.color '%s' isn't valid - use 'auto', 'always', or 'never'", out.Color)
	}
	return nil
}

// validateThresholds checks a threshold configuration for a single metric type.
func validateThresholds(name string, thresh ThresholdValues) error {
	if thresh.Warning < 0 || thresh.Warning > 100 {
		return fmt.Errorf("thresholds.%s.warning needs to be 0-100 (got %d)", name, thresh.Warning)
	}
	if thresh.Critical < 0 || thresh.Critical > 100 {
		return fmt.Errorf("thresholds.%s.critical needs to be 0-100 (got %d)", name, thresh.Critical)
	}
	if thresh.Warning > 0 && thresh.Critical > 0 && thresh.Warning >= thresh.Critical {
		return fmt.Errorf("thresholds.%s.warning (%d%%) is higher than critical (%d%%) - should be the other way around", name, thresh.Warning, thresh.Critical)
	}
	return nil
}
