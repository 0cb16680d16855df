package cli

import (
	"fmt"
	"time"

	"github.com/dockman-dev/dockman/internal/config"
	"github.com/dockman-dev/dockman/internal/errors"
	"github.com/dockman-dev/dockman/internal/resource"
)

// ParseInterval parses a refresh interval flag. Returns zero duration if
// the flag is empty, meaning "use the configured interval".
func ParseInterval(flag string) (time.Duration, error) {
	if flag == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(flag)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a valid interval", flag),
			"Try something like 2s, 5s, or 1m.")
	}
	if d < config.MinRefreshInterval {
		return 0, errors.New(errors.ErrConfig,
			"Interval too short",
			fmt.Sprintf("Minimum interval is %s to avoid overwhelming the daemon.", config.MinRefreshInterval))
	}
	return d, nil
}

// ParseKindArg parses a kind argument, accepting singular forms.
func ParseKindArg(arg string) (resource.Kind, error) {
	k, err := resource.ParseKind(arg)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Unknown kind %q", arg),
			"Use one of: containers, images, volumes, networks.")
	}
	return k, nil
}
