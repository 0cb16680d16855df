package cli

import (
	"context"

	"github.com/dockman-dev/dockman/internal/config"
	"github.com/dockman-dev/dockman/internal/engine"
	"github.com/dockman-dev/dockman/internal/logger"
	"github.com/dockman-dev/dockman/internal/runtime"
)

// connect opens the runtime gateway. Tests replace it with a fake.
var connect = func(ctx context.Context, host string, log logger.Logger) (runtime.Gateway, error) {
	return runtime.Dial(ctx, host, log)
}

// openEngine loads config, connects to Docker and builds an engine with the
// configured timeouts. Extra options are applied last.
func openEngine(ctx context.Context, opts ...engine.Option) (*engine.Engine, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeouts.Call)
	gw, err := connect(dialCtx, cfg.Host, logger.NewEnvLogger("[docker]"))
	cancel()
	if err != nil {
		return nil, nil, err
	}

	base := []engine.Option{
		engine.WithCallTimeout(cfg.Timeouts.Call),
		engine.WithStopTimeout(cfg.Timeouts.Stop),
		engine.WithStatsConcurrency(cfg.Stats.Concurrency),
		engine.WithAllContainers(cfg.Refresh.ShowStopped),
		engine.WithLogger(logger.NewEnvLogger("[engine]")),
	}
	return engine.New(gw, append(base, opts...)...), cfg, nil
}
