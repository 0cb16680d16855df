package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dockman-dev/dockman/internal/errors"
	"github.com/dockman-dev/dockman/internal/logger"
	"github.com/dockman-dev/dockman/internal/metrics"
	"github.com/dockman-dev/dockman/internal/runtime"
	rttesting "github.com/dockman-dev/dockman/internal/runtime/testing"
)

func fullID(prefix string) string {
	return prefix + strings.Repeat("0", 64-len(prefix))
}

// newFakeDocker returns a runtime with one running and one stopped
// container plus one object of every other kind.
func newFakeDocker() *rttesting.FakeGateway {
	return rttesting.NewFakeGateway().
		AddContainer(runtime.Container{
			ID: fullID("aa"), Name: "web", State: "running",
			ImageTags: []string{"nginx:latest"}, Created: "2024-03-05T14:07:09Z",
		}, metrics.Sample{
			CPUTotal: 300, PreCPUTotal: 100,
			SystemUsage: 2000, PreSystemUsage: 1000,
			MemoryUsage: 64 << 20, MemoryLimit: 256 << 20,
		}).
		AddContainer(runtime.Container{
			ID: fullID("bb"), Name: "db", State: "exited",
			ImageTags: []string{"postgres:16"}, Created: "2024-03-05T14:07:09Z",
		}, metrics.Sample{}).
		AddImage(runtime.Image{ID: "sha256:" + fullID("cc"), Tags: []string{"nginx:latest"}, Size: 180 << 20, Created: "2024-03-01T10:00:00Z"}).
		AddVolume(runtime.Volume{Name: "pgdata", Driver: "local", Mountpoint: "/var/lib/docker/volumes/pgdata/_data"}).
		AddNetwork(runtime.Network{ID: fullID("dd"), Name: "bridge", Driver: "bridge", Created: "2024-03-01T10:00:00Z"})
}

// withUntaggedImages adds two images that carry no tag.
func withUntaggedImages(gw *rttesting.FakeGateway) *rttesting.FakeGateway {
	return gw.
		AddImage(runtime.Image{ID: "sha256:" + fullID("e1"), Size: 10 << 20, Created: "2024-03-01T10:00:00Z"}).
		AddImage(runtime.Image{ID: "sha256:" + fullID("e2"), Size: 20 << 20, Created: "2024-03-01T10:00:00Z"})
}

// newEmptyDocker returns a runtime with nothing in it.
func newEmptyDocker() *rttesting.FakeGateway {
	return rttesting.NewFakeGateway()
}

func failingConnect(ctx context.Context, host string, log logger.Logger) (runtime.Gateway, error) {
	return nil, errors.New(errors.ErrConnection, "Can't reach the Docker daemon", "Start Docker and try again.")
}

// useGateway routes every command to gw.
func useGateway(t *testing.T, gw runtime.Gateway) {
	t.Helper()
	prev := connect
	connect = func(ctx context.Context, host string, log logger.Logger) (runtime.Gateway, error) {
		return gw, nil
	}
	t.Cleanup(func() { connect = prev })
}

// resetFlags puts every flag back to its default, since the commands are
// package-level and keep values between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

type result struct {
	stdout string
	stderr string
	code   int
}

// execute runs dockman with args in an empty working directory and home.
func execute(t *testing.T, args ...string) result {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	resetFlags(rootCmd)
	resetConfig()
	logger.SetDebug(false)
	t.Cleanup(func() {
		resetFlags(rootCmd)
		resetConfig()
		logger.SetDebug(false)
	})

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	if args == nil {
		// A nil slice makes cobra fall back to os.Args.
		args = []string{}
	}
	code := run(context.Background(), args)
	return result{stdout: out.String(), stderr: errOut.String(), code: code}
}

// executeIn is execute without changing directory, for multi-step tests.
func executeIn(t *testing.T, args ...string) result {
	t.Helper()
	resetFlags(rootCmd)
	resetConfig()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	code := run(context.Background(), args)
	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	return result{stdout: out.String(), stderr: errOut.String(), code: code}
}
