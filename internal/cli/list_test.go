package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockman-dev/dockman/internal/errors"
	"github.com/dockman-dev/dockman/internal/resource"
)

func TestPs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
		absent   []string
	}{
		{
			name:     "running only by default",
			args:     []string{"ps", "--no-color"},
			contains: []string{"web", "1 container, 1 running"},
			absent:   []string{"db"},
		},
		{
			name:     "all includes stopped",
			args:     []string{"ps", "-a", "--no-color"},
			contains: []string{"web", "db", "exited", "2 containers, 1 running"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useGateway(t, newFakeDocker())

			res := execute(t, tt.args...)

			require.Equal(t, errors.ExitOK, res.code, res.stderr)
			for _, s := range tt.contains {
				assert.Contains(t, res.stdout, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, res.stdout, s)
			}
		})
	}
}

func TestPs_JSON(t *testing.T) {
	useGateway(t, newFakeDocker())

	res := execute(t, "ps", "--json")
	require.Equal(t, errors.ExitOK, res.code, res.stderr)

	var env struct {
		Success bool                       `json:"success"`
		Data    []resource.ContainerRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &env))
	assert.True(t, env.Success)
	require.Len(t, env.Data, 1)
	assert.Equal(t, "web", env.Data[0].Name)
	assert.Equal(t, fullID("aa"), env.Data[0].FullID)
	assert.InDelta(t, 25.0, env.Data[0].MemoryPercent, 0.01)
}

func TestImages_Summary(t *testing.T) {
	useGateway(t, newFakeDocker())

	res := execute(t, "images", "--no-color")

	require.Equal(t, errors.ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "nginx:latest")
	assert.Contains(t, res.stdout, "1 image, 180 MiB total")
}

func TestVolumes_Empty(t *testing.T) {
	useGateway(t, newEmptyDocker())

	res := execute(t, "volumes")

	require.Equal(t, errors.ExitOK, res.code, res.stderr)
	assert.Equal(t, "No volumes.\n", res.stdout)
}

func TestNetworks_SingularAlias(t *testing.T) {
	useGateway(t, newFakeDocker())

	res := execute(t, "network", "--no-color")

	require.Equal(t, errors.ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "bridge")
	assert.Contains(t, res.stdout, "1 network")
}

func TestList_ConnectionFailure(t *testing.T) {
	prev := connect
	connect = failingConnect
	t.Cleanup(func() { connect = prev })

	res := execute(t, "images")

	assert.Equal(t, errors.ExitConnection, res.code)
	assert.Contains(t, res.stderr, "Can't reach the Docker daemon")
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "0 volumes", summarize(resource.Volume, nil))
	assert.Equal(t, "1 network", summarize(resource.Network, []resource.Record{resource.NetworkRecord{}}))
	assert.Equal(t, "2 images, 3.0 MiB total", summarize(resource.Image, []resource.Record{
		resource.ImageRecord{SizeMB: 1},
		resource.ImageRecord{SizeMB: 2},
	}))
}
