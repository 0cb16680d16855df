package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockman-dev/dockman/internal/errors"
	rttesting "github.com/dockman-dev/dockman/internal/runtime/testing"
)

// stubPrompt makes the remove confirmation deterministic.
func stubPrompt(t *testing.T, isTTY, answer bool) *[]string {
	t.Helper()
	var asked []string
	prevInteractive, prevConfirm := interactive, confirm
	interactive = func() bool { return isTTY }
	confirm = func(title string) (bool, error) {
		asked = append(asked, title)
		return answer, nil
	}
	t.Cleanup(func() {
		interactive, confirm = prevInteractive, prevConfirm
	})
	return &asked
}

func TestLifecycleCommands(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		method string
		id     string
		status string
	}{
		{"stop by name", []string{"stop", "web"}, rttesting.MethodStopContainer, fullID("aa"), "stop container web"},
		{"start by short id", []string{"start", "bb0000000000"}, rttesting.MethodStartContainer, fullID("bb"), "start container bb0000000000"},
		{"restart", []string{"restart", "web"}, rttesting.MethodRestartContainer, fullID("aa"), "restart container web"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeDocker()
			useGateway(t, gw)

			res := execute(t, tt.args...)

			require.Equal(t, errors.ExitOK, res.code, res.stderr)
			muts := gw.Mutations()
			require.Len(t, muts, 1)
			assert.Equal(t, tt.method, muts[0].Method)
			assert.Equal(t, tt.id, muts[0].ID)
			assert.Contains(t, res.stderr, tt.status)
		})
	}
}

func TestStop_UnknownContainer(t *testing.T) {
	useGateway(t, newFakeDocker())

	res := execute(t, "stop", "ghost")

	assert.Equal(t, errors.ExitFailure, res.code)
	assert.Contains(t, res.stderr, "Couldn't stop container ghost")
}

func TestStop_ContinuesAfterFailure(t *testing.T) {
	gw := newFakeDocker()
	useGateway(t, gw)

	res := execute(t, "stop", "ghost", "web")

	assert.Equal(t, errors.ExitFailure, res.code)
	muts := gw.Mutations()
	require.Len(t, muts, 2)
	assert.Equal(t, fullID("aa"), muts[1].ID)
}

func TestRm_RequiresConfirmationWithoutTerminal(t *testing.T) {
	gw := newFakeDocker()
	useGateway(t, gw)
	stubPrompt(t, false, true)

	res := execute(t, "rm", "volume", "pgdata")

	assert.Equal(t, errors.ExitConfig, res.code)
	assert.Contains(t, res.stderr, "Refusing to remove without confirmation")
	assert.Empty(t, gw.Mutations())
}

func TestRm_Declined(t *testing.T) {
	gw := newFakeDocker()
	useGateway(t, gw)
	asked := stubPrompt(t, true, false)

	res := execute(t, "rm", "volume", "pgdata")

	assert.Equal(t, errors.ExitOK, res.code)
	assert.Equal(t, "Cancelled.\n", res.stdout)
	assert.Equal(t, []string{"Remove volume pgdata?"}, *asked)
	assert.Empty(t, gw.Mutations())
}

func TestRm_Confirmed(t *testing.T) {
	gw := newFakeDocker()
	useGateway(t, gw)
	asked := stubPrompt(t, true, true)

	res := execute(t, "rm", "volumes", "pgdata")

	require.Equal(t, errors.ExitOK, res.code, res.stderr)
	assert.Len(t, *asked, 1)
	muts := gw.Mutations()
	require.Len(t, muts, 1)
	assert.Equal(t, rttesting.MethodRemoveVolume, muts[0].Method)
	assert.Equal(t, "pgdata", muts[0].ID)
}

func TestRm_ForceRunningContainer(t *testing.T) {
	gw := newFakeDocker()
	useGateway(t, gw)
	asked := stubPrompt(t, true, true)

	res := execute(t, "rm", "container", "web", "--yes", "--force")

	require.Equal(t, errors.ExitOK, res.code, res.stderr)
	assert.Empty(t, *asked)
	muts := gw.Mutations()
	require.Len(t, muts, 1)
	assert.Equal(t, rttesting.MethodRemoveContainer, muts[0].Method)
	assert.True(t, muts[0].Force)
}

func TestRm_RunningContainerWithoutForce(t *testing.T) {
	useGateway(t, newFakeDocker())

	res := execute(t, "rm", "container", "web", "-y")

	assert.Equal(t, errors.ExitFailure, res.code)
	assert.Contains(t, res.stderr, "Couldn't remove container")
}

func TestRm_UnknownKind(t *testing.T) {
	useGateway(t, newFakeDocker())

	res := execute(t, "rm", "pods", "web", "--yes")

	assert.Equal(t, errors.ExitConfig, res.code)
	assert.Contains(t, res.stderr, `Unknown kind "pods"`)
}

func TestRm_JSONPartialFailure(t *testing.T) {
	useGateway(t, newFakeDocker())

	res := execute(t, "rm", "volume", "pgdata", "ghost", "--yes", "--json")

	assert.Equal(t, errors.ExitFailure, res.code)

	var env struct {
		Success bool           `json:"success"`
		Data    []actionResult `json:"data"`
		Error   *JSONError     `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &env))
	assert.False(t, env.Success)
	require.Len(t, env.Data, 2)
	assert.True(t, env.Data[0].OK)
	assert.Equal(t, "remove", env.Data[0].Action)
	assert.False(t, env.Data[1].OK)
	require.NotNil(t, env.Error)
	assert.Equal(t, errors.ErrMutate, env.Error.Code)
}

func TestRm_JSONNeedsYes(t *testing.T) {
	useGateway(t, newFakeDocker())
	stubPrompt(t, true, true)

	res := execute(t, "rm", "volume", "pgdata", "--json")

	assert.Equal(t, errors.ExitConfig, res.code)
	assert.Contains(t, res.stdout, `"code": "CONFIG"`)
}

func TestRm_UntaggedPlaceholderIsNotResolved(t *testing.T) {
	gw := withUntaggedImages(newFakeDocker())
	useGateway(t, gw)

	res := execute(t, "rm", "image", "<none>", "--yes")

	assert.Equal(t, errors.ExitFailure, res.code)
	muts := gw.Mutations()
	require.Len(t, muts, 1)
	assert.Equal(t, "<none>", muts[0].ID, "the placeholder goes to the daemon unresolved")

	res = executeIn(t, "images", "--no-color")
	require.Equal(t, errors.ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "3 images")
}
