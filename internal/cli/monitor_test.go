package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dockman-dev/dockman/internal/errors"
	rttesting "github.com/dockman-dev/dockman/internal/runtime/testing"
)

func TestMonitor_RequiresTerminal(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"not a terminal", []string{"monitor"}},
		{"json mode", []string{"monitor", "--json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeDocker()
			useGateway(t, gw)

			res := execute(t, tt.args...)

			assert.Equal(t, errors.ExitConfig, res.code)
			assert.Equal(t, 0, gw.Calls(rttesting.MethodListContainers))
		})
	}
}

func TestMonitor_Flags(t *testing.T) {
	assert.NotNil(t, monitorCmd.Flags().Lookup("interval"))
	assert.NotNil(t, monitorCmd.Flags().Lookup("view"))
}
