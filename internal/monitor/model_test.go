package monitor

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dockman-dev/dockman/internal/config"
	"github.com/dockman-dev/dockman/internal/driver"
	"github.com/dockman-dev/dockman/internal/engine"
	"github.com/dockman-dev/dockman/internal/metrics"
	"github.com/dockman-dev/dockman/internal/resource"
	"github.com/dockman-dev/dockman/internal/runtime"
	rttesting "github.com/dockman-dev/dockman/internal/runtime/testing"
)

type stubFeed struct {
	ch        chan driver.Update
	active    []resource.Kind
	refreshes int
}

func newStubFeed() *stubFeed {
	return &stubFeed{ch: make(chan driver.Update, 4)}
}

func (f *stubFeed) Updates() <-chan driver.Update { return f.ch }
func (f *stubFeed) SetActive(kind resource.Kind)  { f.active = append(f.active, kind) }
func (f *stubFeed) Refresh()                      { f.refreshes++ }

var webSample = metrics.Sample{
	CPUTotal: 200, PreCPUTotal: 100,
	SystemUsage: 2000, PreSystemUsage: 1000,
	MemoryUsage: 100 << 20, MemoryLimit: 200 << 20,
}

func fullID(prefix string) string {
	return prefix + strings.Repeat("0", 64-len(prefix))
}

type fixture struct {
	gw   *rttesting.FakeGateway
	eng  *engine.Engine
	feed *stubFeed
}

func newModel(t *testing.T) (Model, fixture) {
	t.Helper()

	prev := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.Ascii)
	t.Cleanup(func() { lipgloss.SetColorProfile(prev) })

	gw := rttesting.NewFakeGateway().
		AddContainer(runtime.Container{
			ID: fullID("aa"), Name: "web", State: "running",
			ImageTags: []string{"nginx:latest"}, Created: "2024-03-05T14:07:09Z",
		}, webSample).
		AddContainer(runtime.Container{
			ID: fullID("bb"), Name: "db", State: "exited",
			ImageTags: []string{"postgres:16"}, Created: "2024-03-05T14:07:09Z",
		}, metrics.Sample{}).
		AddImage(runtime.Image{ID: "sha256:" + fullID("cc"), Tags: []string{"nginx:latest"}, Size: 1 << 20}).
		AddVolume(runtime.Volume{Name: "pgdata", Driver: "local"}).
		AddNetwork(runtime.Network{ID: fullID("dd"), Name: "bridge", Driver: "bridge"})
	eng := engine.New(gw)

	_, err := eng.Read(context.Background(), resource.Container)
	require.NoError(t, err)

	feed := newStubFeed()
	m := NewModel(eng, feed, Options{
		Host:       "unix:///var/run/docker.sock",
		Initial:    resource.Container,
		Thresholds: config.DefaultConfig().Thresholds,
	})
	m, _ = update(m, tea.WindowSizeMsg{Width: 160, Height: 40})
	return m, fixture{gw: gw, eng: eng, feed: feed}
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		m, cmd = update(m, key(k))
	}
	return m, cmd
}

// collect runs cmd and any batched commands, returning their messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func find[T tea.Msg](t *testing.T, msgs []tea.Msg) T {
	t.Helper()
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v
		}
	}
	var zero T
	t.Fatalf("no %T among %d messages", zero, len(msgs))
	return zero
}

func TestNewModel_ShowsCachedSnapshot(t *testing.T) {
	m, _ := newModel(t)

	assert.Equal(t, resource.Container, m.Active())
	require.Len(t, m.records[resource.Container], 2)
	assert.Empty(t, m.records[resource.Image])

	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, fullID("aa"), sel.Key())
	assert.Contains(t, m.View(), "web")
}

func TestNewModel_InvalidInitialFallsBack(t *testing.T) {
	feed := newStubFeed()
	m := NewModel(engine.New(rttesting.NewFakeGateway()), feed, Options{Initial: resource.Kind(9)})
	assert.Equal(t, resource.Container, m.Active())
	assert.Equal(t, config.DefaultConfig().Logs.Tail, m.opts.LogTail)
	assert.NotNil(t, m.Init())
}

func TestTabs(t *testing.T) {
	m, fx := newModel(t)

	m, _ = press(m, "t")
	assert.Equal(t, resource.Image, m.Active())

	m, _ = press(m, "4")
	assert.Equal(t, resource.Network, m.Active())

	m, _ = press(m, "tab")
	assert.Equal(t, resource.Container, m.Active())

	// Jumping to the visible tab does not trigger a read.
	m, _ = press(m, "1")
	assert.Equal(t, []resource.Kind{resource.Image, resource.Network, resource.Container}, fx.feed.active)
}

func TestUpdate_AppliesDriverResult(t *testing.T) {
	m, _ := newModel(t)
	m.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 10, 0, time.UTC) }

	recs := []resource.Record{resource.VolumeRecord{Name: "pgdata", Driver: "local"}}
	m, cmd := update(m, updateMsg{Kind: resource.Volume, Records: recs, At: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	assert.NotNil(t, cmd, "keeps listening for updates")

	m, _ = press(m, "3")
	assert.Contains(t, m.View(), "pgdata")
	assert.Equal(t, "10 seconds ago", m.UpdatedAgo())
}

func TestUpdate_FailedReadKeepsRows(t *testing.T) {
	m, _ := newModel(t)

	m, _ = update(m, updateMsg{Kind: resource.Container, Err: stderrors.New("daemon went away")})
	assert.Len(t, m.records[resource.Container], 2)
	assert.Contains(t, m.Status(), "daemon went away")
	assert.Contains(t, m.renderTabs(), "!")

	recs, at := m.backend.Cached(resource.Container)
	m, _ = update(m, updateMsg{Kind: resource.Container, Records: recs, At: at})
	assert.Empty(t, m.Status())
}

func TestUpdate_FailureOnHiddenTabStaysQuiet(t *testing.T) {
	m, _ := newModel(t)

	m, _ = update(m, updateMsg{Kind: resource.Image, Err: stderrors.New("boom")})
	assert.Empty(t, m.Status())

	m, _ = press(m, "2")
	assert.Contains(t, m.Status(), "boom")
}

func TestUpdate_KeepsSelectionByKey(t *testing.T) {
	m, _ := newModel(t)

	m, _ = press(m, "down")
	sel, _ := m.Selected()
	require.Equal(t, fullID("bb"), sel.Key())

	reordered := []resource.Record{
		resource.ContainerRecord{FullID: fullID("bb"), ID: "bb0000000000", Name: "db", Status: "exited"},
		resource.ContainerRecord{FullID: fullID("ee"), ID: "ee0000000000", Name: "cache", Status: "running"},
		resource.ContainerRecord{FullID: fullID("aa"), ID: "aa0000000000", Name: "web", Status: "running"},
	}
	m, _ = update(m, updateMsg{Kind: resource.Container, Records: reordered, At: time.Now()})

	sel, _ = m.Selected()
	assert.Equal(t, fullID("bb"), sel.Key())
}

func TestUpdate_ClampsCursorWhenRowsShrink(t *testing.T) {
	m, _ := newModel(t)
	m, _ = press(m, "down")

	m, _ = update(m, updateMsg{Kind: resource.Container, Records: []resource.Record{
		resource.ContainerRecord{FullID: fullID("ff"), Name: "only"},
	}, At: time.Now()})

	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, fullID("ff"), sel.Key())
}

func TestStop_RunsOffLoopAndRefreshes(t *testing.T) {
	m, fx := newModel(t)

	m, cmd := press(m, "x")
	require.NotNil(t, cmd)
	assert.Contains(t, m.renderStatus(), "Stopping container web")

	done := find[actionDoneMsg](t, collect(cmd))
	require.NoError(t, done.err)

	m, _ = update(m, done)
	assert.Contains(t, m.Status(), "Stopped container web")
	assert.Equal(t, 1, fx.feed.refreshes)

	muts := fx.gw.Mutations()
	require.Len(t, muts, 1)
	assert.Equal(t, rttesting.MethodStopContainer, muts[0].Method)
	assert.Equal(t, fullID("aa"), muts[0].ID)
}

func TestLifecycleKeys(t *testing.T) {
	tests := []struct {
		key    string
		method string
	}{
		{"s", rttesting.MethodStartContainer},
		{"R", rttesting.MethodRestartContainer},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m, fx := newModel(t)
			_, cmd := press(m, tt.key)
			find[actionDoneMsg](t, collect(cmd))

			muts := fx.gw.Mutations()
			require.Len(t, muts, 1)
			assert.Equal(t, tt.method, muts[0].Method)
		})
	}
}

func TestLifecycle_NotOnOtherKinds(t *testing.T) {
	m, fx := newModel(t)
	m, _ = update(m, updateMsg{Kind: resource.Image, Records: []resource.Record{
		resource.ImageRecord{FullID: "sha256:" + fullID("cc"), ID: "cc0000000000", Tags: []string{"nginx:latest"}},
	}, At: time.Now()})

	m, _ = press(m, "2")
	m, cmd := press(m, "x")
	assert.Nil(t, cmd)
	assert.Contains(t, m.Status(), "only containers")
	assert.Empty(t, fx.gw.Mutations())
}

func TestLifecycle_NothingSelected(t *testing.T) {
	m, _ := newModel(t)
	m, _ = press(m, "3")

	m, cmd := press(m, "d")
	assert.Nil(t, cmd)
	assert.Contains(t, m.Status(), "No volume selected")
}

func TestRemove_RequiresSecondPress(t *testing.T) {
	m, fx := newModel(t)
	m, _ = press(m, "down")

	m, cmd := press(m, "d")
	assert.Nil(t, cmd)
	assert.Contains(t, m.Status(), "Press d again to remove container db")
	assert.Empty(t, fx.gw.Mutations())

	_, cmd = press(m, "d")
	done := find[actionDoneMsg](t, collect(cmd))
	require.NoError(t, done.err)

	muts := fx.gw.Mutations()
	require.Len(t, muts, 1)
	assert.Equal(t, rttesting.MethodRemoveContainer, muts[0].Method)
	assert.False(t, muts[0].Force)
}

func TestRemove_CancelledByOtherKey(t *testing.T) {
	m, fx := newModel(t)

	m, _ = press(m, "d", "esc")
	assert.Empty(t, m.Status())
	assert.Empty(t, m.pendingRemove)

	// The next d asks again rather than removing.
	m, cmd := press(m, "d")
	assert.Nil(t, cmd)
	assert.NotEmpty(t, m.pendingRemove)
	assert.Empty(t, fx.gw.Mutations())
}

func TestRemove_FailureShowsError(t *testing.T) {
	m, fx := newModel(t)

	// web is running, so removing it without force conflicts.
	_, cmd := press(m, "d", "d")
	done := find[actionDoneMsg](t, collect(cmd))
	require.Error(t, done.err)

	m, _ = update(m, done)
	assert.Equal(t, statusError, m.statusLevel)
	assert.Contains(t, m.Status(), "Couldn't remove container")
	assert.Zero(t, fx.feed.refreshes)
}

func TestLogs(t *testing.T) {
	m, fx := newModel(t)
	fx.gw.SetLogs(fullID("aa"), "GET / 200\nGET /health 200\n")

	m, cmd := press(m, "l")
	msg := find[logsMsg](t, collect(cmd))
	require.NoError(t, msg.err)

	m, _ = update(m, msg)
	assert.Equal(t, ViewLogs, m.viewMode)
	view := m.View()
	assert.Contains(t, view, "logs: web")
	assert.Contains(t, view, "GET /health 200")

	m, _ = press(m, "esc")
	assert.Equal(t, ViewTable, m.viewMode)
}

func TestLogs_Failure(t *testing.T) {
	m, fx := newModel(t)
	fx.gw.SetError(rttesting.MethodContainerLogs, fmt.Errorf("stream closed"))

	m, cmd := press(m, "l")
	m, _ = update(m, find[logsMsg](t, collect(cmd)))
	assert.Equal(t, ViewTable, m.viewMode)
	assert.Contains(t, m.Status(), "Couldn't read logs")
}

func TestLogs_OnlyContainers(t *testing.T) {
	m, _ := newModel(t)
	m, _ = press(m, "4")

	m, cmd := press(m, "l")
	assert.Nil(t, cmd)
	assert.Contains(t, m.Status(), "only available for containers")
}

func TestRefreshKey(t *testing.T) {
	m, fx := newModel(t)
	m, cmd := press(m, "r")
	assert.Nil(t, cmd)
	assert.Equal(t, 1, fx.feed.refreshes)
	assert.Contains(t, m.Status(), "Refreshing containers")
}

func TestHelpOverlay(t *testing.T) {
	m, _ := newModel(t)

	m, _ = press(m, "?")
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	// Other keys are swallowed while help is open.
	m, _ = press(m, "t")
	assert.Equal(t, resource.Container, m.Active())

	m, _ = press(m, "esc")
	assert.NotContains(t, m.View(), "Keyboard Shortcuts")
}

func TestQuit(t *testing.T) {
	for _, k := range []string{"q", "ctrl+c"} {
		t.Run(k, func(t *testing.T) {
			m, _ := newModel(t)
			m, cmd := press(m, k)
			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
			assert.Empty(t, m.View())
		})
	}
}

func TestFeedClosed(t *testing.T) {
	m, fx := newModel(t)
	close(fx.feed.ch)

	msg := waitForUpdate(fx.feed.Updates())()
	assert.IsType(t, feedClosedMsg{}, msg)

	m, _ = update(m, msg)
	assert.Contains(t, m.renderHeader(), "refresh stopped")
}

func TestContainerRow(t *testing.T) {
	m, _ := newModel(t)
	rows := m.rowsFor(resource.Container)
	require.Len(t, rows, 2)

	assert.Equal(t, "10.00", rows[0][colCPU])
	assert.Equal(t, "50.00", rows[0][colMemPct])
	assert.Contains(t, rows[0][colStatus], "running")

	// Stopped containers have no usage.
	assert.Equal(t, unavailable, rows[1][colCPU])
	assert.Equal(t, unavailable, rows[1][colMemMB])
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		rec  resource.Record
		want string
	}{
		{resource.ContainerRecord{ID: "abc", Name: "web"}, "web"},
		{resource.ContainerRecord{ID: "abc"}, "abc"},
		{resource.ImageRecord{ID: "img", Tags: []string{"redis:7"}}, "redis:7"},
		{resource.ImageRecord{ID: "img", Tags: []string{resource.UntaggedTag}}, "img"},
		{resource.VolumeRecord{Name: "pgdata"}, "pgdata"},
		{resource.NetworkRecord{ID: "n1", Name: "bridge"}, "bridge"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, displayName(tt.rec))
	}
}

func TestUpdatedAgo(t *testing.T) {
	m, _ := newModel(t)
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.updatedAt[resource.Container] = at

	m.now = func() time.Time { return at.Add(300 * time.Millisecond) }
	assert.Equal(t, "just now", m.UpdatedAgo())

	m.now = func() time.Time { return at.Add(2 * time.Minute) }
	assert.Equal(t, "2 minutes ago", m.UpdatedAgo())

	m.updatedAt[resource.Container] = time.Time{}
	assert.Equal(t, "never", m.UpdatedAgo())
}
