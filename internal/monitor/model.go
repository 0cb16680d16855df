package monitor

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dockman-dev/dockman/internal/config"
	"github.com/dockman-dev/dockman/internal/driver"
	"github.com/dockman-dev/dockman/internal/engine"
	"github.com/dockman-dev/dockman/internal/errors"
	"github.com/dockman-dev/dockman/internal/resource"
	"github.com/dockman-dev/dockman/internal/ui"
)

// Backend is the part of the engine the dashboard drives directly.
// *engine.Engine satisfies it.
type Backend interface {
	Mutate(ctx context.Context, a engine.Action) error
	Logs(ctx context.Context, id string, tail int) (string, error)
	Cached(kind resource.Kind) ([]resource.Record, time.Time)
}

// Feed is the refresh schedule. *driver.Driver satisfies it.
type Feed interface {
	Updates() <-chan driver.Update
	SetActive(kind resource.Kind)
	Refresh()
}

// ViewMode defines the current display mode of the dashboard.
type ViewMode int

const (
	ViewTable ViewMode = iota
	ViewLogs
)

// Layout rows reserved around the table: header, tab bar (2), status, footer.
const chromeHeight = 6

// ageInterval redraws the header's "updated" age.
const ageInterval = time.Second

// Options carries the settings the dashboard reads from config.
type Options struct {
	Host       string
	Initial    resource.Kind
	LogTail    int
	Thresholds config.ThresholdConfig
}

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	backend Backend
	feed    Feed
	opts    Options

	active    resource.Kind
	tables    [resource.NumKinds]table.Model
	records   [resource.NumKinds][]resource.Record
	updatedAt [resource.NumKinds]time.Time
	fetchErr  [resource.NumKinds]error

	status        string
	statusLevel   statusLevel
	pendingRemove string
	busy          ui.SpinnerComponent

	viewMode  ViewMode
	logView   viewport.Model
	logTitle  string
	showHelp  bool
	width     int
	height    int
	quitting  bool
	updatesOK bool

	now func() time.Time
}

type statusLevel int

const (
	statusInfo statusLevel = iota
	statusError
	statusPrompt
)

// updateMsg carries one driver read into the model.
type updateMsg driver.Update

// feedClosedMsg means the driver stopped.
type feedClosedMsg struct{}

// ageTickMsg redraws the header age.
type ageTickMsg time.Time

// actionDoneMsg reports a finished lifecycle command.
type actionDoneMsg struct {
	action engine.Action
	name   string
	err    error
}

// logsMsg carries fetched container logs.
type logsMsg struct {
	name    string
	content string
	err     error
}

// NewModel creates the dashboard model. Any snapshot the backend already
// holds is shown until the first read arrives.
func NewModel(backend Backend, feed Feed, opts Options) Model {
	if !opts.Initial.Valid() {
		opts.Initial = resource.Container
	}
	if opts.LogTail <= 0 {
		opts.LogTail = config.DefaultConfig().Logs.Tail
	}

	m := Model{
		backend:   backend,
		feed:      feed,
		opts:      opts,
		active:    opts.Initial,
		busy:      ui.NewSpinnerComponent(),
		logView:   viewport.New(0, 0),
		updatesOK: true,
		now:       time.Now,
	}
	for _, k := range resource.Kinds() {
		m.tables[k] = ui.NewTable(ui.ColumnsFor(k), nil, 10, k == m.active)
		if recs, at := backend.Cached(k); !at.IsZero() {
			m.setRecords(k, recs, at)
		}
	}
	return m
}

// Init starts listening for driver updates and the header age timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForUpdate(m.feed.Updates()),
		ageTickCmd(),
	)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if handled {
			return m, cmd
		}
		return m.forward(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case updateMsg:
		m.applyUpdate(driver.Update(msg))
		return m, waitForUpdate(m.feed.Updates())

	case feedClosedMsg:
		m.updatesOK = false

	case ageTickMsg:
		return m, ageTickCmd()

	case actionDoneMsg:
		m.busy.Stop()
		if msg.err != nil {
			m.setStatus(statusError, errors.Summary(msg.err))
			return m, nil
		}
		m.setStatus(statusInfo, ui.SymbolSuccess+" "+doneText(msg.action, msg.name))
		m.feed.Refresh()

	case logsMsg:
		m.busy.Stop()
		if msg.err != nil {
			m.setStatus(statusError, errors.Summary(msg.err))
			return m, nil
		}
		m.openLogs(msg.name, msg.content)

	default:
		var cmd tea.Cmd
		m.busy, cmd = m.busy.Update(msg)
		return m, cmd
	}

	return m, nil
}

// forward passes unhandled keys to the focused component.
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.viewMode == ViewLogs {
		m.logView, cmd = m.logView.Update(msg)
		return m, cmd
	}
	m.tables[m.active], cmd = m.tables[m.active].Update(msg)
	return m, cmd
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	return m.renderDashboard()
}

func waitForUpdate(ch <-chan driver.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return feedClosedMsg{}
		}
		return updateMsg(u)
	}
}

func ageTickCmd() tea.Cmd {
	return tea.Tick(ageInterval, func(t time.Time) tea.Msg {
		return ageTickMsg(t)
	})
}

// applyUpdate stores a read result. A failed read keeps the previous rows
// and shows the error.
func (m *Model) applyUpdate(u driver.Update) {
	if !u.Kind.Valid() {
		return
	}
	if u.Err != nil {
		m.fetchErr[u.Kind] = u.Err
		if u.Kind == m.active {
			m.setStatus(statusError, errors.Summary(u.Err))
		}
		return
	}
	hadErr := m.fetchErr[u.Kind] != nil
	m.fetchErr[u.Kind] = nil
	m.setRecords(u.Kind, u.Records, u.At)
	if hadErr && u.Kind == m.active && m.statusLevel == statusError {
		m.clearStatus()
	}
}

// setRecords replaces a kind's rows and keeps the cursor on the same object
// when it is still present.
func (m *Model) setRecords(kind resource.Kind, recs []resource.Record, at time.Time) {
	prevKey := ""
	if sel, ok := m.selectedIn(kind); ok {
		prevKey = sel.Key()
	}

	m.records[kind] = recs
	m.updatedAt[kind] = at
	t := &m.tables[kind]
	t.SetRows(m.rowsFor(kind))

	cursor := t.Cursor()
	for i, r := range recs {
		if r.Key() == prevKey {
			cursor = i
			break
		}
	}
	if cursor >= len(recs) {
		cursor = len(recs) - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	t.SetCursor(cursor)
}

// rowsFor renders a kind's records, coloring container usage by threshold.
func (m Model) rowsFor(kind resource.Kind) []table.Row {
	rows := make([]table.Row, 0, len(m.records[kind]))
	for _, r := range m.records[kind] {
		row := r.Row()
		if c, ok := r.(resource.ContainerRecord); ok {
			row = m.containerRow(c, row)
		}
		rows = append(rows, table.Row(row))
	}
	return rows
}

// Column indexes of the container usage cells.
const (
	colStatus   = 2
	colCPU      = 4
	colMemMB    = 5
	colMemPct   = 6
	unavailable = "-"
)

func (m Model) containerRow(c resource.ContainerRecord, row []string) []string {
	th := m.opts.Thresholds
	row[colStatus] = ui.StateSymbol(c.Status) + " " + c.Status
	if !c.Running() || c.StatsUnavailable {
		row[colCPU], row[colMemMB], row[colMemPct] = unavailable, unavailable, unavailable
		return row
	}
	row[colCPU] = usageCell(row[colCPU], c.CPUPercent, th.CPU)
	row[colMemPct] = usageCell(row[colMemPct], c.MemoryPercent, th.Memory)
	return row
}

func usageCell(text string, percent float64, th config.ThresholdValues) string {
	return lipgloss.NewStyle().Foreground(MetricColorWithThresholds(percent, th.Warning, th.Critical)).Render(text)
}

func (m Model) selectedIn(kind resource.Kind) (resource.Record, bool) {
	recs := m.records[kind]
	i := m.tables[kind].Cursor()
	if i < 0 || i >= len(recs) {
		return nil, false
	}
	return recs[i], true
}

// Selected returns the record under the cursor on the active tab.
func (m Model) Selected() (resource.Record, bool) {
	return m.selectedIn(m.active)
}

// Active returns the visible tab.
func (m Model) Active() resource.Kind {
	return m.active
}

// Status returns the status line text.
func (m Model) Status() string {
	return m.status
}

// switchTab makes kind the visible tab and asks the driver for it.
func (m *Model) switchTab(kind resource.Kind) {
	if kind == m.active || !kind.Valid() {
		return
	}
	m.tables[m.active].Blur()
	m.tables[m.active].SetStyles(ui.TableStyles(false))
	m.active = kind
	m.tables[kind].Focus()
	m.tables[kind].SetStyles(ui.TableStyles(true))
	m.pendingRemove = ""
	if err := m.fetchErr[kind]; err != nil {
		m.setStatus(statusError, errors.Summary(err))
	} else {
		m.clearStatus()
	}
	m.feed.SetActive(kind)
}

func (m *Model) resize() {
	h := m.height - chromeHeight
	if h < 3 {
		h = 3
	}
	for k := range m.tables {
		m.tables[k].SetHeight(h)
		m.tables[k].SetWidth(m.width)
	}
	m.logView.Width = m.width - 2
	m.logView.Height = h - 1
	if m.logView.Height < 1 {
		m.logView.Height = 1
	}
}

func (m *Model) openLogs(name, content string) {
	m.viewMode = ViewLogs
	m.logTitle = name
	if content == "" {
		content = "(no output)"
	}
	m.logView.SetContent(content)
	m.logView.GotoBottom()
	m.clearStatus()
}

func (m *Model) setStatus(level statusLevel, text string) {
	m.statusLevel = level
	m.status = text
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusLevel = statusInfo
}

// runAction executes a lifecycle command off the UI goroutine.
func (m *Model) runAction(a engine.Action, name string) tea.Cmd {
	backend := m.backend
	spin := m.busy.Start(progressText(a, name))
	return tea.Batch(spin, func() tea.Msg {
		err := backend.Mutate(context.Background(), a)
		return actionDoneMsg{action: a, name: name, err: err}
	})
}

// fetchLogs reads a container's log tail off the UI goroutine.
func (m *Model) fetchLogs(id, name string) tea.Cmd {
	backend := m.backend
	tail := m.opts.LogTail
	spin := m.busy.Start("Reading logs of " + name)
	return tea.Batch(spin, func() tea.Msg {
		out, err := backend.Logs(context.Background(), id, tail)
		return logsMsg{name: name, content: out, err: err}
	})
}
