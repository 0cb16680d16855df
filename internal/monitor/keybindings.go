package monitor

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dockman-dev/dockman/internal/engine"
	"github.com/dockman-dev/dockman/internal/resource"
)

// Key bindings as constants for consistency.
const (
	KeyQuit       = "q"
	KeyQuitAlt    = "ctrl+c"
	KeyNextTab    = "t"
	KeyNextTabAlt = "tab"
	KeyRefresh    = "r"
	KeyStart      = "s"
	KeyStop       = "x"
	KeyRestart    = "R"
	KeyRemove     = "d"
	KeyLogs       = "l"
	KeyToggleHelp = "?"
	KeyClose      = "esc"
)

// tabKeys jump straight to a tab.
var tabKeys = map[string]resource.Kind{
	"1": resource.Container,
	"2": resource.Image,
	"3": resource.Volume,
	"4": resource.Network,
}

// HandleKeyMsg processes keyboard input and returns updated model state and command.
// Returns true if the key was handled, false otherwise.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	if key == KeyQuitAlt || key == KeyQuit {
		m.quitting = true
		return true, tea.Quit
	}

	// Help toggle takes priority
	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp {
		if key == KeyClose {
			m.showHelp = false
		}
		return true, nil
	}

	if m.viewMode == ViewLogs {
		if key == KeyClose {
			m.viewMode = ViewTable
			return true, nil
		}
		return false, nil
	}

	// A pending remove is confirmed only by pressing d again.
	if m.pendingRemove != "" && key != KeyRemove {
		m.pendingRemove = ""
		m.clearStatus()
		if key == KeyClose {
			return true, nil
		}
	}

	if kind, ok := tabKeys[key]; ok {
		m.switchTab(kind)
		return true, nil
	}

	switch key {
	case KeyNextTab, KeyNextTabAlt:
		m.switchTab(m.active.Next())
		return true, nil

	case KeyRefresh:
		m.setStatus(statusInfo, "Refreshing "+m.active.String()+"...")
		m.feed.Refresh()
		return true, nil

	case KeyStart:
		return true, m.lifecycle(engine.OpStart)

	case KeyStop:
		return true, m.lifecycle(engine.OpStop)

	case KeyRestart:
		return true, m.lifecycle(engine.OpRestart)

	case KeyRemove:
		return true, m.remove()

	case KeyLogs:
		return true, m.logs()

	case KeyClose:
		m.clearStatus()
		return true, nil
	}

	return false, nil
}

// lifecycle starts, stops or restarts the selected container.
func (m *Model) lifecycle(op engine.Op) tea.Cmd {
	rec, ok := m.Selected()
	if !ok {
		m.setStatus(statusError, fmt.Sprintf("No %s selected", m.active.Singular()))
		return nil
	}
	a := engine.Action{Kind: m.active, ID: rec.Key(), Op: op}
	if !a.Supported() {
		m.setStatus(statusError, fmt.Sprintf("Can't %s %s; only containers have a lifecycle", op, m.active))
		return nil
	}
	return m.runAction(a, displayName(rec))
}

// remove asks for confirmation on the first press and removes on the second.
func (m *Model) remove() tea.Cmd {
	rec, ok := m.Selected()
	if !ok {
		m.setStatus(statusError, fmt.Sprintf("No %s selected", m.active.Singular()))
		return nil
	}
	a := engine.Action{Kind: m.active, ID: rec.Key(), Op: engine.OpRemove}
	name := displayName(rec)

	if m.pendingRemove != rec.Key() {
		m.pendingRemove = rec.Key()
		m.setStatus(statusPrompt, fmt.Sprintf("Press d again to %s (esc to cancel)", a.Describe(name)))
		return nil
	}
	m.pendingRemove = ""
	return m.runAction(a, name)
}

// logs opens the log viewer for the selected container.
func (m *Model) logs() tea.Cmd {
	if m.active != resource.Container {
		m.setStatus(statusError, "Logs are only available for containers")
		return nil
	}
	rec, ok := m.Selected()
	if !ok {
		m.setStatus(statusError, "No container selected")
		return nil
	}
	return m.fetchLogs(rec.Key(), displayName(rec))
}

// displayName is how status lines refer to a record.
func displayName(r resource.Record) string {
	switch v := r.(type) {
	case resource.ContainerRecord:
		if v.Name != "" {
			return v.Name
		}
		return v.ID
	case resource.ImageRecord:
		if tag := resource.PrimaryTag(v.Tags); tag != resource.UnknownImage && tag != resource.UntaggedTag {
			return tag
		}
		return v.ID
	case resource.VolumeRecord:
		return v.Name
	case resource.NetworkRecord:
		return v.Name
	}
	return resource.ShortID(r.Key())
}

func progressText(a engine.Action, name string) string {
	verbs := map[engine.Op]string{
		engine.OpStart:   "Starting",
		engine.OpStop:    "Stopping",
		engine.OpRestart: "Restarting",
		engine.OpRemove:  "Removing",
	}
	return fmt.Sprintf("%s %s %s", verbs[a.Op], a.Kind.Singular(), name)
}

func doneText(a engine.Action, name string) string {
	verbs := map[engine.Op]string{
		engine.OpStart:   "Started",
		engine.OpStop:    "Stopped",
		engine.OpRestart: "Restarted",
		engine.OpRemove:  "Removed",
	}
	return fmt.Sprintf("%s %s %s", verbs[a.Op], a.Kind.Singular(), name)
}
