package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/dockman-dev/dockman/internal/resource"
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	if m.showHelp {
		return m.renderHelpOverlay()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	if m.viewMode == ViewLogs {
		b.WriteString(m.renderLogs())
	} else {
		b.WriteString(m.renderTable())
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader shows the endpoint, the visible count and the data age.
func (m Model) renderHeader() string {
	title := TitleStyle.Render("dockman")

	parts := []string{}
	if m.opts.Host != "" {
		parts = append(parts, m.opts.Host)
	}
	parts = append(parts, fmt.Sprintf("%d %s", len(m.records[m.active]), m.active))
	parts = append(parts, "updated "+m.UpdatedAgo())
	if !m.updatesOK {
		parts = append(parts, "refresh stopped")
	}

	stats := lipgloss.NewStyle().
		Foreground(ColorTextSecondary).
		Render(" | " + strings.Join(parts, " | "))

	return HeaderStyle.Render(title + stats)
}

// UpdatedAgo describes the age of the visible tab's data.
func (m Model) UpdatedAgo() string {
	at := m.updatedAt[m.active]
	if at.IsZero() {
		return "never"
	}
	now := m.now()
	if now.Sub(at) < time.Second {
		return "just now"
	}
	return humanize.RelTime(at, now, "ago", "from now")
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, resource.NumKinds)
	for i, k := range resource.Kinds() {
		label := fmt.Sprintf("%d %s", i+1, k.Title())
		if m.fetchErr[k] != nil {
			label += " !"
		}
		if k == m.active {
			tabs = append(tabs, TabActiveStyle.Render(label))
		} else {
			tabs = append(tabs, TabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)
}

func (m Model) renderTable() string {
	if len(m.records[m.active]) == 0 {
		if m.updatedAt[m.active].IsZero() {
			return EmptyStyle.Render("Loading " + m.active.String() + "...")
		}
		return EmptyStyle.Render("No " + m.active.String())
	}
	return m.tables[m.active].View()
}

func (m Model) renderLogs() string {
	title := LogTitleStyle.Render("logs: " + m.logTitle)
	return title + "\n" + LogBoxStyle.Render(m.logView.View())
}

func (m Model) renderStatus() string {
	if v := m.busy.View(); v != "" {
		return StatusPromptStyle.Render(v)
	}
	switch m.statusLevel {
	case statusError:
		return StatusErrorStyle.Render(m.status)
	case statusPrompt:
		return StatusPromptStyle.Render(m.status)
	default:
		return StatusInfoStyle.Render(m.status)
	}
}

// renderFooter renders the keyboard help footer.
func (m Model) renderFooter() string {
	var hints []string
	switch {
	case m.viewMode == ViewLogs:
		hints = []string{"esc back", "↑↓ scroll", "q quit"}
	case m.active == resource.Container:
		hints = []string{"q quit", "t tab", "r refresh", "s start", "x stop", "R restart", "d remove", "l logs", "? help"}
	default:
		hints = []string{"q quit", "t tab", "r refresh", "d remove", "? help"}
	}
	return FooterStyle.Render(strings.Join(hints, " | "))
}
