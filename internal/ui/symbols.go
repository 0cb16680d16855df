package ui

import "github.com/charmbracelet/lipgloss"

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Action succeeded
	SymbolFail     = "✗" // Action failed
	SymbolPending  = "○" // Stopped / not started
	SymbolProgress = "◐" // Transitional state
	SymbolComplete = "●" // Running
	SymbolWarning  = "!" // Degraded data
)

// StateSymbol returns a colored marker for a container state.
func StateSymbol(state string) string {
	switch state {
	case "running":
		return lipgloss.NewStyle().Foreground(ColorSuccess).Render(SymbolComplete)
	case "restarting", "paused", "created", "removing":
		return lipgloss.NewStyle().Foreground(ColorWarning).Render(SymbolProgress)
	case "dead":
		return lipgloss.NewStyle().Foreground(ColorError).Render(SymbolFail)
	default:
		return lipgloss.NewStyle().Foreground(ColorMuted).Render(SymbolPending)
	}
}
