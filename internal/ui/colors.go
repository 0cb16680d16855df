package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Semantic colors for status indication
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

// DisableColors switches all lipgloss rendering to plain text.
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// ConfigureColor applies an output.color mode. "auto" keeps color only when
// out is a terminal and NO_COLOR is unset.
func ConfigureColor(mode string, out io.Writer) {
	switch mode {
	case "never":
		DisableColors()
	case "always":
		lipgloss.SetColorProfile(termenv.ANSI256)
	default:
		if os.Getenv("NO_COLOR") != "" || !IsTerminal(out) {
			DisableColors()
		}
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// ThresholdColor picks green, yellow or red for a usage percentage.
// A zero threshold disables that level.
func ThresholdColor(percent float64, warning, critical int) lipgloss.Color {
	switch {
	case critical > 0 && percent >= float64(critical):
		return ColorError
	case warning > 0 && percent >= float64(warning):
		return ColorWarning
	default:
		return ColorSuccess
	}
}

// RenderUsage colors a formatted usage value by its percentage.
func RenderUsage(text string, percent float64, warning, critical int) string {
	return lipgloss.NewStyle().Foreground(ThresholdColor(percent, warning, critical)).Render(text)
}
