package monitor

import (
	"github.com/charmbracelet/lipgloss"
)

// Dashboard color palette
const (
	ColorDarkBg    = lipgloss.Color("#0A0A0F") // Deep void
	ColorSurfaceBg = lipgloss.Color("#12121A") // Dark surface
	ColorBorder    = lipgloss.Color("#2A2A4A") // Glass border (purple tint)

	ColorHealthy  = lipgloss.Color("#39FF14") // Neon green
	ColorWarning  = lipgloss.Color("#FFAA00") // Electric amber
	ColorCritical = lipgloss.Color("#FF0055") // Hot red-pink

	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0") // Lavender gray
	ColorTextMuted     = lipgloss.Color("#6B6B8D") // Purple-gray

	ColorAccent    = lipgloss.Color("#FF2E97") // Neon pink
	ColorAccentDim = lipgloss.Color("#BF40FF") // Neon purple
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	TabStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 2)

	TabActiveStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true).
			Padding(0, 2).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(ColorAccent)

	TabBarStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(ColorBorder)

	StatusInfoStyle = lipgloss.NewStyle().
			Foreground(ColorHealthy).
			Padding(0, 1)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(ColorCritical).
				Padding(0, 1)

	StatusPromptStyle = lipgloss.NewStyle().
				Foreground(ColorWarning).
				Bold(true).
				Padding(0, 1)

	LogTitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccentDim).
			Bold(true).
			Padding(0, 1)

	LogBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	EmptyStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true).
			Padding(1, 2)
)

// MetricColorWithThresholds returns the appropriate color for a percentage-based metric
// using the provided warning and critical threshold values. A zero threshold
// disables that level.
func MetricColorWithThresholds(percent float64, warning, critical int) lipgloss.Color {
	switch {
	case critical > 0 && percent >= float64(critical):
		return ColorCritical
	case warning > 0 && percent >= float64(warning):
		return ColorWarning
	default:
		return ColorHealthy
	}
}
