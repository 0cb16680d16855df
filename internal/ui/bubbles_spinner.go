package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SpinnerFrames defines the animation frames (◐ ◓ ◑ ◒) for Bubble Tea programs.
var SpinnerFrames = spinner.Spinner{
	Frames: []string{"◐", "◓", "◑", "◒"},
	FPS:    time.Second / 10,
}

// SpinnerComponent is a Bubble Tea model for embedding a busy indicator in
// the dashboard. It only animates while Active.
type SpinnerComponent struct {
	spinner spinner.Model
	Label   string
	Active  bool
}

// NewSpinnerComponent creates an idle spinner component.
func NewSpinnerComponent() SpinnerComponent {
	sp := spinner.New()
	sp.Spinner = SpinnerFrames
	sp.Style = lipgloss.NewStyle().Foreground(ColorSecondary)
	return SpinnerComponent{spinner: sp}
}

// Start shows the spinner with a label and returns its tick command.
func (s *SpinnerComponent) Start(label string) tea.Cmd {
	wasActive := s.Active
	s.Active = true
	s.Label = label
	if wasActive {
		return nil
	}
	return s.spinner.Tick
}

// Stop hides the spinner.
func (s *SpinnerComponent) Stop() {
	s.Active = false
	s.Label = ""
}

// Update advances the animation while active.
func (s SpinnerComponent) Update(msg tea.Msg) (SpinnerComponent, tea.Cmd) {
	if !s.Active {
		return s, nil
	}
	if tickMsg, ok := msg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(tickMsg)
		return s, cmd
	}
	return s, nil
}

// View renders the spinner and label, or nothing when idle.
func (s SpinnerComponent) View() string {
	if !s.Active {
		return ""
	}
	if s.Label == "" {
		return s.spinner.View()
	}
	return s.spinner.View() + " " + s.Label
}
