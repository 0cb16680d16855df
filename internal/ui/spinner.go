package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// SpinnerState represents the current state of a spinner.
type SpinnerState int

const (
	SpinnerPending SpinnerState = iota
	SpinnerInProgress
	SpinnerSuccess
	SpinnerFailed
)

// Spinner animation frames
var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

// Spinner displays an animated status indicator with a label while a
// lifecycle command runs.
type Spinner struct {
	mu           sync.Mutex
	label        string
	state        SpinnerState
	frame        int
	startTime    time.Time
	stopChan     chan struct{}
	doneChan     chan struct{}
	output       func(string)
	animated     bool
	running      bool
	lastRendered string
}

// NewSpinner creates a new spinner with the given label.
// Output defaults to fmt.Print; use SetOutput to customize.
func NewSpinner(label string) *Spinner {
	return &Spinner{
		label:    label,
		state:    SpinnerPending,
		output:   func(s string) { fmt.Print(s) },
		animated: true,
	}
}

// SetOutput sets the output function for the spinner.
// Useful for testing or redirecting output.
func (s *Spinner) SetOutput(fn func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.output = fn
}

// SetAnimated turns frame animation off for non-interactive output; only
// the final line is printed.
func (s *Spinner) SetAnimated(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.animated = on
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.state = SpinnerInProgress
	s.startTime = time.Now()
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})
	animated := s.animated
	s.mu.Unlock()

	if !animated {
		close(s.doneChan)
		return
	}
	s.render()
	go s.animate()
}

// Stop halts the spinner animation without changing state.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	s.mu.Unlock()

	<-s.doneChan
}

// Success stops the spinner and marks it as successful.
func (s *Spinner) Success() {
	s.finish(SpinnerSuccess)
}

// Fail stops the spinner and marks it as failed.
func (s *Spinner) Fail() {
	s.finish(SpinnerFailed)
}

func (s *Spinner) finish(state SpinnerState) {
	s.Stop()
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.renderFinal()
}

// State returns the current spinner state.
func (s *Spinner) State() SpinnerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Spinner) animate() {
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()
	defer close(s.doneChan)

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.frame = (s.frame + 1) % len(spinnerFrames)
			s.mu.Unlock()
			s.render()
		}
	}
}

func (s *Spinner) render() {
	s.mu.Lock()
	defer s.mu.Unlock()

	style := lipgloss.NewStyle().Foreground(ColorSecondary)
	line := fmt.Sprintf("\r%s %s...", style.Render(spinnerFrames[s.frame]), s.label)

	if s.lastRendered != "" {
		s.output("\r" + strings.Repeat(" ", len([]rune(s.lastRendered))) + "\r")
	}

	s.output(line)
	s.lastRendered = line
}

func (s *Spinner) renderFinal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var symbol string
	var style lipgloss.Style

	switch s.state {
	case SpinnerSuccess:
		symbol = SymbolSuccess
		style = lipgloss.NewStyle().Foreground(ColorSuccess)
	case SpinnerFailed:
		symbol = SymbolFail
		style = lipgloss.NewStyle().Foreground(ColorError)
	default:
		symbol = SymbolPending
		style = lipgloss.NewStyle().Foreground(ColorMuted)
	}

	if s.lastRendered != "" {
		s.output("\r" + strings.Repeat(" ", len([]rune(s.lastRendered))) + "\r")
	}

	timingStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	s.output(fmt.Sprintf("%s %s %s\n",
		style.Render(symbol),
		s.label,
		timingStyle.Render(FormatDuration(time.Since(s.startTime))),
	))
}

// FormatDuration formats a duration for display (e.g., "0.3s", "1.2s").
func FormatDuration(d time.Duration) string {
	secs := d.Seconds()
	if secs < 0.1 {
		return fmt.Sprintf("%.2fs", secs)
	}
	return fmt.Sprintf("%.1fs", secs)
}
