// Package monitor implements the interactive dockman dashboard.
//
// The dashboard shows containers, images, volumes and networks on four
// tabs, each a Bubbles table. It never talks to Docker on the UI goroutine:
// reads arrive from a driver.Driver as updateMsg values, and lifecycle
// commands and log reads run as tea.Cmd functions whose results come back
// as messages.
//
// # Architecture
//
// The package uses the Bubble Tea framework, which follows The Elm Architecture
// (Model-Update-View pattern):
//
//   - Model: Holds the records per tab, cursor, status line and overlays
//   - Update: Processes keystrokes, driver updates and command results
//   - View: Renders the current state to a string for display
//
// # Message Flow
//
//  1. The driver reads the active tab on its interval and on SetActive/Refresh
//  2. waitForUpdate delivers each result as updateMsg and re-arms itself
//  3. A failed read keeps the previous rows and shows the error on the status line
//  4. After a successful action the tab is refreshed through the driver
//
// # Keyboard Shortcuts
//
//	q, Ctrl+C   - Quit
//	t, Tab      - Next tab
//	1-4         - Jump to tab
//	r           - Refresh now
//	s / x / R   - Start / stop / restart container
//	d           - Remove (press twice)
//	l           - Container logs
//	?           - Toggle help overlay
//	Esc         - Close overlay, cancel remove
package monitor
