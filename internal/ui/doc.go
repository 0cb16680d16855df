// Package ui provides terminal UI components for dockman's CLI output.
//
// The package includes a spinner, styled tables, usage coloring, and the
// shared color palette, all built on Lip Gloss so one-shot commands and the
// monitor dashboard look the same.
//
// # Color Scheme
//
// Colors are defined as ANSI codes for broad terminal compatibility:
//
//	ColorSuccess   (green)  - Running containers, successful actions
//	ColorError     (red)    - Failures and critical usage
//	ColorWarning   (yellow) - Warnings and elevated usage
//	ColorInfo      (cyan)   - Informational messages
//	ColorMuted     (gray)   - Secondary text, timestamps
//	ColorSecondary (blue)   - In-progress indicators
//
// ConfigureColor applies the output.color setting ("auto", "always",
// "never"); DisableColors switches to monochrome for --no-color.
//
// # Tables
//
// RenderSimpleTable renders a static table for listing commands:
//
//	fmt.Print(ui.RenderSimpleTable(ui.ColumnsFor(resource.Container), rows))
//
// NewTable returns an interactive Bubbles table for the dashboard.
//
// # Spinner Usage
//
//	s := ui.NewSpinner("Stopping web")
//	s.Start()
//	// ... do work ...
//	s.Success() // or s.Fail()
package ui
