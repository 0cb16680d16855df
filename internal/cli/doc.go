// Package cli implements the dockman command-line interface.
//
// The package is organized around Cobra commands, with each command
// delegating to a *Command function that opens an engine, does one thing
// and prints the result:
//
//   - Command definitions (cobra.Command instances registered in init)
//   - openEngine, which loads config and connects to Docker
//   - Rendering through internal/ui tables, or JSON with --json
//
// # Command Structure
//
//	dockman                        - Dashboard (same as monitor)
//	dockman monitor                - Dashboard with --view / --interval
//	dockman ps [-a]                - Containers with CPU and memory
//	dockman images|volumes|networks
//	dockman start|stop|restart <container>...
//	dockman rm <kind> <ref>...     - Remove with confirmation
//	dockman logs <container>       - Log tail
//	dockman watch [kind]           - Print every refresh
//	dockman config init|set|show
//	dockman version
//	dockman completion <shell>
//
// # Output Modes
//
// Listings print tables with a summary line. With --json every command
// writes a JSONEnvelope instead, and watch writes one JSON object per
// refresh. Errors in JSON mode keep their dockman error code.
//
// # Exit Status
//
// Execute maps errors to exit codes: 2 when Docker is unreachable, 3 for
// configuration problems and 1 for anything else.
package cli
