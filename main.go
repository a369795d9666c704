// =============================================================================
// Contribution Statements - Main Entry Point
// =============================================================================
//
// This is the main entry point for the statements CLI application. It
// delegates command execution to the cmd package.
//
// USAGE:
//   statements generate     - Write PDF statements from a contribution file
//   statements validate     - Clean a contribution file and report the result
//   statements templates    - List the available report templates
//   statements version      - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core logic (sources, cleaning, layout, PDF rendering)
//   - pkg/           : Shared file utilities
//   - templates/     : Example report template files
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/contribution-statements/cmd"
)

func main() {
	cmd.Execute()
}
