// =============================================================================
// Contribution Statements - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   statements version [--short]
//
// OUTPUT:
//   Contribution Statements
//   Version:    1.0.0
//   Build Date: 2025-03-23
//   Go Version: go1.24.11
//   Sources:    .csv .json .tsv .txt .xlsm .xlsx
//   Templates:  detailed, individual, summary
//
// With --short only the version number is printed, for release scripts.
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/ginjaninja78/contribution-statements/internal/config"
	"github.com/spf13/cobra"
)

// These variables are set at build time using ldflags:
//
//	go build -ldflags "-X 'github.com/ginjaninja78/contribution-statements/cmd.Version=1.1.0'"

// Version is the application version.
var Version = "1.0.0"

// BuildDate is the date the application was built.
var BuildDate = "unknown"

var versionShort bool

// versionCmd represents the 'version' command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Long: `Display the application version and build details, the source formats
'generate' accepts and the built-in report templates.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if versionShort {
			fmt.Fprintln(out, Version)
			return
		}

		extensions := make([]string, 0, len(supportedExtensions))
		for ext := range supportedExtensions {
			extensions = append(extensions, ext)
		}
		sort.Strings(extensions)

		fmt.Fprintln(out, "Contribution Statements")
		fmt.Fprintf(out, "Version:    %s\n", Version)
		fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
		fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
		fmt.Fprintf(out, "Sources:    %s\n", strings.Join(extensions, " "))
		fmt.Fprintf(out, "Templates:  %s\n", strings.Join(config.Default().TemplateNames(), ", "))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
}
