// =============================================================================
// Contribution Statements - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It runs the cleaning pipeline on
// a contribution file and reports what a statement would contain, without
// writing anything.
//
// COMMAND USAGE:
//   statements validate --input FILE
//
// OUTPUT:
//   Rows read, kept and dropped; synthesized columns; totals per
//   purpose/fund; and every dropped row with its reason.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/ginjaninja78/contribution-statements/internal/pipeline"
	"github.com/ginjaninja78/contribution-statements/internal/types"
	"github.com/spf13/cobra"
)

var validateInput string

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Clean a contribution file and report the result",
	Long: `The validate command reads a contribution file, applies the same cleaning
rules as 'generate', and prints the totals and every dropped row. Use it to
check an export before producing statements.

The command fails when the file cannot be read, or when max_dropped_ratio is
set and exceeded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input := validateInput
		if input == "" && len(args) == 1 {
			input = args[0]
		}
		if input == "" {
			return fmt.Errorf("no input given, use --input FILE")
		}

		mainConfig, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(mainConfig)

		result, err := pipeline.LoadAndClean(input, mainConfig.Source, pipeline.Options{
			FallbackName: mainConfig.FallbackName,
			Logger:       logger,
		})
		if err != nil {
			return err
		}

		printValidation(cmd.OutOrStdout(), input, result)

		return result.CheckDropRatio(mainConfig.MaxDroppedRatio)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&validateInput, "input", "i", "", "Contribution file to validate")
}

// printValidation writes the validation report.
func printValidation(out io.Writer, input string, result *pipeline.Result) {
	fmt.Fprintf(out, "=== %s ===\n", input)
	fmt.Fprintf(out, "Rows read:     %d\n", result.SourceRows)
	fmt.Fprintf(out, "Rows kept:     %d\n", len(result.Records))
	fmt.Fprintf(out, "Rows dropped:  %d\n", len(result.Dropped))
	fmt.Fprintf(out, "Display name:  %s\n", result.DisplayName)

	if len(result.MissingColumns) > 0 {
		fmt.Fprintln(out, "\nMissing columns (added as empty):")
		for _, column := range result.MissingColumns {
			fmt.Fprintf(out, "  - %s\n", column)
		}
	}

	fmt.Fprintln(out, "\nTotals by Purpose/Fund:")
	for _, ct := range result.Totals {
		fmt.Fprintf(out, "  %-30s $%s\n", ct.Reason, ct.Total.StringFixed(2))
	}
	fmt.Fprintf(out, "  %-30s $%s\n", "Total", result.GrandTotal.StringFixed(2))

	if len(result.Dropped) == 0 {
		return
	}

	counts := result.DropCounts()
	reasons := make([]string, 0, len(counts))
	for reason := range counts {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)

	fmt.Fprintln(out, "\nDropped rows by reason:")
	for _, reason := range reasons {
		fmt.Fprintf(out, "  %-20s %d\n", reason, counts[types.DropReason(reason)])
	}

	fmt.Fprintln(out, "\nDropped rows:")
	for _, d := range result.Dropped {
		fmt.Fprintf(out, "  row %-5d %-20s %s=%q\n", d.Row, d.Reason, d.Field, d.Value)
	}
}
