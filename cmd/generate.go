// =============================================================================
// Contribution Statements - Generate Command
// =============================================================================
//
// This file defines the 'generate' command, the main command for turning
// contribution files into PDF statements.
//
// COMMAND USAGE:
//   statements generate --input FILE [flags]
//
// FLAGS:
//   --input, -i      : Contribution file or directory (repeatable)
//   --template, -t   : Report template name
//   --output-dir     : Directory for generated statements
//   --period-start   : First day of the statement period (YYYY-MM-DD)
//   --period-end     : Last day of the statement period (YYYY-MM-DD)
//   --as-of          : Statement date (YYYY-MM-DD)
//   --rows-per-chunk : Rows per individual-listing table (0 = one table)
//   --orientation    : portrait or landscape
//   --per-donor      : One statement per donor name
//   --drop-log       : Write a log of dropped rows
//   --dry-run        : Clean and lay out without writing files
//
// Flags override the configuration file, which overrides built-in defaults.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ginjaninja78/contribution-statements/internal/config"
	"github.com/ginjaninja78/contribution-statements/internal/converter"
	"github.com/spf13/cobra"
)

// supportedExtensions are the source formats picked up from directories.
var supportedExtensions = map[string]bool{
	".csv":  true,
	".tsv":  true,
	".txt":  true,
	".json": true,
	".xlsx": true,
	".xlsm": true,
}

// generateFlags holds the flag values of the generate command.
type generateFlags struct {
	inputs       []string
	template     string
	outputDir    string
	periodStart  string
	periodEnd    string
	asOf         string
	rowsPerChunk int
	orientation  string
	perDonor     bool
	dropLog      bool
	dryRun       bool
}

var genFlags generateFlags

// generateCmd represents the 'generate' command.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate PDF contribution statements",
	Long: `The generate command reads each contribution file, drops rows with an
invalid amount, date or purpose, totals the rest per purpose/fund, and writes
a PDF statement to the output directory.

With --per-donor (or a per_donor template) one statement is written per
donor name. Contributions with an empty Name belong to no donor and are left
out of per-donor statements; a warning gives their count. Use
--per-donor=false to include them in a single statement.

Files are processed one after the other. A file that cannot be read fails on
its own; the remaining files are still processed and the command exits with
an error at the end.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	f := generateCmd.Flags()
	f.StringSliceVarP(&genFlags.inputs, "input", "i", nil, "Contribution file or directory (repeatable)")
	f.StringVarP(&genFlags.template, "template", "t", "", "Report template name (see 'statements templates')")
	f.StringVar(&genFlags.outputDir, "output-dir", "", "Directory for generated statements")
	f.StringVar(&genFlags.periodStart, "period-start", "", "First day of the statement period (YYYY-MM-DD)")
	f.StringVar(&genFlags.periodEnd, "period-end", "", "Last day of the statement period (YYYY-MM-DD)")
	f.StringVar(&genFlags.asOf, "as-of", "", "Statement date (YYYY-MM-DD)")
	f.IntVar(&genFlags.rowsPerChunk, "rows-per-chunk", 0, "Rows per individual-listing table, 0 for one table")
	f.StringVar(&genFlags.orientation, "orientation", "", "Page orientation: portrait or landscape")
	f.BoolVar(&genFlags.perDonor, "per-donor", false, "Write one statement per donor name, skipping unnamed contributions")
	f.BoolVar(&genFlags.dropLog, "drop-log", false, "Write a log of dropped rows to the output directory")
	f.BoolVar(&genFlags.dryRun, "dry-run", false, "Clean and lay out statements without writing files")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runGenerate(cmd *cobra.Command, args []string) error {
	startTime := time.Now()
	out := cmd.OutOrStdout()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	mainConfig, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	tpl, err := applyGenerateFlags(cmd, mainConfig, genFlags)
	if err != nil {
		return err
	}
	if _, err := mainConfig.ResolvePeriod(startTime); err != nil {
		return err
	}

	logger := newLogger(mainConfig)

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	inputs := append(append([]string{}, genFlags.inputs...), args...)
	if len(inputs) == 0 {
		return fmt.Errorf("no input given, use --input FILE")
	}

	files, err := expandInputs(inputs)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No contribution files found.")
		return nil
	}

	// =========================================================================
	// STEP 3: PROCESS FILES
	// =========================================================================

	var failed []string
	var documents int
	for _, file := range files {
		result := converter.New(file, mainConfig, tpl, converter.Options{DryRun: genFlags.dryRun}, logger).Run()

		if !result.Success {
			failed = append(failed, filepath.Base(file))
			fmt.Fprintf(out, "  ✗ %s: %v\n", filepath.Base(file), result.Error)
			continue
		}

		documents += result.Stats.Documents
		fmt.Fprintf(out, "  ✓ %s: %d kept, %d dropped, total $%s\n",
			filepath.Base(file), result.Stats.RowsKept, result.Stats.RowsDropped,
			result.Stats.GrandTotal.StringFixed(2))
		for _, path := range result.OutputFiles {
			fmt.Fprintf(out, "      -> %s\n", path)
		}
		if result.DropLogFile != "" {
			fmt.Fprintf(out, "      -> %s\n", result.DropLogFile)
		}
	}

	// =========================================================================
	// STEP 4: PRINT SUMMARY
	// =========================================================================

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Files:      %d\n", len(files))
	fmt.Fprintf(out, "Statements: %d", documents)
	if genFlags.dryRun {
		fmt.Fprint(out, " (dry run, nothing written)")
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Elapsed:    %s\n", time.Since(startTime).Round(time.Millisecond))

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d files failed: %s", len(failed), len(files), strings.Join(failed, ", "))
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// applyGenerateFlags copies explicitly set flags over the configuration and
// returns the resolved, validated report template.
func applyGenerateFlags(cmd *cobra.Command, mainConfig *config.MainConfig, flags generateFlags) (config.ReportTemplate, error) {
	changed := cmd.Flags().Changed

	if changed("template") {
		mainConfig.Template = flags.template
	}
	if changed("output-dir") {
		mainConfig.OutputDir = flags.outputDir
	}
	if changed("period-start") {
		mainConfig.PeriodStart = flags.periodStart
	}
	if changed("period-end") {
		mainConfig.PeriodEnd = flags.periodEnd
	}
	if changed("as-of") {
		mainConfig.AsOf = flags.asOf
	}
	if changed("drop-log") {
		mainConfig.WriteDropLog = flags.dropLog
	}

	tpl, err := mainConfig.ReportTemplate(mainConfig.Template)
	if err != nil {
		return config.ReportTemplate{}, err
	}

	if changed("rows-per-chunk") {
		tpl.RowsPerChunk = flags.rowsPerChunk
	}
	if changed("orientation") {
		tpl.Orientation = strings.ToLower(flags.orientation)
	}
	if changed("per-donor") {
		tpl.PerDonor = flags.perDonor
	}

	if err := config.ValidateTemplate(tpl); err != nil {
		return config.ReportTemplate{}, fmt.Errorf("template %q: %w", tpl.Name, err)
	}
	return tpl, nil
}

// expandInputs replaces each directory with the supported files it contains,
// sorted by name. Files are passed through as given.
func expandInputs(inputs []string) ([]string, error) {
	var files []string

	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil || !info.IsDir() {
			// Missing files are reported by the converter, per file.
			files = append(files, input)
			continue
		}

		var found []string
		err = filepath.WalkDir(input, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if supportedExtensions[strings.ToLower(filepath.Ext(path))] {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", input, err)
		}

		sort.Strings(found)
		files = append(files, found...)
	}

	return files, nil
}
