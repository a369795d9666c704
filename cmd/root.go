// =============================================================================
// Contribution Statements - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (statements)
//   ├── generateCmd  (statements generate)
//   ├── validateCmd  (statements validate)
//   ├── templatesCmd (statements templates)
//   └── versionCmd   (statements version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the configuration for subcommands
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ginjaninja78/contribution-statements/internal/config"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "statements",
	Short: "Contribution Statements - Turn donation exports into PDF statements",
	Long: `Contribution Statements reads a contribution export (CSV, JSON or XLSX),
cleans and totals it, and writes a paginated PDF contribution statement.

Key Features:
  - Amount, date and purpose validation with a report of every dropped row
  - Per-fund totals and a grand total computed with exact decimals
  - Report templates for page size, orientation, columns and chunking
  - One combined statement, or one statement per donor

Example Usage:
  statements generate --input gifts.csv                 # Default template
  statements generate --input gifts.xlsx -t individual  # One PDF per donor
  statements validate --input gifts.csv                 # Report without writing
  statements templates                                  # List report templates`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig loads the main configuration. A missing config.yaml at the
// default path is not an error; an explicitly given path must exist.
func loadConfig(cmd *cobra.Command) (*config.MainConfig, error) {
	mainConfig, err := config.LoadMainConfig(cfgFile)
	if err == nil {
		return mainConfig, nil
	}

	if errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config") {
		return config.Default(), nil
	}

	return nil, fmt.Errorf("failed to load main config: %w", err)
}

// newLogger builds the run logger. Every entry carries a run id so the
// lines of one invocation can be told apart in shared logs.
func newLogger(mainConfig *config.MainConfig) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(strings.ToLower(mainConfig.LogLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	if verbose {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	return logger.WithField("run", uuid.New().String())
}
