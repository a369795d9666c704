// =============================================================================
// Contribution Statements - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration. It
// handles both the main application configuration and the report templates
// that describe each statement layout.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): Global settings, statement period, inline templates
//   2. Template Files (templates_dir/*.yaml): One report template per file
//
// TEMPLATES:
//   Every statement layout is a point in the same configuration space:
//   orientation, page size, column widths (fixed or proportional), rows per
//   chunk, whether contact columns are shown, and whether one document is
//   produced per donor. Built-in templates cover the common layouts; inline
//   and file templates override them by name.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// ERRORS AND CONSTANTS
// =============================================================================

// ErrUnknownTemplate is returned when a template name cannot be resolved.
var ErrUnknownTemplate = errors.New("unknown report template")

// DateLayout is the layout of every date written in configuration or flags.
const DateLayout = "2006-01-02"

// Column counts of the tables a template must provide widths for.
const (
	DetailedColumnCount = 8 // Date, Name, Address, Email, Phone, Purpose/Fund, Amount, Total
	BasicColumnCount    = 3 // Date, Purpose/Fund, Amount
	SummaryColumnCount  = 2 // Purpose/Fund, Total Amount
)

const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputDir is the directory where generated statements are written.
	// Default: "./statements"
	OutputDir string `yaml:"output_dir"`

	// OutputNameFormat defines the file name of a combined statement.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {date}      - Current date (YYYYMMDD)
	//   {time}      - Current time (HHMMSS)
	//   {name}      - Sanitized display name
	//   {template}  - Report template name
	// Default: "Contribution_Statement_{date}.pdf"
	OutputNameFormat string `yaml:"output_name_format"`

	// DonorNameFormat defines the file name of each per-donor statement.
	// Default: "{name}_Contribution_Report.pdf"
	DonorNameFormat string `yaml:"donor_name_format"`

	// WriteDropLog writes a text log of every dropped row next to the output.
	WriteDropLog bool `yaml:"write_drop_log"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// STATEMENT SETTINGS
	// =========================================================================

	// Template is the name of the report template used by default.
	// Default: "detailed"
	Template string `yaml:"template"`

	// TemplatesDir is an optional directory of template YAML files.
	TemplatesDir string `yaml:"templates_dir"`

	// PeriodStart and PeriodEnd bound the statement period (YYYY-MM-DD).
	// Default: the calendar year before AsOf.
	PeriodStart string `yaml:"period_start"`
	PeriodEnd   string `yaml:"period_end"`

	// AsOf is the statement date (YYYY-MM-DD). Default: today.
	AsOf string `yaml:"as_of"`

	// FallbackName is shown when no cleaned record carries a name.
	// Default: "First and Last Name"
	FallbackName string `yaml:"fallback_name"`

	// MaxDroppedRatio fails the run when more than this fraction of source
	// rows is dropped during cleaning. 0 disables the check.
	MaxDroppedRatio float64 `yaml:"max_dropped_ratio"`

	// =========================================================================
	// SOURCE SETTINGS
	// =========================================================================

	Source SourceSettings `yaml:",inline"`

	// Templates are inline report templates. They override built-ins by name.
	Templates []ReportTemplate `yaml:"templates"`

	// resolved holds built-in, inline and file templates after loading.
	resolved map[string]ReportTemplate
}

// SourceSettings contains settings for reading contribution files.
type SourceSettings struct {
	// CSV contains settings for delimited text sources.
	CSV CSVSettings `yaml:"csv_settings"`

	// XLSXSheet selects the worksheet of an XLSX source.
	// Default: the first sheet.
	XLSXSheet string `yaml:"xlsx_sheet"`
}

// CSVSettings contains settings for parsing CSV files.
type CSVSettings struct {
	// Delimiter is the character used to separate fields in the CSV.
	// Common values: "," (comma), "|" or "pipe", "\t" or "tab", ";"
	// Default: ","
	Delimiter string `yaml:"delimiter"`
}

// =============================================================================
// REPORT TEMPLATE STRUCTURE
// =============================================================================

// ReportTemplate describes one statement layout.
type ReportTemplate struct {
	// Name identifies the template on the command line and in config.
	Name string `yaml:"name"`

	// Orientation is "portrait" or "landscape". Default: "portrait"
	Orientation string `yaml:"orientation"`

	// PageSize is "letter", "a4" or "legal". Default: "letter"
	PageSize string `yaml:"page_size"`

	// Margin is the page margin in points on every side. Default: 50
	Margin float64 `yaml:"margin"`

	// RowsPerChunk splits the individual listing into tables of at most this
	// many rows, each with its own header row. 0 renders a single table.
	RowsPerChunk int `yaml:"rows_per_chunk"`

	// IncludeContactColumns adds name, address, email, phone and a per-row
	// total to the individual listing.
	IncludeContactColumns bool `yaml:"include_contact_columns"`

	// PerDonor writes one statement per distinct donor name.
	PerDonor bool `yaml:"per_donor"`

	// ColumnWidths are fixed point widths of the individual listing.
	// ColumnFractions are fractions of the usable page width instead.
	// Exactly one of the two may be set.
	ColumnWidths    []float64 `yaml:"column_widths,omitempty"`
	ColumnFractions []float64 `yaml:"column_fractions,omitempty"`

	// SummaryWidths and SummaryFractions size the per-fund totals table.
	SummaryWidths    []float64 `yaml:"summary_widths,omitempty"`
	SummaryFractions []float64 `yaml:"summary_fractions,omitempty"`
}

// ListingColumnCount returns the number of columns of the individual listing.
func (t ReportTemplate) ListingColumnCount() int {
	if t.IncludeContactColumns {
		return DetailedColumnCount
	}
	return BasicColumnCount
}

// Landscape reports whether pages are laid out landscape.
func (t ReportTemplate) Landscape() bool {
	return t.Orientation == OrientationLandscape
}

// =============================================================================
// BUILT-IN TEMPLATES
// =============================================================================

// BuiltinTemplates returns the layouts available without any configuration.
//
//   - summary:    portrait, date/fund/amount listing, fixed widths, one table
//   - detailed:   landscape, full contact columns, proportional widths, chunks of 20
//   - individual: like detailed, one statement per donor
func BuiltinTemplates() []ReportTemplate {
	detailedFractions := []float64{0.10, 0.15, 0.25, 0.20, 0.10, 0.10, 0.05, 0.05}

	return []ReportTemplate{
		{
			Name:          "summary",
			Orientation:   OrientationPortrait,
			PageSize:      "letter",
			Margin:        50,
			ColumnWidths:  []float64{100, 300, 100},
			SummaryWidths: []float64{300, 100},
		},
		{
			Name:                  "detailed",
			Orientation:           OrientationLandscape,
			PageSize:              "letter",
			Margin:                50,
			RowsPerChunk:          20,
			IncludeContactColumns: true,
			ColumnFractions:       detailedFractions,
			SummaryFractions:      []float64{0.7, 0.3},
		},
		{
			Name:                  "individual",
			Orientation:           OrientationLandscape,
			PageSize:              "letter",
			Margin:                50,
			RowsPerChunk:          20,
			IncludeContactColumns: true,
			PerDonor:              true,
			ColumnFractions:       detailedFractions,
			SummaryFractions:      []float64{0.7, 0.3},
		},
	}
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied and the
// built-in templates resolved.
func Default() *MainConfig {
	config := &MainConfig{}
	applyMainConfigDefaults(config)
	config.resolveTemplates(nil)
	return config
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read or parsed, or fails validation.
//     A missing file is reported with an error wrapping os.ErrNotExist.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	var fileTemplates []ReportTemplate
	if config.TemplatesDir != "" {
		fileTemplates, err = LoadTemplates(config.TemplatesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load templates: %w", err)
		}
	}
	config.resolveTemplates(fileTemplates)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.OutputDir == "" {
		config.OutputDir = "./statements"
	}
	if config.OutputNameFormat == "" {
		config.OutputNameFormat = "Contribution_Statement_{date}.pdf"
	}
	if config.DonorNameFormat == "" {
		config.DonorNameFormat = "{name}_Contribution_Report.pdf"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.Template == "" {
		config.Template = "detailed"
	}
	if config.FallbackName == "" {
		config.FallbackName = "First and Last Name"
	}
	if config.Source.CSV.Delimiter == "" {
		config.Source.CSV.Delimiter = ","
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log_level %q is not one of debug, info, warn, error", config.LogLevel)
	}

	if config.MaxDroppedRatio < 0 || config.MaxDroppedRatio > 1 {
		return fmt.Errorf("max_dropped_ratio must be between 0 and 1, got %v", config.MaxDroppedRatio)
	}

	for field, value := range map[string]string{
		"period_start": config.PeriodStart,
		"period_end":   config.PeriodEnd,
		"as_of":        config.AsOf,
	} {
		if value == "" {
			continue
		}
		if _, err := ParseDate(value); err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
	}

	if _, err := config.ReportTemplate(config.Template); err != nil {
		return err
	}

	for _, name := range config.TemplateNames() {
		if err := ValidateTemplate(config.resolved[name]); err != nil {
			return fmt.Errorf("template %q: %w", name, err)
		}
	}

	return nil
}

// LoadTemplates loads every report template file from a directory.
//
// PARAMETERS:
//   - templatesDir: The directory containing *.yaml or *.yml template files.
//
// RETURNS:
//   - The templates in file name order. A template without a name is named
//     after its file.
//   - An error if the directory cannot be read or any file cannot be parsed.
func LoadTemplates(templatesDir string) ([]ReportTemplate, error) {
	files, err := filepath.Glob(filepath.Join(templatesDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list template files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(templatesDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list template files: %w", err)
	}
	files = append(files, ymlFiles...)
	sort.Strings(files)

	templates := make([]ReportTemplate, 0, len(files))
	for _, file := range files {
		tpl, err := loadTemplate(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
		templates = append(templates, tpl)
	}

	return templates, nil
}

// loadTemplate loads a single template file.
func loadTemplate(filePath string) (ReportTemplate, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return ReportTemplate{}, fmt.Errorf("failed to read file: %w", err)
	}

	var tpl ReportTemplate
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return ReportTemplate{}, fmt.Errorf("failed to parse file: %w", err)
	}

	if tpl.Name == "" {
		base := filepath.Base(filePath)
		tpl.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return tpl, nil
}

// =============================================================================
// TEMPLATE RESOLUTION
// =============================================================================

// resolveTemplates layers built-in, inline and file templates, later layers
// replacing earlier ones by name, and applies template defaults.
func (c *MainConfig) resolveTemplates(fileTemplates []ReportTemplate) {
	c.resolved = make(map[string]ReportTemplate)

	layers := [][]ReportTemplate{BuiltinTemplates(), c.Templates, fileTemplates}
	for _, layer := range layers {
		for _, tpl := range layer {
			applyTemplateDefaults(&tpl)
			c.resolved[tpl.Name] = tpl
		}
	}
}

// ReportTemplate returns the resolved template with the given name.
func (c *MainConfig) ReportTemplate(name string) (ReportTemplate, error) {
	if c.resolved == nil {
		c.resolveTemplates(nil)
	}
	tpl, ok := c.resolved[name]
	if !ok {
		return ReportTemplate{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownTemplate, name, strings.Join(c.TemplateNames(), ", "))
	}
	return tpl, nil
}

// TemplateNames returns the names of all resolved templates, sorted.
func (c *MainConfig) TemplateNames() []string {
	if c.resolved == nil {
		c.resolveTemplates(nil)
	}
	names := make([]string, 0, len(c.resolved))
	for name := range c.resolved {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// applyTemplateDefaults sets default values for a report template.
func applyTemplateDefaults(tpl *ReportTemplate) {
	tpl.Orientation = strings.ToLower(tpl.Orientation)
	if tpl.Orientation == "" {
		tpl.Orientation = OrientationPortrait
	}
	tpl.PageSize = strings.ToLower(tpl.PageSize)
	if tpl.PageSize == "" {
		tpl.PageSize = "letter"
	}
	if tpl.Margin == 0 {
		tpl.Margin = 50
	}

	// Without explicit widths, split the usable width evenly.
	if len(tpl.ColumnWidths) == 0 && len(tpl.ColumnFractions) == 0 {
		tpl.ColumnFractions = evenFractions(tpl.ListingColumnCount())
	}
	if len(tpl.SummaryWidths) == 0 && len(tpl.SummaryFractions) == 0 {
		tpl.SummaryFractions = []float64{0.7, 0.3}
	}
}

func evenFractions(n int) []float64 {
	fractions := make([]float64, n)
	for i := range fractions {
		fractions[i] = 1 / float64(n)
	}
	return fractions
}

// ValidateTemplate checks a template after defaults have been applied.
func ValidateTemplate(tpl ReportTemplate) error {
	if tpl.Name == "" {
		return errors.New("name is required")
	}

	switch tpl.Orientation {
	case OrientationPortrait, OrientationLandscape:
	default:
		return fmt.Errorf("orientation %q is not portrait or landscape", tpl.Orientation)
	}

	switch tpl.PageSize {
	case "letter", "a4", "legal":
	default:
		return fmt.Errorf("page_size %q is not letter, a4 or legal", tpl.PageSize)
	}

	if tpl.Margin < 0 {
		return fmt.Errorf("margin must not be negative, got %v", tpl.Margin)
	}
	if tpl.RowsPerChunk < 0 {
		return fmt.Errorf("rows_per_chunk must not be negative, got %d", tpl.RowsPerChunk)
	}

	if err := validateWidths("column", tpl.ColumnWidths, tpl.ColumnFractions, tpl.ListingColumnCount()); err != nil {
		return err
	}
	return validateWidths("summary", tpl.SummaryWidths, tpl.SummaryFractions, SummaryColumnCount)
}

// validateWidths checks one fixed/proportional width pair.
func validateWidths(prefix string, widths, fractions []float64, columns int) error {
	if len(widths) > 0 && len(fractions) > 0 {
		return fmt.Errorf("%s_widths and %s_fractions are mutually exclusive", prefix, prefix)
	}

	if len(widths) > 0 {
		if len(widths) != columns {
			return fmt.Errorf("%s_widths needs %d values, got %d", prefix, columns, len(widths))
		}
		for _, w := range widths {
			if w <= 0 {
				return fmt.Errorf("%s_widths must be positive, got %v", prefix, w)
			}
		}
		return nil
	}

	if len(fractions) != columns {
		return fmt.Errorf("%s_fractions needs %d values, got %d", prefix, columns, len(fractions))
	}
	sum := 0.0
	for _, f := range fractions {
		if f <= 0 {
			return fmt.Errorf("%s_fractions must be positive, got %v", prefix, f)
		}
		sum += f
	}
	if sum > 1+1e-9 {
		return fmt.Errorf("%s_fractions sum to %v, more than the usable width", prefix, math.Round(sum*1000)/1000)
	}

	return nil
}

// =============================================================================
// STATEMENT PERIOD
// =============================================================================

// Period is the resolved reporting window of a statement.
type Period struct {
	Start time.Time
	End   time.Time
	AsOf  time.Time
}

// ResolvePeriod turns the configured dates into a Period.
//
// Unset values default relative to now: AsOf is today, and the period is the
// calendar year before AsOf. A start without an end runs to the end of the
// start's year.
func (c *MainConfig) ResolvePeriod(now time.Time) (Period, error) {
	var p Period
	var err error

	p.AsOf = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if c.AsOf != "" {
		if p.AsOf, err = ParseDate(c.AsOf); err != nil {
			return Period{}, fmt.Errorf("as_of: %w", err)
		}
	}

	year := p.AsOf.Year() - 1
	if c.PeriodStart != "" {
		if p.Start, err = ParseDate(c.PeriodStart); err != nil {
			return Period{}, fmt.Errorf("period_start: %w", err)
		}
		year = p.Start.Year()
	} else {
		p.Start = time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	if c.PeriodEnd != "" {
		if p.End, err = ParseDate(c.PeriodEnd); err != nil {
			return Period{}, fmt.Errorf("period_end: %w", err)
		}
	} else {
		p.End = time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	}

	if p.End.Before(p.Start) {
		return Period{}, fmt.Errorf("period_end %s is before period_start %s",
			p.End.Format(DateLayout), p.Start.Format(DateLayout))
	}

	return p, nil
}

// ParseDate parses a configuration date (YYYY-MM-DD).
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}
