// =============================================================================
// Contribution Statements - Converter Module
// =============================================================================
//
// This module orchestrates one statement run for a single contribution file,
// from reading the source to writing the PDF documents.
//
// CONVERSION PIPELINE:
//   1. Resolve the statement period and as-of date
//   2. Load, clean and aggregate the source file
//   3. Check the dropped-row ratio
//   4. Write the dropped-row log (optional)
//   5. Ensure the output directory exists
//   6. Render one statement, or one per donor
//   7. Collect statistics
//
// Nothing is written before step 4, so a source that cannot be read or that
// fails the drop check leaves the output directory untouched.
//
// =============================================================================

package converter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/contribution-statements/internal/config"
	"github.com/ginjaninja78/contribution-statements/internal/pdfwriter"
	"github.com/ginjaninja78/contribution-statements/internal/pipeline"
	"github.com/ginjaninja78/contribution-statements/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// OutputFiles are the generated PDF files. Empty on failure or dry run.
	OutputFiles []string

	// DropLogFile is the dropped-row log, if one was written.
	DropLogFile string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	RowsRead    int
	RowsKept    int
	RowsDropped int
	Categories  int
	GrandTotal  decimal.Decimal

	// Documents is the number of statements rendered, including dry runs.
	Documents int

	// Pages is the page count summed over all documents.
	Pages int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Options change how a run behaves without touching configuration.
type Options struct {
	// DryRun cleans and lays out every statement but writes no files.
	DryRun bool

	// Now returns the run time. Defaults to time.Now.
	Now func() time.Time
}

// Converter produces the statements for one contribution file.
type Converter struct {
	inputPath  string
	mainConfig *config.MainConfig
	template   config.ReportTemplate
	opts       Options
	logger     logrus.FieldLogger
}

// New creates a new Converter instance.
//
// PARAMETERS:
//   - inputPath: The contribution file (CSV, JSON or XLSX).
//   - mainConfig: The main application configuration.
//   - tpl: The resolved report template.
//   - opts: Run options.
//   - logger: Receives progress and diagnostics. Nil discards them.
func New(inputPath string, mainConfig *config.MainConfig, tpl config.ReportTemplate, opts Options, logger logrus.FieldLogger) *Converter {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	return &Converter{
		inputPath:  inputPath,
		mainConfig: mainConfig,
		template:   tpl,
		opts:       opts,
		logger:     logger.WithField("file", filepath.Base(inputPath)),
	}
}

// document is one statement waiting to be rendered.
type document struct {
	fileName  string
	statement pdfwriter.Statement
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the statement pipeline for the file.
func (c *Converter) Run() Result {
	startTime := time.Now()
	now := c.opts.Now()
	result := Result{FilePath: c.inputPath}

	// =========================================================================
	// STEP 1: RESOLVE PERIOD
	// =========================================================================

	period, err := c.mainConfig.ResolvePeriod(now)
	if err != nil {
		result.Error = fmt.Errorf("failed to resolve statement period: %w", err)
		return result
	}

	// File names carry the statement date, so a configured as_of names the
	// output the same way on every run.
	stamp := statementStamp(now, period)

	c.logger.WithFields(logrus.Fields{
		"template": c.template.Name,
		"period":   period.Start.Format(config.DateLayout) + ".." + period.End.Format(config.DateLayout),
		"as_of":    period.AsOf.Format(config.DateLayout),
	}).Info("processing contribution file")

	// =========================================================================
	// STEP 2: LOAD AND CLEAN
	// =========================================================================

	cleaned, err := pipeline.LoadAndClean(c.inputPath, c.mainConfig.Source, pipeline.Options{
		FallbackName: c.mainConfig.FallbackName,
		Logger:       c.logger,
	})
	if err != nil {
		result.Error = err
		return result
	}

	result.Stats.RowsRead = cleaned.SourceRows
	result.Stats.RowsKept = len(cleaned.Records)
	result.Stats.RowsDropped = len(cleaned.Dropped)
	result.Stats.Categories = len(cleaned.Totals)
	result.Stats.GrandTotal = cleaned.GrandTotal

	// =========================================================================
	// STEP 3: DROP CHECK
	// =========================================================================

	if err := cleaned.CheckDropRatio(c.mainConfig.MaxDroppedRatio); err != nil {
		result.Error = err
		return result
	}

	// =========================================================================
	// STEP 4: DROP LOG
	// =========================================================================
	// A failing drop log is reported but does not stop the statements.

	if c.mainConfig.WriteDropLog && !c.opts.DryRun && len(cleaned.Dropped) > 0 {
		path, err := c.writeDropLog(cleaned, stamp)
		if err != nil {
			c.logger.WithError(err).Warn("failed to write drop log")
		} else {
			result.DropLogFile = path
			c.logger.Infof("wrote drop log to %s", path)
		}
	}

	// =========================================================================
	// STEP 5: OUTPUT DIRECTORY
	// =========================================================================

	if !c.opts.DryRun {
		if err := utils.EnsureDir(c.mainConfig.OutputDir); err != nil {
			result.Error = err
			return result
		}
	}

	// =========================================================================
	// STEP 6: RENDER
	// =========================================================================

	for _, doc := range c.documents(cleaned, period, stamp) {
		path, pages, err := c.render(doc)
		if err != nil {
			result.Error = fmt.Errorf("failed to render %s: %w", doc.fileName, err)
			return result
		}

		result.Stats.Documents++
		result.Stats.Pages += pages
		if path != "" {
			result.OutputFiles = append(result.OutputFiles, path)
			c.logger.WithField("pages", pages).Infof("wrote statement to %s", path)
		}
	}

	// =========================================================================
	// COMPLETE
	// =========================================================================

	result.Success = true
	result.Stats.ProcessingTime = time.Since(startTime)

	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// statementStamp returns the statement date with the clock time of now.
func statementStamp(now time.Time, period config.Period) time.Time {
	return time.Date(period.AsOf.Year(), period.AsOf.Month(), period.AsOf.Day(),
		now.Hour(), now.Minute(), now.Second(), 0, now.Location())
}

// documents builds the statements to render: one for the whole file, or one
// per named donor when the template asks for it.
func (c *Converter) documents(cleaned *pipeline.Result, period config.Period, now time.Time) []document {
	if !c.template.PerDonor {
		name := utils.GenerateOutputFileName(c.mainConfig.OutputNameFormat, now, map[string]string{
			"name":     cleaned.DisplayName,
			"template": c.template.Name,
		})
		return []document{{
			fileName: name,
			statement: pdfwriter.Statement{
				DisplayName: cleaned.DisplayName,
				Period:      period,
				Records:     cleaned.Records,
				Totals:      cleaned.Totals,
				GrandTotal:  cleaned.GrandTotal,
			},
		}}
	}

	if n := cleaned.Unnamed(); n > 0 {
		c.logger.Warnf("%d contributions have no donor name and are left out of per-donor statements", n)
	}

	donors := cleaned.ByDonor()
	if len(donors) == 0 {
		c.logger.Warn("no named donors found, no statements written")
	}

	docs := make([]document, 0, len(donors))
	for _, donor := range donors {
		name := utils.GenerateOutputFileName(c.mainConfig.DonorNameFormat, now, map[string]string{
			"name":     donor.Name,
			"template": c.template.Name,
		})
		docs = append(docs, document{
			fileName: name,
			statement: pdfwriter.Statement{
				DisplayName: donor.Name,
				Period:      period,
				Records:     donor.Records,
				Totals:      donor.Totals,
				GrandTotal:  donor.GrandTotal,
			},
		})
	}
	return docs
}

// render draws one document. Dry runs lay the document out into io.Discard
// and return an empty path.
func (c *Converter) render(doc document) (string, int, error) {
	if c.opts.DryRun {
		summary, err := pdfwriter.Generate(io.Discard, doc.statement, c.template)
		if err != nil {
			return "", 0, err
		}
		c.logger.Debugf("dry run: %s would have %d pages", doc.fileName, summary.Pages)
		return "", summary.Pages, nil
	}

	path := utils.UniquePath(filepath.Join(c.mainConfig.OutputDir, doc.fileName))

	file, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create output file: %w", err)
	}

	summary, err := pdfwriter.Generate(file, doc.statement, c.template)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close output file: %w", closeErr)
	}
	if err != nil {
		os.Remove(path)
		return "", 0, err
	}

	return path, summary.Pages, nil
}

// writeDropLog converts the dropped rows to log entries and writes them.
func (c *Converter) writeDropLog(cleaned *pipeline.Result, now time.Time) (string, error) {
	if err := utils.EnsureDir(c.mainConfig.OutputDir); err != nil {
		return "", err
	}

	fileName := filepath.Base(c.inputPath)
	entries := make([]utils.DropLogEntry, len(cleaned.Dropped))
	for i, d := range cleaned.Dropped {
		entries[i] = utils.DropLogEntry{
			FileName: fileName,
			Row:      d.Row,
			Reason:   string(d.Reason),
			Field:    d.Field,
			Value:    d.Value,
		}
	}

	return utils.WriteDropLog(entries, c.mainConfig.OutputDir, now)
}
