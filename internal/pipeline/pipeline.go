// =============================================================================
// Contribution Statements - Cleaning and Aggregation Pipeline
// =============================================================================
//
// This module turns a raw source table into the cleaned, sorted and
// aggregated data a statement is drawn from.
//
// PIPELINE (order matters):
//   1. Synthesize any missing expected column as empty strings
//   2. Validate each row (amount, date, reason); drop and record failures
//   3. Stable sort by date, ties keep source order
//   4. Sum amounts per reason and overall
//   5. Pick the display name for the statement header
//
// ERROR HANDLING:
//   Row-level problems are recovered here by dropping the row. Only reading
//   the source file can fail the pipeline.
//
// =============================================================================

package pipeline

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/ginjaninja78/contribution-statements/internal/config"
	"github.com/ginjaninja78/contribution-statements/internal/source"
	"github.com/ginjaninja78/contribution-statements/internal/types"
	"github.com/ginjaninja78/contribution-statements/internal/validation"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// DefaultFallbackName is the display name used when no record has a name.
const DefaultFallbackName = "First and Last Name"

// ErrTooManyDropped is returned by CheckDropRatio when cleaning discarded
// more rows than the configured limit allows.
var ErrTooManyDropped = errors.New("too many rows dropped")

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result is the cleaned and aggregated content of one source file.
type Result struct {
	// Records are the cleaned contributions, sorted ascending by date.
	Records []types.Contribution

	// Totals holds one entry per distinct reason, sorted by reason.
	Totals []types.CategoryTotal

	// GrandTotal is the sum of every cleaned amount.
	GrandTotal decimal.Decimal

	// DisplayName is the name shown in the statement header.
	DisplayName string

	// Dropped lists every source row excluded from Records.
	Dropped []types.DroppedRow

	// MissingColumns lists expected columns that were synthesized as empty.
	MissingColumns []string

	// SourceRows is the number of data rows read from the source.
	SourceRows int
}

// Options tune the pipeline.
type Options struct {
	// FallbackName replaces DefaultFallbackName when set.
	FallbackName string

	// Logger receives diagnostics. Nil discards them.
	Logger logrus.FieldLogger
}

// =============================================================================
// PIPELINE FUNCTIONS
// =============================================================================

// LoadAndClean reads a source file and runs Clean on it.
//
// PARAMETERS:
//   - path: The contribution file (CSV, JSON or XLSX).
//   - settings: Source settings from the main configuration.
//   - opts: Pipeline options.
//
// RETURNS:
//   - The cleaned result. An empty or fully invalid file is not an error.
//   - An error wrapping source.ErrUnreadable if the file cannot be read.
func LoadAndClean(path string, settings config.SourceSettings, opts Options) (*Result, error) {
	table, err := source.Load(path, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to load source: %w", err)
	}
	return Clean(table, opts), nil
}

// Clean validates, sorts and aggregates a parsed table. The table gains any
// missing expected columns as a side effect.
func Clean(table *source.Table, opts Options) *Result {
	log := opts.Logger
	if log == nil {
		log = discardLogger()
	}

	result := &Result{
		Records:    []types.Contribution{},
		Dropped:    []types.DroppedRow{},
		SourceRows: len(table.Rows),
	}

	fallback := opts.FallbackName
	if fallback == "" {
		fallback = DefaultFallbackName
	}

	// Step 1: missing metadata must never abort a statement.
	for _, column := range types.RequiredColumns {
		if table.EnsureColumn(column) {
			result.MissingColumns = append(result.MissingColumns, column)
			log.Warnf("column %q is missing, adding it as empty", column)
		}
	}

	// Step 2: normalize each row, dropping the ones that fail.
	for i, row := range table.Rows {
		record, verr := validation.ValidateRow(row, i+1)
		if verr != nil {
			result.Dropped = append(result.Dropped, verr.Dropped())
			if verr.Rule == types.DropStrayHeader {
				log.Debugf("skipping repeated header at row %d", verr.Row)
			} else {
				log.Debugf("dropping %s", verr.Error())
			}
			continue
		}
		result.Records = append(result.Records, record)
	}

	// Step 3: sort by date; equal dates keep their source order.
	SortByDate(result.Records)

	// Step 4: per-reason and overall totals.
	result.Totals, result.GrandTotal = Aggregate(result.Records)

	// Step 5: header name.
	result.DisplayName = DisplayName(result.Records, fallback)

	log.WithFields(logrus.Fields{
		"rows":       result.SourceRows,
		"kept":       len(result.Records),
		"dropped":    len(result.Dropped),
		"categories": len(result.Totals),
		"total":      result.GrandTotal.StringFixed(2),
	}).Info("cleaned contribution data")

	return result
}

// SortByDate sorts records ascending by date. The sort is stable.
func SortByDate(records []types.Contribution) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
}

// Aggregate sums amounts per reason and overall. Totals are sorted by reason.
func Aggregate(records []types.Contribution) ([]types.CategoryTotal, decimal.Decimal) {
	sums := make(map[string]decimal.Decimal)
	grand := decimal.Zero

	for _, r := range records {
		sums[r.Reason] = sums[r.Reason].Add(r.Amount)
		grand = grand.Add(r.Amount)
	}

	totals := make([]types.CategoryTotal, 0, len(sums))
	for reason, total := range sums {
		totals = append(totals, types.CategoryTotal{Reason: reason, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Reason < totals[j].Reason
	})

	return totals, grand
}

// DisplayName returns the first non-empty name in record order, or fallback.
func DisplayName(records []types.Contribution, fallback string) string {
	for _, r := range records {
		if r.Name != "" {
			return r.Name
		}
	}
	return fallback
}

// =============================================================================
// DIAGNOSTICS
// =============================================================================

// DroppedRatio returns the fraction of source rows dropped during cleaning.
func (r *Result) DroppedRatio() float64 {
	if r.SourceRows == 0 {
		return 0
	}
	return float64(len(r.Dropped)) / float64(r.SourceRows)
}

// CheckDropRatio fails when more than max of the source rows were dropped.
// A max of 0 disables the check.
func (r *Result) CheckDropRatio(max float64) error {
	if max <= 0 {
		return nil
	}
	if ratio := r.DroppedRatio(); ratio > max {
		return fmt.Errorf("%w: %d of %d rows (%.0f%%, limit %.0f%%)",
			ErrTooManyDropped, len(r.Dropped), r.SourceRows, ratio*100, max*100)
	}
	return nil
}

// DropCounts tallies dropped rows by reason.
func (r *Result) DropCounts() map[types.DropReason]int {
	counts := make(map[types.DropReason]int)
	for _, d := range r.Dropped {
		counts[d.Reason]++
	}
	return counts
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
