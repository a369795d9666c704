// =============================================================================
// Contribution Statements - Row Validation
// =============================================================================
//
// This module normalizes the raw string values of a single source row into a
// typed contribution, or explains why the row cannot be used.
//
// VALIDATION STRATEGY:
//   Validation is performed field by field, in a fixed order:
//   1. Amount: stray header check, currency cleanup, decimal parse, sign
//   2. DATE:   parsed against a list of common layouts, then dateparse
//   3. Reason: must be non-empty
//   The first failing field decides the drop reason for the row.
//
// ERROR HANDLING:
//   - Row-level failures are never fatal; the caller drops the row
//   - Each failure carries the row number, field and raw value
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/ginjaninja78/contribution-statements/internal/types"
	"github.com/shopspring/decimal"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidAmount is returned when an amount cannot be parsed as a decimal.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNonPositiveAmount is returned for amounts that parse but are <= 0.
	ErrNonPositiveAmount = errors.New("amount must be positive")

	// ErrInvalidDate is returned when no known layout matches a date value.
	ErrInvalidDate = errors.New("invalid date")

	// ErrMissingReason is returned when the purpose/fund label is empty.
	ErrMissingReason = errors.New("missing reason")

	// ErrStrayHeader marks a repeated header row inside the data.
	ErrStrayHeader = errors.New("stray header row")
)

// ValidationError describes why a single row was rejected.
type ValidationError struct {
	// Row is the 1-based data row number.
	Row int

	// Field is the column that failed validation.
	Field string

	// Value is the raw value that failed validation.
	Value string

	// Rule is the drop reason reported in diagnostics.
	Rule types.DropReason

	// Err is the underlying sentinel error.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d, field '%s': %v (value: '%s')", e.Row, e.Field, e.Err, e.Value)
}

// Unwrap exposes the sentinel error to errors.Is.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Dropped converts the error into the diagnostic record kept by the pipeline.
func (e *ValidationError) Dropped() types.DroppedRow {
	return types.DroppedRow{
		Row:    e.Row,
		Reason: e.Rule,
		Field:  e.Field,
		Value:  e.Value,
	}
}

// =============================================================================
// ROW VALIDATION
// =============================================================================

// ValidateRow normalizes one source row.
//
// PARAMETERS:
//   - row: The raw row keyed by column header. Missing keys read as "".
//   - rowNumber: The 1-based data row number, used in diagnostics.
//
// RETURNS:
//   - The cleaned contribution when every field is valid.
//   - A *ValidationError naming the first field that failed otherwise.
func ValidateRow(row map[string]string, rowNumber int) (types.Contribution, *ValidationError) {
	rawAmount := row[types.ColumnAmount]
	if IsStrayHeader(rawAmount) {
		return types.Contribution{}, &ValidationError{
			Row:   rowNumber,
			Field: types.ColumnAmount,
			Value: rawAmount,
			Rule:  types.DropStrayHeader,
			Err:   ErrStrayHeader,
		}
	}

	amount, err := NormalizeAmount(rawAmount)
	if err != nil {
		rule := types.DropInvalidAmount
		if errors.Is(err, ErrNonPositiveAmount) {
			rule = types.DropNonPositiveAmount
		}
		return types.Contribution{}, &ValidationError{
			Row:   rowNumber,
			Field: types.ColumnAmount,
			Value: rawAmount,
			Rule:  rule,
			Err:   err,
		}
	}

	rawDate := row[types.ColumnDate]
	date, err := NormalizeDate(rawDate)
	if err != nil {
		return types.Contribution{}, &ValidationError{
			Row:   rowNumber,
			Field: types.ColumnDate,
			Value: rawDate,
			Rule:  types.DropInvalidDate,
			Err:   err,
		}
	}

	reason := strings.TrimSpace(row[types.ColumnReason])
	if reason == "" {
		return types.Contribution{}, &ValidationError{
			Row:   rowNumber,
			Field: types.ColumnReason,
			Value: row[types.ColumnReason],
			Rule:  types.DropMissingReason,
			Err:   ErrMissingReason,
		}
	}

	return types.Contribution{
		Name:    strings.TrimSpace(row[types.ColumnName]),
		Amount:  amount,
		Date:    date,
		Reason:  reason,
		Address: strings.TrimSpace(row[types.ColumnAddress]),
		Email:   strings.TrimSpace(row[types.ColumnEmail]),
		Phone:   strings.TrimSpace(row[types.ColumnPhone]),
		Row:     rowNumber,
	}, nil
}

// IsStrayHeader reports whether an amount cell literally holds the column
// header, which happens when exported CSV files are concatenated.
func IsStrayHeader(rawAmount string) bool {
	return strings.TrimSpace(rawAmount) == types.ColumnAmount
}

// =============================================================================
// AMOUNT NORMALIZATION
// =============================================================================

// currencyReplacer strips currency symbols, thousands separators and spaces.
var currencyReplacer = strings.NewReplacer(
	"$", "",
	"€", "",
	"£", "",
	"¥", "",
	",", "",
	" ", "",
	"\u00a0", "",
)

// NormalizeAmount parses a raw amount such as "$1,250.00" into a decimal.
//
// Examples:
//
//	NormalizeAmount("$100.00")  -> 100.00, nil
//	NormalizeAmount("1,250")    -> 1250, nil
//	NormalizeAmount("abc")      -> ErrInvalidAmount
//	NormalizeAmount("-5")       -> ErrNonPositiveAmount
func NormalizeAmount(raw string) (decimal.Decimal, error) {
	cleaned := currencyReplacer.Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}

	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNonPositiveAmount, amount.String())
	}

	return amount, nil
}

// =============================================================================
// DATE NORMALIZATION
// =============================================================================

// dateLayouts are tried in order. Slash dates are read month-first. Numeric
// day and month fields accept one or two digits.
var dateLayouts = []string{
	"2006-1-2",
	"1/2/2006",
	"1/2/06",
	"2006/1/2",
	"1-2-2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"2-Jan-2006",
	"2-Jan-06",
	"2 Jan 2006",
	"2 January 2006",
	"20060102",
	time.RFC3339,
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	"2006-1-2T15:04:05",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
}

// NormalizeDate parses a raw date value and truncates it to a calendar date.
//
// Values matching none of dateLayouts are handed to dateparse, month-first.
// Bare digit strings are never handed over, dateparse reads them as Unix
// timestamps.
func NormalizeDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, ErrInvalidDate
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return calendarDate(t), nil
		}
	}

	if !isDigits(value) {
		if t, err := dateparse.ParseIn(value, time.UTC); err == nil {
			return calendarDate(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// calendarDate drops the time of day, keeping the date as written.
func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
