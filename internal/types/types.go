// =============================================================================
// Contribution Statements - Shared Types
// =============================================================================
//
// This package contains the record types shared by the pipeline, the
// renderer and the command layer. Keeping them here avoids import cycles
// between:
//   - pipeline
//   - pdfwriter
//   - converter
//
// =============================================================================

package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// COLUMN NAMES
// =============================================================================
// These are the column headers expected in every contribution source file.

const (
	ColumnName    = "Name"
	ColumnAmount  = "Amount"
	ColumnDate    = "DATE"
	ColumnReason  = "Reason"
	ColumnAddress = "Address"
	ColumnEmail   = "Email Address"
	ColumnPhone   = "Phone Number"
)

// RequiredColumns are synthesized as empty when absent. The first four carry
// the data every statement needs; the contact columns are optional metadata.
var RequiredColumns = []string{
	ColumnName,
	ColumnAmount,
	ColumnDate,
	ColumnReason,
	ColumnAddress,
	ColumnEmail,
	ColumnPhone,
}

// EmptyPlaceholder is rendered in place of a missing optional value.
const EmptyPlaceholder = "-"

// =============================================================================
// CONTRIBUTION TYPES
// =============================================================================

// Contribution is one cleaned donation event.
type Contribution struct {
	// Name is the donor name. It may be empty.
	Name string

	// Amount is always positive after cleaning.
	Amount decimal.Decimal

	// Date is the calendar date of the contribution (UTC midnight).
	Date time.Time

	// Reason is the purpose/fund label. Never empty after cleaning.
	Reason string

	Address string
	Email   string
	Phone   string

	// Row is the 1-based data row number in the source file.
	Row int
}

// CategoryTotal is the sum of all cleaned contributions sharing a reason.
type CategoryTotal struct {
	Reason string
	Total  decimal.Decimal
}

// =============================================================================
// DIAGNOSTIC TYPES
// =============================================================================

// DropReason names why a source row was excluded from the cleaned set.
type DropReason string

const (
	DropInvalidAmount     DropReason = "invalid_amount"
	DropNonPositiveAmount DropReason = "non_positive_amount"
	DropInvalidDate       DropReason = "invalid_date"
	DropMissingReason     DropReason = "missing_reason"
	DropStrayHeader       DropReason = "stray_header"
)

// DroppedRow records a source row that did not survive cleaning.
type DroppedRow struct {
	// Row is the 1-based data row number in the source file.
	Row int

	Reason DropReason

	// Field is the column that failed normalization.
	Field string

	// Value is the raw value found in Field.
	Value string
}
