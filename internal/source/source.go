// =============================================================================
// Contribution Statements - Source Loader
// =============================================================================
//
// This module reads a contribution file into a generic table of rows keyed
// by column header. The cleaning pipeline only ever sees this table, so the
// file format is decided here and nowhere else.
//
// SUPPORTED FORMATS (chosen by file extension):
//   - .csv, .tsv, .txt : delimited text (see csv.go)
//   - .json            : row- or column-oriented records (see json.go)
//   - .xlsx            : first (or configured) worksheet (see xlsx.go)
//
// ERROR HANDLING:
//   Any structural failure (missing file, malformed CSV/JSON/XLSX) wraps
//   ErrUnreadable and is fatal for the run.
//
// =============================================================================

package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/contribution-statements/internal/config"
)

var (
	// ErrUnreadable wraps every structural failure to read a source file.
	ErrUnreadable = errors.New("source unreadable")

	// ErrUnsupportedFormat is returned for file extensions with no reader.
	ErrUnsupportedFormat = errors.New("unsupported source format")
)

// ignoredPrefixes name spreadsheet export artifacts that never hold data.
var ignoredPrefixes = []string{"FIELD", "Unnamed"}

// =============================================================================
// TABLE STRUCTURE
// =============================================================================

// Table is a parsed source file.
type Table struct {
	// Headers contains the column headers in source order.
	Headers []string

	// Rows contains the data rows as maps of header -> value.
	Rows []map[string]string

	// SourceFile is the path the table was read from.
	SourceFile string
}

// HasColumn reports whether the table carries the given header.
func (t *Table) HasColumn(header string) bool {
	for _, h := range t.Headers {
		if h == header {
			return true
		}
	}
	return false
}

// EnsureColumn adds an empty column when the header is absent.
// It returns true when the column had to be synthesized.
func (t *Table) EnsureColumn(header string) bool {
	if t.HasColumn(header) {
		return false
	}
	t.Headers = append(t.Headers, header)
	for _, row := range t.Rows {
		row[header] = ""
	}
	return true
}

// dropIgnoredColumns removes export artifacts such as "FIELD12" or
// "Unnamed: 3" from the table.
func (t *Table) dropIgnoredColumns() {
	kept := t.Headers[:0]
	for _, h := range t.Headers {
		if isIgnored(h) {
			for _, row := range t.Rows {
				delete(row, h)
			}
			continue
		}
		kept = append(kept, h)
	}
	t.Headers = kept
}

func isIgnored(header string) bool {
	for _, prefix := range ignoredPrefixes {
		if strings.HasPrefix(header, prefix) {
			return true
		}
	}
	return false
}

// =============================================================================
// LOADER
// =============================================================================

// Load reads a contribution file, choosing the reader by extension.
//
// PARAMETERS:
//   - path: The path to the source file.
//   - settings: Format-specific settings from the main configuration.
//
// RETURNS:
//   - The parsed table. An empty file yields an empty table, not an error.
//   - An error wrapping ErrUnreadable or ErrUnsupportedFormat.
func Load(path string, settings config.SourceSettings) (*Table, error) {
	var (
		table *Table
		err   error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".txt":
		table, err = ParseCSV(path, settings.CSV)
	case ".json":
		table, err = ParseJSON(path)
	case ".xlsx", ".xlsm":
		table, err = ParseXLSX(path, settings.XLSXSheet)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrUnreadable, path, err)
	}

	table.SourceFile = path
	table.dropIgnoredColumns()

	return table, nil
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// cleanHeaders trims header values and names blank headers by position.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}

	return cleaned
}

// rowsFromRecords converts positional records into header-keyed rows,
// skipping blank rows and padding short ones.
func rowsFromRecords(headers []string, records [][]string) []map[string]string {
	rows := make([]map[string]string, 0, len(records))

	for _, record := range records {
		if isRowEmpty(record) {
			continue
		}

		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[header] = strings.TrimSpace(record[i])
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}

	return rows
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
