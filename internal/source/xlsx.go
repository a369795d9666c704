package source

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads one worksheet of an XLSX workbook. The first non-empty row
// holds the headers; cell values are read as displayed, so currency and date
// formatting applied in the workbook reaches the cleaning step unchanged.
//
// PARAMETERS:
//   - filePath: The path to the workbook.
//   - sheet: The worksheet to read. Empty selects the first sheet.
func ParseXLSX(filePath, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %q: %w", sheet, err)
	}

	// Skip leading blank rows; some exports put a title block above the data.
	start := 0
	for start < len(rows) && isRowEmpty(rows[start]) {
		start++
	}
	if start == len(rows) {
		return &Table{Rows: []map[string]string{}}, nil
	}

	headers := cleanHeaders(rows[start])

	return &Table{
		Headers: headers,
		Rows:    rowsFromRecords(headers, rows[start+1:]),
	}, nil
}
