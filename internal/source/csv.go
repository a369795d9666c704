package source

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/ginjaninja78/contribution-statements/internal/config"
)

// ParseCSV reads a delimited text file. The first row holds the headers.
//
// PARSING PROCESS:
//  1. Open the file and configure the CSV reader from settings
//  2. Read every record
//  3. Clean the header row
//  4. Convert each data record to a map of header -> value
func ParseCSV(filePath string, settings config.CSVSettings) (*Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	csvReader := csv.NewReader(bufio.NewReader(file))
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(allRows) == 0 {
		return &Table{Rows: []map[string]string{}}, nil
	}

	headers := cleanHeaders(allRows[0])

	return &Table{
		Headers: headers,
		Rows:    rowsFromRecords(headers, allRows[1:]),
	}, nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	// Handle named aliases for common delimiters.
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Exports from the donation system are not always rectangular.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}
