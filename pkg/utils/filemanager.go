// =============================================================================
// Contribution Statements - File Manager Utility
// =============================================================================
//
// This module provides the file handling around a statement run:
//   - Output directory management
//   - Output file naming
//   - The dropped-row log
//
// NAMING:
//   Output names come from a format string with {placeholders}. Values that
//   end up in a file name (donor names, template names) pass through
//   SanitizeName first so a name can never escape the output directory.
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDir creates a directory and its parents if they don't exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// UniquePath returns path unchanged when nothing exists there, otherwise the
// first free variant with a _2, _3, ... suffix before the extension.
func UniquePath(path string) string {
	if !FileExists(path) {
		return path
	}

	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d%s", base, n, ext)
		if !FileExists(candidate) {
			return candidate
		}
	}
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName builds an output file name.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {uuid}      - A random UUID
//     {timestamp} - Run timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Run date (YYYYMMDD)
//     {time}      - Run time (HHMMSS)
//     {name}      - Donor or display name (sanitized)
//     {template}  - Report template name
//   - now: The run time used for the date placeholders.
//   - params: Additional placeholder values, sanitized before use.
//
// RETURNS:
//   - The generated file name, always ending in .pdf.
//
// EXAMPLE:
//
//	format: "{name}_Contribution_Report.pdf"
//	params: {"name": "Jane Doe"}
//	output: "Jane_Doe_Contribution_Report.pdf"
func GenerateOutputFileName(format string, now time.Time, params map[string]string) string {
	replacements := map[string]string{
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	if strings.Contains(format, "{uuid}") {
		replacements["{uuid}"] = uuid.New().String()
	}

	for key, value := range params {
		replacements["{"+key+"}"] = SanitizeName(value)
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if !strings.HasSuffix(strings.ToLower(result), ".pdf") {
		result += ".pdf"
	}

	return result
}

// nameReplacer maps characters that are unsafe in file names to underscores.
var nameReplacer = strings.NewReplacer(
	" ", "_",
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// SanitizeName makes a value safe to embed in a file name.
//
// Example:
//
//	SanitizeName("Jane Doe")   -> "Jane_Doe"
//	SanitizeName("../etc/pw")  -> "_etc_pw"
func SanitizeName(name string) string {
	cleaned := nameReplacer.Replace(strings.TrimSpace(name))
	cleaned = strings.TrimLeft(cleaned, ".")
	if cleaned == "" {
		return "unnamed"
	}
	return cleaned
}

// =============================================================================
// DROP LOG GENERATION
// =============================================================================

// DropLogEntry describes one source row excluded from a statement.
type DropLogEntry struct {
	FileName string
	Row      int
	Reason   string
	Field    string
	Value    string
}

// WriteDropLog writes the dropped rows of a run to a text file.
//
// PARAMETERS:
//   - entries: The dropped rows.
//   - outputDir: The directory to write the log file.
//   - now: The run time, used in the file name and header.
//
// RETURNS:
//   - The path to the log file, or "" when there is nothing to log.
//   - An error if writing fails.
func WriteDropLog(entries []DropLogEntry, outputDir string, now time.Time) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	logPath := UniquePath(filepath.Join(outputDir,
		fmt.Sprintf("dropped_rows_%s.txt", now.Format("20060102_150405"))))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create drop log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Contribution Statements - Dropped Rows\n"+
		"Generated: %s\n"+
		"Total Dropped: %d\n"+
		"================================================================================\n\n",
		now.Format("2006-01-02 15:04:05"),
		len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Dropped #%d\n"+
			"  File:    %s\n"+
			"  Row:     %d\n"+
			"  Reason:  %s\n",
			i+1, entry.FileName, entry.Row, entry.Reason)
		if entry.Field != "" {
			fmt.Fprintf(writer, "  Field:   %s\n", entry.Field)
		}
		fmt.Fprintf(writer, "  Value:   %q\n\n", entry.Value)
	}

	writer.WriteString("================================================================================\n" +
		"End of Drop Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush drop log: %w", err)
	}

	return logPath, nil
}
