package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// ParseJSON reads either an array of objects (one object per row) or an
// object of arrays (one array per column). Numbers keep their literal text,
// null becomes an empty string.
func ParseJSON(filePath string) (*Table, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &Table{Rows: []map[string]string{}}, nil
	}

	switch trimmed[0] {
	case '[':
		return parseRowOriented(trimmed)
	case '{':
		return parseColumnOriented(trimmed)
	default:
		return nil, errors.New("expected a JSON array or object at top level")
	}
}

// parseRowOriented handles [{"Name": ..., "Amount": ...}, ...].
// Header order is the order keys are first seen.
func parseRowOriented(data []byte) (*Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	table := &Table{Rows: []map[string]string{}}
	seen := make(map[string]bool)

	for dec.More() {
		keys, values, err := decodeObject(dec)
		if err != nil {
			return nil, fmt.Errorf("failed to parse record %d: %w", len(table.Rows)+1, err)
		}

		row := make(map[string]string, len(keys))
		empty := true
		for i, key := range keys {
			if !seen[key] {
				seen[key] = true
				table.Headers = append(table.Headers, key)
			}
			row[key] = values[i]
			if values[i] != "" {
				empty = false
			}
		}
		if !empty {
			table.Rows = append(table.Rows, row)
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	// Rows that lack a key seen elsewhere read as empty.
	for _, row := range table.Rows {
		for _, h := range table.Headers {
			if _, ok := row[h]; !ok {
				row[h] = ""
			}
		}
	}

	return table, nil
}

// decodeObject reads one JSON object keeping key order.
func decodeObject(dec *json.Decoder) ([]string, []string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}

	var keys, values []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected key %v", keyTok)
		}

		var raw interface{}
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("field %q: %w", key, err)
		}

		keys = append(keys, key)
		values = append(values, stringify(raw))
	}

	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}

	return keys, values, nil
}

// parseColumnOriented handles {"Name": [...], "Amount": [...]} as produced by
// column-wise dataframe exports. Index-keyed objects ({"0": ..., "1": ...})
// are accepted in place of arrays.
func parseColumnOriented(data []byte) (*Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	table := &Table{Rows: []map[string]string{}}
	columns := make(map[string][]string)
	length := 0

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", keyTok)
		}

		var raw interface{}
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("column %q: %w", key, err)
		}

		values, err := columnValues(raw)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", key, err)
		}

		table.Headers = append(table.Headers, key)
		columns[key] = values
		if len(values) > length {
			length = len(values)
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	records := make([][]string, length)
	for i := range records {
		records[i] = make([]string, len(table.Headers))
		for j, h := range table.Headers {
			if i < len(columns[h]) {
				records[i][j] = columns[h][i]
			}
		}
	}
	table.Rows = rowsFromRecords(table.Headers, records)

	return table, nil
}

// columnValues flattens one column of a column-oriented document.
func columnValues(raw interface{}) ([]string, error) {
	switch v := raw.(type) {
	case []interface{}:
		values := make([]string, len(v))
		for i, item := range v {
			values[i] = stringify(item)
		}
		return values, nil
	case map[string]interface{}:
		values := make([]string, len(v))
		for key, item := range v {
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, fmt.Errorf("unexpected index %q", key)
			}
			values[idx] = stringify(item)
		}
		return values, nil
	default:
		return nil, errors.New("expected an array or an index-keyed object")
	}
}

// stringify renders a decoded JSON value the way it would appear in a CSV cell.
func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
