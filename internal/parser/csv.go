package parser

import (
	"strconv"
	"strings"
)

// delimitedRow is one data line of a delimited statement, keyed by header
// field name, with the raw line retained for audit.
type delimitedRow struct {
	fields map[string]string
	raw    string
}

// splitLines splits content into its non-blank lines.
func splitLines(content string) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// parseDelimitedLine splits a line on commas while respecting quoted spans:
// a quote character toggles the in-quotes state and delimiters inside a
// quoted span do not split.
func parseDelimitedLine(line string) []string {
	var result []string
	var current strings.Builder
	inQuotes := false

	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			result = append(result, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}

	result = append(result, strings.TrimSpace(current.String()))
	return result
}

// delimitedRows parses a header line plus data lines into field maps.
// Rows whose field count does not match the header are skipped silently.
func delimitedRows(content string) []delimitedRow {
	lines := splitLines(content)
	if len(lines) < 2 {
		return nil
	}

	headers := parseDelimitedLine(lines[0])

	var rows []delimitedRow
	for _, line := range lines[1:] {
		values := parseDelimitedLine(line)
		if len(values) != len(headers) {
			continue
		}

		fields := make(map[string]string, len(headers))
		for i, h := range headers {
			fields[h] = values[i]
		}
		rows = append(rows, delimitedRow{fields: fields, raw: line})
	}

	return rows
}

// parseAmount normalizes a locale-specific decimal separator and parses the
// value. The caller drops the row on error; a bad amount is never fatal for
// the whole file.
func parseAmount(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}
