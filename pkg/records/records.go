// Package records splits flat comma-delimited inventory exports into a header
// row and string-keyed rows.
//
// The format is deliberately naive: fields are split on every comma and
// quoted fields containing the delimiter are not supported. Every cell is a
// string; no type inference happens here.
package records

import (
	"strings"

	"github.com/agentstation/sightline/pkg/constants"
)

// Row maps a header name to the cell value of one data line.
type Row map[string]string

// Get returns the trimmed value of the named column, or "" when the column
// does not exist in the row.
func (r Row) Get(column string) string {
	return r[column]
}

// Table is the parsed content of one export file. Headers keeps the column
// order for display; lookups go through the header name.
type Table struct {
	Headers []string `json:"headers" yaml:"headers"`
	Rows    []Row    `json:"rows" yaml:"rows"`
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Column returns every value of one column in row order.
func (t *Table) Column(name string) []string {
	values := make([]string, 0, t.Len())
	for _, row := range t.Rows {
		values = append(values, row[name])
	}
	return values
}

// HasColumn reports whether name is one of the table headers.
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// Parse splits content into headers and rows.
//
// Empty or whitespace-only input yields an empty table. The first non-blank
// line holds the headers. Short rows are padded with empty values and
// fields beyond the header count are dropped. Blank data lines are skipped.
func Parse(content string) *Table {
	table := &Table{Headers: []string{}, Rows: []Row{}}

	lines := splitLines(content)
	start := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			start = i
			break
		}
	}
	if start < 0 {
		return table
	}

	for _, h := range strings.Split(lines[start], constants.FieldDelimiter) {
		table.Headers = append(table.Headers, strings.TrimSpace(h))
	}

	for _, line := range lines[start+1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		table.Rows = append(table.Rows, parseRow(table.Headers, line))
	}

	return table
}

func parseRow(headers []string, line string) Row {
	fields := strings.Split(line, constants.FieldDelimiter)
	row := make(Row, len(headers))
	for i, h := range headers {
		value := ""
		if i < len(fields) {
			value = strings.TrimSpace(fields[i])
		}
		row[h] = value
	}
	return row
}

// splitLines splits on \n and drops a trailing \r so CRLF exports parse the
// same as LF ones.
func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
