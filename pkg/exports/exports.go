// Package exports reads the periodic file exports the external systems
// produce. It is the format boundary: everything past here works with
// normalized row structs, never with raw columns. Source systems rename and
// pad their column headers between exports, so field access goes through an
// alias table keyed by trimmed header names.
package exports

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// Reader iterates the records of one CSV export, resolving fields through
// header aliases.
type Reader struct {
	csv       *csv.Reader
	headers   []string
	headerMap map[string]int
}

// NewReader wraps a CSV stream and consumes its header row. A UTF-8 BOM on
// the first header (common in these exports) is stripped.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	headers, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read export header row: %w", err)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\uFEFF")
	}

	headerMap := make(map[string]int, len(headers))
	for i, h := range headers {
		cleaned := strings.TrimSpace(h)
		if _, exists := headerMap[cleaned]; !exists {
			headerMap[cleaned] = i
		}
	}

	return &Reader{csv: cr, headers: headers, headerMap: headerMap}, nil
}

// Row is one record of an export.
type Row struct {
	reader *Reader
	values []string
}

// Next returns the next row, or io.EOF.
func (r *Reader) Next() (Row, error) {
	values, err := r.csv.Read()
	if err != nil {
		return Row{}, err
	}
	return Row{reader: r, values: values}, nil
}

// Field returns the first non-blank value among the given header aliases.
// Trailing whitespace in the export's own header names is already handled by
// the alias map.
func (row Row) Field(aliases ...string) string {
	for _, alias := range aliases {
		idx, ok := row.reader.headerMap[alias]
		if !ok || idx >= len(row.values) {
			continue
		}
		if v := strings.TrimSpace(row.values[idx]); v != "" {
			return v
		}
	}
	return ""
}

// IsBlank reports whether every cell of the row is empty.
func (row Row) IsBlank() bool {
	for _, v := range row.values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

var isoDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// ParseCoverageWindow extracts the [start, end] date range from an export
// filename like "clinic_appts_2026-03-01_2026-04-30__pending.csv". The first
// two ISO dates found are taken as the window. ok is false when the filename
// does not carry two parseable dates.
func ParseCoverageWindow(filename string) (start, end time.Time, ok bool) {
	matches := isoDatePattern.FindAllString(filename, -1)
	if len(matches) < 2 {
		return time.Time{}, time.Time{}, false
	}
	start, err := time.Parse("2006-01-02", matches[0])
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err = time.Parse("2006-01-02", matches[1])
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

var dateLayouts = []string{
	"1/2/2006",
	"2006-01-02",
	"2/1/2006",
}

// ParseDate parses the date formats seen across the exports. Returns nil for
// blank or unparseable values.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

var datetimeLayouts = []string{
	"1/2/2006 3:04PM",
	"1/2/2006 15:04",
	"1/2/2006",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDateTime parses submission timestamps. Returns nil for blank or
// unparseable values.
func ParseDateTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

var firstInt = regexp.MustCompile(`\d+`)

// ParseLeadingInt pulls the first integer out of a value, handling ranges
// like "0-5". Returns ok=false when no digits are present.
func ParseLeadingInt(s string) (int, bool) {
	m := firstInt.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	var n int
	if _, err := fmt.Sscanf(m, "%d", &n); err != nil {
		return 0, false
	}
	return n, true
}
