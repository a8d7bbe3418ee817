package tokenizer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jobtrackr/importer/internal/engine"
)

// MaxHeaderSearchRows is the maximum number of leading rows to scan
// for the header row.
var MaxHeaderSearchRows = 20

// ReadCSV tokenizes a CSV file. The first row containing any
// non-empty cell is taken as the header; every later row becomes a
// column-name to cell map. Ragged rows are allowed and short rows
// simply leave trailing columns unset.
func ReadCSV(data []byte) ([]engine.Row, error) {
	data = sanitizeUTF8(data)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	headerIdx := findHeaderRow(records)
	if headerIdx < 0 {
		return nil, nil
	}

	header := make([]string, len(records[headerIdx]))
	for i, h := range records[headerIdx] {
		header[i] = cleanCell(h)
	}

	rows := make([]engine.Row, 0, len(records)-headerIdx-1)
	for _, record := range records[headerIdx+1:] {
		row := make(engine.Row, len(header))
		for i, value := range record {
			if i >= len(header) || header[i] == "" {
				continue
			}
			row[header[i]] = engine.StringCell(cleanCell(value))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func findHeaderRow(records [][]string) int {
	limit := len(records)
	if limit > MaxHeaderSearchRows {
		limit = MaxHeaderSearchRows
	}
	for i := 0; i < limit; i++ {
		for _, cell := range records[i] {
			if strings.TrimSpace(cell) != "" {
				return i
			}
		}
	}
	return -1
}

// cleanCell strips spreadsheet export artifacts: whitespace, the
// ="..." formula quoting some tools emit, and stray surrounding
// quotes.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// sanitizeUTF8 replaces invalid byte sequences with the replacement
// rune so the csv reader never chokes on mixed encodings.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
