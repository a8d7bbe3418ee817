package tokenizer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jobtrackr/importer/internal/engine"
)

// ReadXLSX tokenizes the first sheet of a workbook. Cells arrive as
// the formatted strings excelize renders, so spreadsheet serial dates
// shown as dates stay dates and raw numeric columns stay numeric text
// for the coercion layer to sort out.
func ReadXLSX(data []byte) ([]engine.Row, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	headerIdx := findHeaderRow(records)
	if headerIdx < 0 {
		return nil, nil
	}

	header := make([]string, len(records[headerIdx]))
	for i, h := range records[headerIdx] {
		header[i] = strings.TrimSpace(h)
	}

	rows := make([]engine.Row, 0, len(records)-headerIdx-1)
	for _, record := range records[headerIdx+1:] {
		row := make(engine.Row, len(header))
		for i, value := range record {
			if i >= len(header) || header[i] == "" {
				continue
			}
			row[header[i]] = engine.StringCell(strings.TrimSpace(value))
		}
		rows = append(rows, row)
	}
	return rows, nil
}
