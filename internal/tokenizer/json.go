package tokenizer

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jobtrackr/importer/internal/engine"
)

// envelopeKeys are object keys accepted as a wrapper around the record
// array, so both bare arrays and exported-backup envelopes load.
var envelopeKeys = []string{"applications", "candidatures", "interviews", "entretiens"}

// ReadJSON tokenizes a JSON document. Accepted shapes are a bare array
// of objects and an object wrapping such an array under one of the
// known envelope keys. A document that parses as neither is retried as
// NDJSON before giving up.
func ReadJSON(data []byte) ([]engine.Row, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		if rows, ndErr := ReadNDJSON(data); ndErr == nil {
			return rows, nil
		}
		return nil, fmt.Errorf("parse json: %w", err)
	}

	switch v := raw.(type) {
	case []any:
		return rowsFromList(v)
	case map[string]any:
		for _, key := range envelopeKeys {
			if list, ok := v[key].([]any); ok {
				return rowsFromList(list)
			}
		}
		return nil, fmt.Errorf("json object has no record array (expected one of %v)", envelopeKeys)
	default:
		return nil, fmt.Errorf("json document is %T, expected an array of objects", raw)
	}
}

// ReadNDJSON tokenizes newline-delimited JSON, one object per line.
// Blank lines are skipped.
func ReadNDJSON(data []byte) ([]engine.Row, error) {
	var rows []engine.Row

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(text, &obj); err != nil {
			return nil, fmt.Errorf("parse ndjson line %d: %w", line, err)
		}
		rows = append(rows, rowFromObject(obj))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan ndjson: %w", err)
	}
	return rows, nil
}

func rowsFromList(list []any) ([]engine.Row, error) {
	rows := make([]engine.Row, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("json record %d is %T, expected an object", i, item)
		}
		rows = append(rows, rowFromObject(obj))
	}
	return rows, nil
}

func rowFromObject(obj map[string]any) engine.Row {
	row := make(engine.Row, len(obj))
	for key, value := range obj {
		row[key] = engine.CellFromAny(value)
	}
	return row
}
