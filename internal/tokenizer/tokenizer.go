// Package tokenizer turns uploaded files into raw rows.
//
// Each reader produces []engine.Row, a slice of column-name to cell
// maps. No interpretation happens here: header synonyms, value
// coercion and row acceptance all belong to the engine. The tokenizer
// only worries about file formats and encoding artifacts.
package tokenizer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jobtrackr/importer/internal/engine"
)

// Kind identifies a supported file format.
type Kind int

const (
	KindUnknown Kind = iota
	KindCSV
	KindJSON
	KindNDJSON
	KindXLSX
)

func (k Kind) String() string {
	switch k {
	case KindCSV:
		return "csv"
	case KindJSON:
		return "json"
	case KindNDJSON:
		return "ndjson"
	case KindXLSX:
		return "xlsx"
	default:
		return "unknown"
	}
}

var xlsxMagic = []byte{0x50, 0x4b, 0x03, 0x04}

// DetectKind picks a format from the filename extension, falling back
// to content sniffing when the extension is missing or unhelpful.
func DetectKind(filename string, data []byte) Kind {
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".csv"):
		return KindCSV
	case strings.HasSuffix(name, ".ndjson"), strings.HasSuffix(name, ".jsonl"):
		return KindNDJSON
	case strings.HasSuffix(name, ".json"):
		return KindJSON
	case strings.HasSuffix(name, ".xlsx"):
		return KindXLSX
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	switch {
	case bytes.HasPrefix(data, xlsxMagic):
		return KindXLSX
	case len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{'):
		if looksLikeNDJSON(trimmed) {
			return KindNDJSON
		}
		return KindJSON
	case bytes.ContainsRune(data, ','):
		return KindCSV
	default:
		return KindUnknown
	}
}

// looksLikeNDJSON reports whether the content is a sequence of
// one-object-per-line records rather than a single JSON document.
func looksLikeNDJSON(trimmed []byte) bool {
	if trimmed[0] != '{' {
		return false
	}
	lines := 0
	for _, line := range bytes.Split(trimmed, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if line[0] != '{' || line[len(line)-1] != '}' {
			return false
		}
		lines++
	}
	return lines > 1
}

// Read detects the format and tokenizes the file in one step.
func Read(filename string, data []byte) ([]engine.Row, error) {
	kind := DetectKind(filename, data)
	switch kind {
	case KindCSV:
		return ReadCSV(data)
	case KindJSON:
		return ReadJSON(data)
	case KindNDJSON:
		return ReadNDJSON(data)
	case KindXLSX:
		return ReadXLSX(data)
	default:
		return nil, fmt.Errorf("unsupported file format for %q", filename)
	}
}
