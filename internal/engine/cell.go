package engine

import (
	"fmt"
	"strconv"
	"time"
)

// CellKind discriminates the closed set of raw cell value shapes a
// tokenizer may hand to the engine.
type CellKind int

const (
	CellNull CellKind = iota
	CellString
	CellNumber
	CellBool
	CellTime
)

// Cell is a single untyped value from a raw row, modeled as a tagged
// union so the coercer can match exhaustively instead of probing
// runtime types.
type Cell struct {
	Kind CellKind
	Str  string
	Num  float64
	Bool bool
	Time time.Time
}

// NullCell is the absent value.
var NullCell = Cell{Kind: CellNull}

// StringCell wraps a string value.
func StringCell(s string) Cell { return Cell{Kind: CellString, Str: s} }

// NumberCell wraps a numeric value.
func NumberCell(f float64) Cell { return Cell{Kind: CellNumber, Num: f} }

// BoolCell wraps a boolean value.
func BoolCell(b bool) Cell { return Cell{Kind: CellBool, Bool: b} }

// TimeCell wraps an already-typed timestamp.
func TimeCell(t time.Time) Cell { return Cell{Kind: CellTime, Time: t} }

// CellFromAny bridges dynamically decoded values (encoding/json, excelize)
// into the closed union. Unknown types degrade to their string form.
func CellFromAny(v any) Cell {
	switch val := v.(type) {
	case nil:
		return NullCell
	case string:
		return StringCell(val)
	case float64:
		return NumberCell(val)
	case float32:
		return NumberCell(float64(val))
	case int:
		return NumberCell(float64(val))
	case int64:
		return NumberCell(float64(val))
	case bool:
		return BoolCell(val)
	case time.Time:
		return TimeCell(val)
	default:
		return StringCell(stringify(val))
	}
}

// IsEmpty reports whether the cell carries no usable value.
func (c Cell) IsEmpty() bool {
	switch c.Kind {
	case CellNull:
		return true
	case CellString:
		return trimmed(c.Str) == ""
	default:
		return false
	}
}

// String renders the cell as text, for previews and free-text fields.
func (c Cell) String() string {
	switch c.Kind {
	case CellString:
		return c.Str
	case CellNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case CellBool:
		return strconv.FormatBool(c.Bool)
	case CellTime:
		return c.Time.UTC().Format(time.RFC3339)
	default:
		return ""
	}
}

func stringify(v any) string {
	return fmt.Sprintf("%v", v)
}
