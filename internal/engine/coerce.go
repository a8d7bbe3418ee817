package engine

// coerce.go converts raw cells into canonical typed values.
//
// The coercer handles the messy reality of exported tracker data:
//   - Spreadsheet serial dates (days since the 1900 epoch, with a
//     fractional part for time of day)
//   - Unix timestamps in seconds or milliseconds
//   - Localized status text ("❌ Refusé", "rejected", "⏳ En attente")
//   - Accented, mixed-case headers and values
//
// All coercion is pure and total: unresolvable enums degrade to the most
// conservative tag and unparseable dates pass through unchanged. Nothing
// here ever returns an error.

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TargetType declares how a resolved field's value must be coerced.
type TargetType int

const (
	TargetText TargetType = iota
	TargetDate
	TargetStatusApplication
	TargetStatusInterview
)

// serialDateCutoff separates spreadsheet serial dates from Unix
// timestamps. Serial day counts stay far below it (100000 days is the
// year 2173); epoch timestamps are always above it.
const serialDateCutoff = 100000

// millisCutoff separates second-resolution Unix timestamps from
// millisecond ones (1e12 seconds is the year 33658).
const millisCutoff = 1e12

// serialEpoch is the spreadsheet day-zero (1899-12-30, accounting for
// the historical 1900 leap-year bug).
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// statusRule maps a normalized substring to a canonical tag. Tables are
// ordered: the first matching rule wins, so more specific rules must
// precede generic ones.
type statusRule struct {
	contains string
	tag      string
}

var applicationStatusRules = []statusRule{
	{"rejet", string(StatusNegative)},
	{"reject", string(StatusNegative)},
	{"refus", string(StatusNegative)},
	{"negativ", string(StatusNegative)},
	{"❌", string(StatusNegative)},
	{"accept", string(StatusPositive)},
	{"positiv", string(StatusPositive)},
	{"✅", string(StatusPositive)},
	// The no_response rules must stay ahead of the waiting rules so a
	// "sans reponse" value never falls through to the pending default.
	{"no_response", string(StatusNoResponse)},
	{"sans reponse", string(StatusNoResponse)},
	{"pas de reponse", string(StatusNoResponse)},
	{"attente", string(StatusPending)},
	{"pending", string(StatusPending)},
	{"⏳", string(StatusPending)},
}

var interviewStatusRules = []statusRule{
	{"realis", string(InterviewCompleted)},
	{"effectu", string(InterviewCompleted)},
	{"complet", string(InterviewCompleted)},
	{"✅", string(InterviewCompleted)},
	{"annul", string(InterviewCancelled)},
	{"cancel", string(InterviewCancelled)},
	{"❌", string(InterviewCancelled)},
	{"planifi", string(InterviewPlanned)},
	{"plann", string(InterviewPlanned)},
	{"prevu", string(InterviewPlanned)},
}

// Open-enum normalization maps carried over from the original importer.
// Unrecognized values pass through for contract types and fall back to
// a safe tag for interview kinds/formats.
var contractTypes = map[string]string{
	"cdi":            "cdi",
	"permanent":      "cdi",
	"full-time":      "cdi",
	"full time":      "cdi",
	"cdd":            "cdd",
	"fixed-term":     "cdd",
	"stage":          "stage",
	"internship":     "stage",
	"alternance":     "alternance",
	"apprentissage":  "alternance",
	"apprenticeship": "alternance",
	"freelance":      "freelance",
	"contract":       "freelance",
	"interim":        "interim",
	"temp":           "interim",
}

var interviewKinds = map[string]string{
	"rh":                  "rh",
	"hr":                  "rh",
	"ressources humaines": "rh",
	"technique":           "technical",
	"technical":           "technical",
	"tech":                "technical",
	"manager":             "manager",
	"managerial":          "manager",
	"final":               "final",
	"finale":              "final",
}

var interviewFormats = map[string]string{
	"visio":           "video",
	"video":           "video",
	"visioconference": "video",
	"teams":           "video",
	"zoom":            "video",
	"meet":            "video",
	"telephone":       "phone",
	"phone":           "phone",
	"tel":             "phone",
	"presentiel":      "in_person",
	"in_person":       "in_person",
	"sur site":        "in_person",
	"on site":         "in_person",
	"onsite":          "in_person",
}

// dateLayouts are the string shapes accepted as "already a valid
// calendar date". Parsing only gates the cleanup path; strings that
// fail every layout still pass through unchanged.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// Coerce converts a raw cell into a canonical value for the given
// target type. The empty string means "no value".
func Coerce(c Cell, t TargetType) string {
	switch t {
	case TargetDate:
		return coerceDate(c)
	case TargetStatusApplication:
		return coerceStatus(c, applicationStatusRules, string(StatusPending))
	case TargetStatusInterview:
		return coerceStatus(c, interviewStatusRules, string(InterviewPlanned))
	default:
		return trimmed(c.String())
	}
}

// CoerceContractType normalizes a contract-type value against the open
// enum; unknown values pass through lowercased.
func CoerceContractType(c Cell) string {
	raw := trimmed(c.String())
	if raw == "" {
		return ""
	}
	folded := Fold(raw)
	if canonical, ok := contractTypes[folded]; ok {
		return canonical
	}
	return folded
}

// CoerceInterviewKind normalizes an interview-kind value; unknown
// non-empty values become "other".
func CoerceInterviewKind(c Cell) string {
	raw := trimmed(c.String())
	if raw == "" {
		return ""
	}
	if canonical, ok := interviewKinds[Fold(raw)]; ok {
		return canonical
	}
	return "other"
}

// CoerceInterviewFormat normalizes an interview-format value; unknown
// non-empty values default to "video" (the original importer's choice).
func CoerceInterviewFormat(c Cell) string {
	raw := trimmed(c.String())
	if raw == "" {
		return ""
	}
	if canonical, ok := interviewFormats[Fold(raw)]; ok {
		return canonical
	}
	return "video"
}

func coerceDate(c Cell) string {
	switch c.Kind {
	case CellTime:
		return c.Time.UTC().Format(time.RFC3339)
	case CellNumber:
		return serialOrEpochDate(c.Num)
	case CellString:
		return cleanDateString(c.Str)
	default:
		return ""
	}
}

// serialOrEpochDate interprets a numeric cell as either a spreadsheet
// serial date (small values) or a Unix timestamp (large values).
func serialOrEpochDate(n float64) string {
	if n <= 0 {
		return ""
	}
	if n < serialDateCutoff {
		days := int(n)
		frac := n - float64(days)
		t := serialEpoch.AddDate(0, 0, days).
			Add(time.Duration(frac * 24 * float64(time.Hour)))
		return t.UTC().Format(time.RFC3339)
	}
	if n >= millisCutoff {
		return time.UnixMilli(int64(n)).UTC().Format(time.RFC3339)
	}
	return time.Unix(int64(n), 0).UTC().Format(time.RFC3339)
}

// cleanDateString tidies strings that parse as calendar dates
// ("2024-11-29 00:00:00.000000" becomes ISO-ish) and passes everything
// else through untouched. Downstream persistence decides what to do
// with the leftovers; this layer never drops a value.
func cleanDateString(s string) string {
	s = trimmed(s)
	if s == "" {
		return ""
	}
	candidate := s
	// Exports frequently use a space separator and long fractional
	// seconds; normalize those before the parse check.
	if len(candidate) > 10 && candidate[10] == ' ' {
		candidate = candidate[:10] + "T" + candidate[11:]
	}
	if dot := strings.Index(candidate, "."); dot > 0 && len(candidate)-dot > 7 {
		candidate = candidate[:dot+7]
	}
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, candidate); err == nil {
			return candidate
		}
	}
	return s
}

func coerceStatus(c Cell, rules []statusRule, fallback string) string {
	raw := trimmed(c.String())
	if raw == "" {
		return fallback
	}
	folded := Fold(raw)
	for _, r := range rules {
		if strings.Contains(folded, r.contains) {
			return r.tag
		}
	}
	return fallback
}

// foldTransformer strips combining marks after NFD decomposition, then
// recomposes. Shared by value and header normalization.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases a string and strips diacritics ("Société" becomes
// "societe"), the shared normalization for synonym matching and status
// tables.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
