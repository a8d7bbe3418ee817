package engine

import (
	"strconv"
	"strings"
)

// DefaultMaxGroupIndex bounds how many embedded interview column groups
// are scanned per application row, keeping the scan linear in row width.
const DefaultMaxGroupIndex = 5

// InterviewGroup holds the raw column keys that make up one embedded
// interview inside an application row ("Date Entretien 2", "Type 2", …).
// DateKey is always set; the rest are optional.
type InterviewGroup struct {
	DateKey        string
	KindKey        string
	FormatKey      string
	LocationKey    string
	InterviewerKey string
	StatusKey      string
	NoteKey        string
}

// GroupDetector finds indexed interview column families in application
// rows. When Strict is set the index must be the trailing token of the
// header instead of appearing anywhere in it; the loose mode matches
// the historical behavior and can false-positive on unrelated digits
// (a "2024" header contains "2"), which is why the flag exists.
type GroupDetector struct {
	MaxIndex int
	Strict   bool
}

// NewGroupDetector returns a detector with the default index bound.
func NewGroupDetector() *GroupDetector {
	return &GroupDetector{MaxIndex: DefaultMaxGroupIndex}
}

// DetectGroups scans a row's column names for interview groups indexed
// 1..MaxIndex. A group whose date column cannot be found is discarded
// entirely: an interview without a date is meaningless.
func (d *GroupDetector) DetectGroups(rowKeys []string) map[int]InterviewGroup {
	maxIndex := d.MaxIndex
	if maxIndex <= 0 {
		maxIndex = DefaultMaxGroupIndex
	}

	folded := make([]string, len(rowKeys))
	for i, k := range rowKeys {
		folded[i] = Fold(k)
	}

	groups := make(map[int]InterviewGroup)
	for idx := 1; idx <= maxIndex; idx++ {
		dateKey := d.findKey(rowKeys, folded, idx, "date", "entretien")
		if dateKey == "" {
			continue
		}
		groups[idx] = InterviewGroup{
			DateKey:        dateKey,
			KindKey:        d.findKey(rowKeys, folded, idx, "type"),
			FormatKey:      d.findKey(rowKeys, folded, idx, "format"),
			LocationKey:    d.findKey(rowKeys, folded, idx, "lieu"),
			InterviewerKey: d.findInterviewerKey(rowKeys, folded, idx),
			StatusKey:      d.findKey(rowKeys, folded, idx, "statut"),
			NoteKey:        d.findKey(rowKeys, folded, idx, "commentaire"),
		}
	}
	return groups
}

// findKey returns the first raw key whose folded form contains every
// token and carries the index.
func (d *GroupDetector) findKey(rowKeys, folded []string, idx int, tokens ...string) string {
	for i, f := range folded {
		if !containsAll(f, tokens) {
			continue
		}
		if d.hasIndex(f, idx) {
			return rowKeys[i]
		}
	}
	return ""
}

func (d *GroupDetector) findInterviewerKey(rowKeys, folded []string, idx int) string {
	if k := d.findKey(rowKeys, folded, idx, "interviewer"); k != "" {
		return k
	}
	return d.findKey(rowKeys, folded, idx, "recruteur")
}

func (d *GroupDetector) hasIndex(foldedKey string, idx int) bool {
	n := strconv.Itoa(idx)
	if d.Strict {
		fields := strings.Fields(strings.ReplaceAll(foldedKey, "_", " "))
		return len(fields) > 0 && fields[len(fields)-1] == n
	}
	return strings.Contains(foldedKey, n)
}
