package engine

import (
	"sort"
	"time"
)

// Row is one raw record from a tokenizer: raw column name to untyped
// cell value. The engine is agnostic to whether it came from JSON,
// NDJSON, CSV or a spreadsheet.
type Row map[string]Cell

// RejectionReason explains why a row produced no record. Rejections are
// not errors: they are counted and logged, never surfaced per-row.
type RejectionReason string

const (
	RejectEmptyRow   RejectionReason = "empty row"
	RejectNoIdentity RejectionReason = "no company or position resolved"
	RejectNoSchedule RejectionReason = "no interview date resolved"
)

// RowResult is the explicit accepted-or-rejected outcome of normalizing
// one raw row. Exactly one of Application/Interview is set when the row
// is accepted.
type RowResult struct {
	Application *CanonicalApplication
	Interview   *CanonicalInterview
	Rejected    RejectionReason
}

// Accepted reports whether the row produced a record.
func (r RowResult) Accepted() bool {
	return r.Application != nil || r.Interview != nil
}

// Normalizer turns raw rows into canonical records for one schema. It
// orchestrates the field resolver, the cell coercer and (for the
// application schema) the repeated-group detector.
type Normalizer struct {
	schema   Schema
	resolver *Resolver
	detector *GroupDetector

	// Now supplies the default timestamp for unresolvable applied
	// dates; overridable in tests.
	Now func() time.Time
}

// NewNormalizer builds a normalizer for the given schema.
func NewNormalizer(schema Schema, detector *GroupDetector) *Normalizer {
	table := ApplicationFields()
	if schema == SchemaInterview {
		table = InterviewFields()
	}
	if detector == nil {
		detector = NewGroupDetector()
	}
	return &Normalizer{
		schema:   schema,
		resolver: NewResolver(table),
		detector: detector,
		Now:      time.Now,
	}
}

// NormalizeRow converts one raw row into a canonical record plus zero
// or more embedded children. Malformed cells degrade to defaults or
// pass-through values; nothing here errors on a bad cell.
func (n *Normalizer) NormalizeRow(row Row) RowResult {
	if isEmptyRow(row) {
		return RowResult{Rejected: RejectEmptyRow}
	}

	fields := n.resolveFields(row)

	if n.schema == SchemaInterview {
		return n.normalizeInterview(fields)
	}
	return n.normalizeApplication(row, fields)
}

// resolveFields maps every raw key through the synonym table, keeping
// the first non-empty cell per canonical field. Unresolved keys are
// ignored without error.
func (n *Normalizer) resolveFields(row Row) map[string]Cell {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make(map[string]Cell)
	for _, key := range keys {
		field, ok := n.resolver.Resolve(key)
		if !ok {
			continue
		}
		if existing, seen := fields[field]; seen && !existing.IsEmpty() {
			continue
		}
		fields[field] = row[key]
	}
	return fields
}

func (n *Normalizer) normalizeApplication(row Row, fields map[string]Cell) RowResult {
	app := &CanonicalApplication{
		Company:      Coerce(fields[FieldCompany], TargetText),
		Position:     Coerce(fields[FieldPosition], TargetText),
		ContractType: CoerceContractType(fields[FieldContractType]),
		Location:     Coerce(fields[FieldLocation], TargetText),
		Source:       Coerce(fields[FieldSource], TargetText),
		AppliedAt:    Coerce(fields[FieldAppliedAt], TargetDate),
		JobURL:       Coerce(fields[FieldJobURL], TargetText),
		Note:         Coerce(fields[FieldNote], TargetText),
		Status:       ApplicationStatus(Coerce(fields[FieldStatus], TargetStatusApplication)),
	}

	if app.Company == "" && app.Position == "" {
		return RowResult{Rejected: RejectNoIdentity}
	}
	if app.AppliedAt == "" {
		app.AppliedAt = n.Now().UTC().Format(time.RFC3339)
	}

	app.Interviews = n.embeddedInterviews(row)
	return RowResult{Application: app}
}

// embeddedInterviews materializes child interviews from indexed column
// groups, each independently passing the child acceptance invariant.
func (n *Normalizer) embeddedInterviews(row Row) []CanonicalInterview {
	groups := n.detector.DetectGroups(rowKeys(row))
	if len(groups) == 0 {
		return nil
	}

	indices := make([]int, 0, len(groups))
	for idx := range groups {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	var children []CanonicalInterview
	for _, idx := range indices {
		g := groups[idx]
		scheduledAt := Coerce(row[g.DateKey], TargetDate)
		if scheduledAt == "" {
			continue
		}
		children = append(children, CanonicalInterview{
			ScheduledAt: scheduledAt,
			Kind:        CoerceInterviewKind(row[g.KindKey]),
			Format:      CoerceInterviewFormat(row[g.FormatKey]),
			Location:    Coerce(row[g.LocationKey], TargetText),
			Interviewer: Coerce(row[g.InterviewerKey], TargetText),
			Status:      InterviewStatus(Coerce(row[g.StatusKey], TargetStatusInterview)),
			Note:        Coerce(row[g.NoteKey], TargetText),
		})
	}
	return children
}

func (n *Normalizer) normalizeInterview(fields map[string]Cell) RowResult {
	iv := &CanonicalInterview{
		ParentRef:   Coerce(fields[FieldParentRef], TargetText),
		ScheduledAt: Coerce(fields[FieldScheduledAt], TargetDate),
		Kind:        CoerceInterviewKind(fields[FieldKind]),
		Format:      CoerceInterviewFormat(fields[FieldFormat]),
		Location:    Coerce(fields[FieldLocation], TargetText),
		Interviewer: Coerce(fields[FieldInterviewer], TargetText),
		Status:      InterviewStatus(Coerce(fields[FieldStatus], TargetStatusInterview)),
		Note:        Coerce(fields[FieldNote], TargetText),
	}

	// A parent reference alone is not enough to accept the row.
	if iv.ScheduledAt == "" {
		return RowResult{Rejected: RejectNoSchedule}
	}
	return RowResult{Interview: iv}
}

func isEmptyRow(row Row) bool {
	for _, c := range row {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

func rowKeys(row Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
