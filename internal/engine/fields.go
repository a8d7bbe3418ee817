package engine

import "strings"

// Canonical field names for the two target schemas.
const (
	FieldCompany      = "company"
	FieldPosition     = "position"
	FieldContractType = "contractType"
	FieldLocation     = "location"
	FieldSource       = "source"
	FieldAppliedAt    = "appliedAt"
	FieldJobURL       = "jobUrl"
	FieldNote         = "note"
	FieldStatus       = "status"

	FieldParentRef   = "parentRef"
	FieldScheduledAt = "scheduledAt"
	FieldKind        = "kind"
	FieldFormat      = "format"
	FieldInterviewer = "interviewer"
)

// matchMode selects how a synonym rule matches a normalized header.
type matchMode int

const (
	matchExact matchMode = iota
	// matchContainsAll matches headers containing every listed token,
	// used for compound/date-like headers ("Date (Postulé)").
	matchContainsAll
)

// FieldRule is a single pattern-to-canonical-field entry of a synonym
// table. Patterns are compared after Fold normalization.
type FieldRule struct {
	Mode    matchMode
	Pattern string   // exact token for matchExact
	Tokens  []string // required substrings for matchContainsAll
	Field   string
	Type    TargetType
}

// SynonymTable is an ordered, immutable list of field rules for one
// schema. Order is part of the contract: the first matching rule wins,
// so specific rules must precede generic ones.
type SynonymTable struct {
	Schema Schema
	Rules  []FieldRule
}

// Resolver maps raw column names to canonical fields using an injected
// synonym table.
type Resolver struct {
	table SynonymTable
	types map[string]TargetType
}

// NewResolver builds a resolver over the given table.
func NewResolver(table SynonymTable) *Resolver {
	types := make(map[string]TargetType, len(table.Rules))
	for _, r := range table.Rules {
		if _, seen := types[r.Field]; !seen {
			types[r.Field] = r.Type
		}
	}
	return &Resolver{table: table, types: types}
}

// Resolve maps a raw column name to a canonical field name. The second
// return is false when no rule matches; the caller must ignore such
// columns rather than error.
func (r *Resolver) Resolve(rawColumnName string) (string, bool) {
	key := Fold(rawColumnName)
	if key == "" {
		return "", false
	}
	for _, rule := range r.table.Rules {
		switch rule.Mode {
		case matchExact:
			if key == rule.Pattern {
				return rule.Field, true
			}
		case matchContainsAll:
			if containsAll(key, rule.Tokens) {
				return rule.Field, true
			}
		}
	}
	return "", false
}

// TypeOf returns the declared target type for a canonical field.
func (r *Resolver) TypeOf(field string) TargetType {
	return r.types[field]
}

func containsAll(s string, tokens []string) bool {
	for _, tok := range tokens {
		if !strings.Contains(s, tok) {
			return false
		}
	}
	return true
}

func exact(pattern, field string, t TargetType) FieldRule {
	return FieldRule{Mode: matchExact, Pattern: pattern, Field: field, Type: t}
}

func contains(field string, t TargetType, tokens ...string) FieldRule {
	return FieldRule{Mode: matchContainsAll, Tokens: tokens, Field: field, Type: t}
}

// ApplicationFields returns the synonym table for the application
// schema. Compound date rules come first so that headers like
// "Date (Postulé)" resolve before the bare "date" token.
func ApplicationFields() SynonymTable {
	return SynonymTable{
		Schema: SchemaApplication,
		Rules: []FieldRule{
			contains(FieldAppliedAt, TargetDate, "date", "postule"),
			contains(FieldAppliedAt, TargetDate, "date", "candidature"),
			contains(FieldAppliedAt, TargetDate, "applied", "date"),

			exact("entreprise", FieldCompany, TargetText),
			exact("company", FieldCompany, TargetText),
			exact("societe", FieldCompany, TargetText),
			exact("employeur", FieldCompany, TargetText),

			exact("poste", FieldPosition, TargetText),
			exact("position", FieldPosition, TargetText),
			exact("job", FieldPosition, TargetText),
			exact("titre", FieldPosition, TargetText),
			exact("title", FieldPosition, TargetText),
			exact("intitule", FieldPosition, TargetText),

			exact("type_poste", FieldContractType, TargetText),
			exact("type", FieldContractType, TargetText),
			exact("contrat", FieldContractType, TargetText),
			exact("contract", FieldContractType, TargetText),

			exact("lieu", FieldLocation, TargetText),
			exact("location", FieldLocation, TargetText),
			exact("ville", FieldLocation, TargetText),
			exact("city", FieldLocation, TargetText),

			exact("moyen", FieldSource, TargetText),
			exact("source", FieldSource, TargetText),
			exact("method", FieldSource, TargetText),
			exact("canal", FieldSource, TargetText),

			exact("date_candidature", FieldAppliedAt, TargetDate),
			exact("applied_date", FieldAppliedAt, TargetDate),
			exact("date", FieldAppliedAt, TargetDate),

			exact("lien", FieldJobURL, TargetText),
			exact("link", FieldJobURL, TargetText),
			exact("url", FieldJobURL, TargetText),

			exact("commentaire", FieldNote, TargetText),
			exact("comment", FieldNote, TargetText),
			exact("note", FieldNote, TargetText),
			exact("notes", FieldNote, TargetText),

			exact("reponse", FieldStatus, TargetStatusApplication),
			exact("status", FieldStatus, TargetStatusApplication),
			exact("statut", FieldStatus, TargetStatusApplication),
			exact("response", FieldStatus, TargetStatusApplication),
			exact("etat", FieldStatus, TargetStatusApplication),
		},
	}
}

// InterviewFields returns the synonym table for the interview schema.
func InterviewFields() SynonymTable {
	return SynonymTable{
		Schema: SchemaInterview,
		Rules: []FieldRule{
			contains(FieldScheduledAt, TargetDate, "date", "entretien"),
			contains(FieldScheduledAt, TargetDate, "interview", "date"),

			exact("date_entretien", FieldScheduledAt, TargetDate),
			exact("date", FieldScheduledAt, TargetDate),

			exact("candidature_id", FieldParentRef, TargetText),
			exact("candidature", FieldParentRef, TargetText),
			exact("entreprise", FieldParentRef, TargetText),
			exact("company", FieldParentRef, TargetText),
			exact("societe", FieldParentRef, TargetText),

			exact("type_entretien", FieldKind, TargetText),
			exact("type", FieldKind, TargetText),

			exact("format_entretien", FieldFormat, TargetText),
			exact("format", FieldFormat, TargetText),

			exact("lieu_lien", FieldLocation, TargetText),
			exact("lieu/lien", FieldLocation, TargetText),
			exact("lieu_entretien", FieldLocation, TargetText),
			exact("lieu", FieldLocation, TargetText),
			exact("location", FieldLocation, TargetText),

			exact("interviewer", FieldInterviewer, TargetText),
			exact("recruteur", FieldInterviewer, TargetText),
			exact("recruiter", FieldInterviewer, TargetText),

			exact("statut", FieldStatus, TargetStatusInterview),
			exact("status", FieldStatus, TargetStatusInterview),

			exact("commentaire", FieldNote, TargetText),
			exact("comment", FieldNote, TargetText),
			exact("note", FieldNote, TargetText),
			exact("notes", FieldNote, TargetText),
		},
	}
}
