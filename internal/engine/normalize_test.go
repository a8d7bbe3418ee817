package engine

import (
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newTestNormalizer(schema Schema) *Normalizer {
	n := NewNormalizer(schema, nil)
	n.Now = fixedNow
	return n
}

func TestNormalizeApplicationRow(t *testing.T) {
	n := newTestNormalizer(SchemaApplication)

	res := n.NormalizeRow(Row{
		"Entreprise":       StringCell("Acme"),
		"Poste":            StringCell("  Backend Dev  "),
		"Type":             StringCell("CDI"),
		"Lieu":             StringCell("Paris"),
		"Moyen":            StringCell("LinkedIn"),
		"Date (Postulé)":   StringCell("2025-01-15"),
		"Lien":             StringCell("https://example.com/job"),
		"Commentaire":      StringCell("follow up next week"),
		"Réponse":          StringCell("❌ Refusé"),
		"Favorite Color":   StringCell("green"), // unresolved, ignored
	})

	if !res.Accepted() {
		t.Fatalf("row rejected: %s", res.Rejected)
	}
	app := res.Application
	if app.Company != "Acme" {
		t.Errorf("company = %q", app.Company)
	}
	if app.Position != "Backend Dev" {
		t.Errorf("position = %q", app.Position)
	}
	if app.ContractType != "cdi" {
		t.Errorf("contract type = %q", app.ContractType)
	}
	if app.Location != "Paris" {
		t.Errorf("location = %q", app.Location)
	}
	if app.Source != "LinkedIn" {
		t.Errorf("source = %q", app.Source)
	}
	if app.AppliedAt != "2025-01-15" {
		t.Errorf("appliedAt = %q", app.AppliedAt)
	}
	if app.JobURL != "https://example.com/job" {
		t.Errorf("jobUrl = %q", app.JobURL)
	}
	if app.Status != StatusNegative {
		t.Errorf("status = %q", app.Status)
	}
	if len(app.Interviews) != 0 {
		t.Errorf("unexpected interviews: %d", len(app.Interviews))
	}
}

func TestNormalizeApplicationEmbeddedInterviews(t *testing.T) {
	n := newTestNormalizer(SchemaApplication)

	// Index 1 has a date, index 2 does not, so exactly one child
	// survives.
	res := n.NormalizeRow(Row{
		"Entreprise":       StringCell("Acme"),
		"Poste":            StringCell("Dev"),
		"Date Entretien 1": StringCell("2025-01-20"),
		"Type 1":           StringCell("Technique"),
		"Format 1":         StringCell("Visio"),
		"Statut 1":         StringCell("✅ Effectué"),
		"Date Entretien 2": StringCell(""),
		"Type 2":           StringCell("RH"),
	})

	if !res.Accepted() {
		t.Fatalf("row rejected: %s", res.Rejected)
	}
	app := res.Application
	if len(app.Interviews) != 1 {
		t.Fatalf("got %d interviews, want 1", len(app.Interviews))
	}
	iv := app.Interviews[0]
	if iv.ScheduledAt != "2025-01-20" {
		t.Errorf("scheduledAt = %q", iv.ScheduledAt)
	}
	if iv.Kind != "technical" {
		t.Errorf("kind = %q", iv.Kind)
	}
	if iv.Format != "video" {
		t.Errorf("format = %q", iv.Format)
	}
	if iv.Status != InterviewCompleted {
		t.Errorf("status = %q", iv.Status)
	}
}

func TestNormalizeApplicationRejections(t *testing.T) {
	n := newTestNormalizer(SchemaApplication)

	tests := []struct {
		name string
		row  Row
		want RejectionReason
	}{
		{
			name: "no identifying fields",
			row: Row{
				"Lieu":        StringCell("Paris"),
				"Commentaire": StringCell("nice offer"),
			},
			want: RejectNoIdentity,
		},
		{
			name: "entirely empty row",
			row: Row{
				"Entreprise": StringCell(""),
				"Poste":      StringCell("   "),
			},
			want: RejectEmptyRow,
		},
		{name: "nil row", row: nil, want: RejectEmptyRow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := n.NormalizeRow(tt.row)
			if res.Accepted() {
				t.Fatal("row unexpectedly accepted")
			}
			if res.Rejected != tt.want {
				t.Errorf("rejection = %q, want %q", res.Rejected, tt.want)
			}
		})
	}
}

func TestNormalizeApplicationCompanyOnly(t *testing.T) {
	n := newTestNormalizer(SchemaApplication)

	// Company OR position is enough.
	res := n.NormalizeRow(Row{"Entreprise": StringCell("Acme")})
	if !res.Accepted() {
		t.Fatalf("company-only row rejected: %s", res.Rejected)
	}
	if res.Application.Status != StatusPending {
		t.Errorf("default status = %q, want pending", res.Application.Status)
	}
	if res.Application.AppliedAt != fixedNow().Format(time.RFC3339) {
		t.Errorf("appliedAt default = %q", res.Application.AppliedAt)
	}
}

func TestNormalizeApplicationUnparseableDateDegrades(t *testing.T) {
	n := newTestNormalizer(SchemaApplication)

	res := n.NormalizeRow(Row{
		"Entreprise":       StringCell("Acme"),
		"Poste":            StringCell("Dev"),
		"date_candidature": StringCell("not a date at all"),
	})
	if !res.Accepted() {
		t.Fatalf("row rejected: %s", res.Rejected)
	}
	// The raw string is retained, not dropped and not defaulted.
	if res.Application.AppliedAt != "not a date at all" {
		t.Errorf("appliedAt = %q, want raw pass-through", res.Application.AppliedAt)
	}
}

func TestNormalizeInterviewRow(t *testing.T) {
	n := newTestNormalizer(SchemaInterview)

	res := n.NormalizeRow(Row{
		"Entreprise":     StringCell("Acme"),
		"date_entretien": StringCell("2025-02-01T10:00:00Z"),
		"type_entretien": StringCell("RH"),
		"Format":         StringCell("Téléphone"),
		"Recruteur":      StringCell("Jo"),
		"Statut":         StringCell("Annulé"),
	})

	if !res.Accepted() {
		t.Fatalf("row rejected: %s", res.Rejected)
	}
	iv := res.Interview
	if iv.ParentRef != "Acme" {
		t.Errorf("parentRef = %q", iv.ParentRef)
	}
	if iv.ScheduledAt != "2025-02-01T10:00:00Z" {
		t.Errorf("scheduledAt = %q", iv.ScheduledAt)
	}
	if iv.Kind != "rh" {
		t.Errorf("kind = %q", iv.Kind)
	}
	if iv.Format != "phone" {
		t.Errorf("format = %q", iv.Format)
	}
	if iv.Status != InterviewCancelled {
		t.Errorf("status = %q", iv.Status)
	}
}

func TestNormalizeInterviewRequiresDate(t *testing.T) {
	n := newTestNormalizer(SchemaInterview)

	// A parent reference alone is not sufficient.
	res := n.NormalizeRow(Row{"Entreprise": StringCell("Acme")})
	if res.Accepted() {
		t.Fatal("dateless interview row unexpectedly accepted")
	}
	if res.Rejected != RejectNoSchedule {
		t.Errorf("rejection = %q, want %q", res.Rejected, RejectNoSchedule)
	}
}

func TestNormalizeNumericDates(t *testing.T) {
	n := newTestNormalizer(SchemaApplication)

	// Spreadsheet serial date in the applied-at column.
	res := n.NormalizeRow(Row{
		"Entreprise": StringCell("Acme"),
		"Poste":      StringCell("Dev"),
		"Date":       NumberCell(45292),
	})
	if !res.Accepted() {
		t.Fatalf("row rejected: %s", res.Rejected)
	}
	want := "2024-01-01T00:00:00Z"
	if res.Application.AppliedAt != want {
		t.Errorf("appliedAt = %q, want %q", res.Application.AppliedAt, want)
	}
}
