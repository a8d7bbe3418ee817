package engine

import "testing"

func TestDetectGroups(t *testing.T) {
	d := NewGroupDetector()

	keys := []string{
		"Entreprise",
		"Poste",
		"Date Entretien 1",
		"Type 1",
		"Format 1",
		"Lieu 1",
		"Recruteur 1",
		"Statut 1",
		"Commentaire 1",
		"Date Entretien 2",
		"Type 2",
	}

	groups := d.DetectGroups(keys)
	if len(groups) != 2 {
		t.Fatalf("detected %d groups, want 2", len(groups))
	}

	g1, ok := groups[1]
	if !ok {
		t.Fatal("group 1 missing")
	}
	if g1.DateKey != "Date Entretien 1" {
		t.Errorf("group 1 date key = %q", g1.DateKey)
	}
	if g1.KindKey != "Type 1" {
		t.Errorf("group 1 kind key = %q", g1.KindKey)
	}
	if g1.FormatKey != "Format 1" {
		t.Errorf("group 1 format key = %q", g1.FormatKey)
	}
	if g1.LocationKey != "Lieu 1" {
		t.Errorf("group 1 location key = %q", g1.LocationKey)
	}
	if g1.InterviewerKey != "Recruteur 1" {
		t.Errorf("group 1 interviewer key = %q", g1.InterviewerKey)
	}
	if g1.StatusKey != "Statut 1" {
		t.Errorf("group 1 status key = %q", g1.StatusKey)
	}
	if g1.NoteKey != "Commentaire 1" {
		t.Errorf("group 1 note key = %q", g1.NoteKey)
	}

	g2 := groups[2]
	if g2.DateKey != "Date Entretien 2" {
		t.Errorf("group 2 date key = %q", g2.DateKey)
	}
	if g2.KindKey != "Type 2" {
		t.Errorf("group 2 kind key = %q", g2.KindKey)
	}
	if g2.FormatKey != "" {
		t.Errorf("group 2 format key = %q, want none", g2.FormatKey)
	}
}

func TestDetectGroupsNoDateNoGroup(t *testing.T) {
	d := NewGroupDetector()

	// Sibling columns without a date column do not form a group.
	groups := d.DetectGroups([]string{"Entreprise", "Type 1", "Format 1"})
	if len(groups) != 0 {
		t.Errorf("detected %d groups without any date key, want 0", len(groups))
	}
}

func TestDetectGroupsRespectsMaxIndex(t *testing.T) {
	d := &GroupDetector{MaxIndex: 2}

	keys := []string{"Date Entretien 1", "Date Entretien 2", "Date Entretien 3"}
	groups := d.DetectGroups(keys)
	if len(groups) != 2 {
		t.Errorf("detected %d groups with MaxIndex=2, want 2", len(groups))
	}
}

func TestDetectGroupsStrictIndex(t *testing.T) {
	// Loose matching false-positives on digits anywhere in the header;
	// strict mode requires the index as the trailing token.
	keys := []string{"Date Entretien 2024 review", "Date Entretien 1"}

	loose := NewGroupDetector()
	looseGroups := loose.DetectGroups(keys)
	if _, ok := looseGroups[2]; !ok {
		t.Error("loose mode should match the 2 inside 2024")
	}

	strict := &GroupDetector{MaxIndex: DefaultMaxGroupIndex, Strict: true}
	strictGroups := strict.DetectGroups(keys)
	if _, ok := strictGroups[2]; ok {
		t.Error("strict mode must not match the 2 inside 2024")
	}
	if _, ok := strictGroups[1]; !ok {
		t.Error("strict mode should still match a trailing index")
	}
}

func TestDetectGroupsUnderscoreForm(t *testing.T) {
	strict := &GroupDetector{MaxIndex: DefaultMaxGroupIndex, Strict: true}

	groups := strict.DetectGroups([]string{"date_entretien_1", "type_entretien_1"})
	g, ok := groups[1]
	if !ok {
		t.Fatal("underscore form not detected")
	}
	if g.KindKey != "type_entretien_1" {
		t.Errorf("kind key = %q", g.KindKey)
	}
}
