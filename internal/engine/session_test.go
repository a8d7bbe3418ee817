package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeCommitter records commits and returns a canned result.
type fakeCommitter struct {
	calls   int
	lastSet RecordSet
	result  *ImportResult
	err     error
	block   chan struct{} // if set, Commit waits until closed
	entered chan struct{} // closed once Commit is running
}

func (f *fakeCommitter) Commit(ctx context.Context, records RecordSet) (*ImportResult, error) {
	f.calls++
	f.lastSet = records
	if f.entered != nil {
		close(f.entered)
		f.entered = nil
	}
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &ImportResult{Success: true, ImportedCount: records.Len()}, nil
}

func appRows(n int) []Row {
	rows := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, Row{
			"Entreprise": StringCell(fmt.Sprintf("Company %d", i)),
			"Poste":      StringCell("Dev"),
		})
	}
	return rows
}

func newTestSession(c Committer) *Session {
	return NewSession(SchemaApplication, newTestNormalizer(SchemaApplication), c, nil)
}

func TestSessionPreviewAndConfirm(t *testing.T) {
	committer := &fakeCommitter{}
	s := newTestSession(committer)

	preview, err := s.Load(appRows(25))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.State() != StatePreviewing {
		t.Errorf("state = %s, want previewing", s.State())
	}
	if preview.TotalRows != 25 {
		t.Errorf("totalRows = %d", preview.TotalRows)
	}
	if len(preview.Sample.Applications) != PreviewSampleSize {
		t.Errorf("sample size = %d, want %d", len(preview.Sample.Applications), PreviewSampleSize)
	}
	if len(preview.Full.Applications) != 25 {
		t.Errorf("full size = %d, want 25", len(preview.Full.Applications))
	}

	result, err := s.Confirm(context.Background())
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if !result.Success || result.ImportedCount != 25 {
		t.Errorf("result = %+v", result)
	}
	if committer.calls != 1 {
		t.Errorf("committer called %d times, want 1", committer.calls)
	}
	if committer.lastSet.Len() != 25 {
		t.Errorf("committed %d records, want 25", committer.lastSet.Len())
	}
	if s.State() != StateCompleted {
		t.Errorf("state = %s, want completed", s.State())
	}
}

func TestSessionSkippedRowsCounted(t *testing.T) {
	committer := &fakeCommitter{}
	s := newTestSession(committer)

	// Three rows: valid, degraded date (still accepted), fully empty.
	rows := []Row{
		{"Entreprise": StringCell("Acme"), "Poste": StringCell("Dev")},
		{
			"Entreprise":       StringCell("Globex"),
			"Poste":            StringCell("Ops"),
			"date_candidature": StringCell("not a date"),
		},
		{"Entreprise": StringCell(""), "Poste": StringCell("")},
	}

	preview, err := s.Load(rows)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(preview.Full.Applications) != 2 {
		t.Fatalf("accepted %d rows, want 2", len(preview.Full.Applications))
	}
	if preview.SkippedRows != 1 {
		t.Errorf("skippedRows = %d, want 1", preview.SkippedRows)
	}
	// Degraded date is retained verbatim.
	if got := preview.Full.Applications[1].AppliedAt; got != "not a date" {
		t.Errorf("degraded appliedAt = %q", got)
	}

	result, err := s.Confirm(context.Background())
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if result.SkippedCount != 1 {
		t.Errorf("skippedCount = %d, want 1", result.SkippedCount)
	}
}

func TestSessionEmptyDatasetFails(t *testing.T) {
	s := newTestSession(&fakeCommitter{})

	_, err := s.Load([]Row{
		{"Lieu": StringCell("Paris")},
		{},
	})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("Load error = %v, want ErrNoData", err)
	}
	if s.State() != StateFailed {
		t.Errorf("state = %s, want failed", s.State())
	}
	if _, err := s.Preview(); !errors.Is(err, ErrNoPreview) {
		t.Errorf("Preview after failure = %v, want ErrNoPreview", err)
	}
}

func TestSessionCancelDiscardsPreview(t *testing.T) {
	committer := &fakeCommitter{}
	s := newTestSession(committer)

	if _, err := s.Load(appRows(3)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if s.State() != StateIdle {
		t.Errorf("state = %s, want idle", s.State())
	}
	if committer.calls != 0 {
		t.Errorf("cancel must not commit, got %d calls", committer.calls)
	}
	if _, err := s.Confirm(context.Background()); !errors.Is(err, ErrNoPreview) {
		t.Errorf("Confirm after cancel = %v, want ErrNoPreview", err)
	}
}

func TestSessionCommitFailure(t *testing.T) {
	committer := &fakeCommitter{err: errors.New("service unavailable")}
	s := newTestSession(committer)

	if _, err := s.Load(appRows(2)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	result, err := s.Confirm(context.Background())
	if err == nil {
		t.Fatal("Confirm should surface the collaborator failure")
	}
	if result == nil || result.Success {
		t.Fatalf("result = %+v, want failure", result)
	}
	if len(result.Errors) != 1 || result.Errors[0] != "service unavailable" {
		t.Errorf("errors = %v, want the collaborator message", result.Errors)
	}
	if s.State() != StateFailed {
		t.Errorf("state = %s, want failed", s.State())
	}
}

func TestSessionSingleInFlightCommit(t *testing.T) {
	committer := &fakeCommitter{
		block:   make(chan struct{}),
		entered: make(chan struct{}),
	}
	s := newTestSession(committer)

	if _, err := s.Load(appRows(2)); err != nil {
		t.Fatalf("Load: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Confirm(context.Background())
	}()

	<-committer.entered
	if s.State() != StateCommitting {
		t.Errorf("state = %s, want committing", s.State())
	}

	// A second confirm while one is in flight is rejected, as is cancel.
	if _, err := s.Confirm(context.Background()); !errors.Is(err, ErrCommitInFlight) {
		t.Errorf("concurrent Confirm = %v, want ErrCommitInFlight", err)
	}
	if err := s.Cancel(); !errors.Is(err, ErrCommitInFlight) {
		t.Errorf("Cancel while committing = %v, want ErrCommitInFlight", err)
	}

	close(committer.block)
	<-done

	if committer.calls != 1 {
		t.Errorf("committer called %d times, want 1", committer.calls)
	}
	if s.State() != StateCompleted {
		t.Errorf("state = %s, want completed", s.State())
	}
}

// nilCommitter violates the contract by returning neither a result
// nor an error.
type nilCommitter struct{}

func (nilCommitter) Commit(ctx context.Context, records RecordSet) (*ImportResult, error) {
	return nil, nil
}

func TestSessionNilCommitResult(t *testing.T) {
	s := newTestSession(nilCommitter{})

	if _, err := s.Load(appRows(2)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	result, err := s.Confirm(context.Background())
	if err == nil {
		t.Fatal("Confirm should fail when the collaborator returns nothing")
	}
	if result == nil || result.Success {
		t.Fatalf("result = %+v, want failure", result)
	}
	if s.State() != StateFailed {
		t.Errorf("state = %s, want failed", s.State())
	}
}

func TestSessionCollaboratorReportedErrors(t *testing.T) {
	// The collaborator may report partial failure through the result
	// rather than an error; the session passes it through.
	committer := &fakeCommitter{result: &ImportResult{
		Success:       true,
		ImportedCount: 1,
		SkippedCount:  1,
		Errors:        []string{"row 2: duplicate"},
	}}
	s := newTestSession(committer)

	if _, err := s.Load(appRows(2)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	result, err := s.Confirm(context.Background())
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if result.ImportedCount != 1 || result.SkippedCount != 1 {
		t.Errorf("result = %+v", result)
	}
	if len(result.Errors) != 1 {
		t.Errorf("errors = %v", result.Errors)
	}
}

func TestCommitEmptySetDirectly(t *testing.T) {
	// Unreachable through the session (Load fails first), but a direct
	// commit of an empty set must return zero counts without errors.
	committer := &fakeCommitter{}
	result, err := committer.Commit(context.Background(), RecordSet{Schema: SchemaApplication})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if result.ImportedCount != 0 {
		t.Errorf("importedCount = %d, want 0", result.ImportedCount)
	}
}
