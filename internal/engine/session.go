package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// State is the lifecycle position of an import session.
type State string

const (
	StateIdle       State = "idle"
	StatePreviewing State = "previewing"
	StateCommitting State = "committing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Typed errors for illegal session transitions.
var (
	ErrNoPreview      = errors.New("no preview loaded")
	ErrCommitInFlight = errors.New("a commit is already in progress")
	ErrNoData         = errors.New("no data found: check the file format")
)

// Committer is the external persistence collaborator. The engine does
// not specify transport; it only requires this call shape. A returned
// error fails the whole session; partial-failure semantics, if any, are
// reported through the result's Errors.
type Committer interface {
	Commit(ctx context.Context, records RecordSet) (*ImportResult, error)
}

// Session coordinates one import: normalize the whole dataset, hold the
// preview until the user confirms or cancels, then dispatch the full
// set to the persistence collaborator in a single call.
//
// Importing the same file twice produces two independent record sets;
// the session performs no deduplication by design.
type Session struct {
	mu         sync.Mutex
	state      State
	schema     Schema
	normalizer *Normalizer
	committer  Committer
	logger     *slog.Logger

	preview *ImportPreview
	result  *ImportResult
	failure error
}

// NewSession creates an idle session for one schema.
func NewSession(schema Schema, normalizer *Normalizer, committer Committer, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		state:      StateIdle,
		schema:     schema,
		normalizer: normalizer,
		committer:  committer,
		logger:     logger,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Load normalizes a parsed dataset and builds the preview, moving the
// session from Idle to Previewing. Rows are processed sequentially so
// preview ordering and skip counting stay deterministic. A dataset that
// yields zero accepted records fails the session instead of producing
// an empty preview.
func (s *Session) Load(rows []Row) (*ImportPreview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateCommitting {
		return nil, ErrCommitInFlight
	}

	full := RecordSet{Schema: s.schema}
	skipped := 0
	for _, row := range rows {
		res := s.normalizer.NormalizeRow(row)
		if !res.Accepted() {
			skipped++
			continue
		}
		if res.Application != nil {
			full.Applications = append(full.Applications, *res.Application)
		}
		if res.Interview != nil {
			full.Interviews = append(full.Interviews, *res.Interview)
		}
	}

	if full.Len() == 0 {
		s.state = StateFailed
		s.failure = ErrNoData
		s.logger.Warn("import produced no records",
			"schema", s.schema, "rows", len(rows), "skipped", skipped)
		return nil, ErrNoData
	}

	s.preview = &ImportPreview{
		TotalRows:   len(rows),
		SkippedRows: skipped,
		Sample:      sampleOf(full),
		Full:        full,
	}
	s.result = nil
	s.failure = nil
	s.state = StatePreviewing

	s.logger.Info("import preview ready",
		"schema", s.schema,
		"rows", len(rows),
		"accepted", full.Len(),
		"skipped", skipped)
	return s.preview, nil
}

// Preview returns the current preview, or ErrNoPreview outside the
// Previewing state.
func (s *Session) Preview() (*ImportPreview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePreviewing || s.preview == nil {
		return nil, ErrNoPreview
	}
	return s.preview, nil
}

// Confirm sends the full normalized set to the persistence collaborator
// in one call and reports its structured result. Only one commit may be
// in flight; a concurrent Confirm is rejected. Once committing, the
// operation runs to completion or failure with no mid-flight
// cancellation.
func (s *Session) Confirm(ctx context.Context) (*ImportResult, error) {
	s.mu.Lock()
	switch s.state {
	case StateCommitting:
		s.mu.Unlock()
		return nil, ErrCommitInFlight
	case StatePreviewing:
		// proceed
	default:
		s.mu.Unlock()
		return nil, ErrNoPreview
	}
	preview := s.preview
	s.state = StateCommitting
	s.mu.Unlock()

	result, err := s.committer.Commit(ctx, preview.Full)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state = StateFailed
		s.failure = err
		s.result = &ImportResult{
			Success:      false,
			SkippedCount: preview.Full.Len(),
			Errors:       []string{err.Error()},
		}
		s.logger.Error("import commit failed", "schema", s.schema, "error", err)
		return s.result, fmt.Errorf("commit: %w", err)
	}

	// The interface does not forbid a nil result with a nil error;
	// treat that as a collaborator failure rather than panic.
	if result == nil {
		s.state = StateFailed
		s.result = &ImportResult{
			Success:      false,
			SkippedCount: preview.Full.Len(),
			Errors:       []string{"commit returned no result"},
		}
		s.logger.Error("import commit returned no result", "schema", s.schema)
		return s.result, errors.New("commit returned no result")
	}

	// Rows the normalizer dropped count as skipped alongside whatever
	// the collaborator reported.
	result.SkippedCount += preview.SkippedRows
	s.result = result
	s.preview = nil
	if result.Success {
		s.state = StateCompleted
	} else {
		s.state = StateFailed
	}

	s.logger.Info("import committed",
		"schema", s.schema,
		"imported", result.ImportedCount,
		"skipped", result.SkippedCount,
		"errors", len(result.Errors))
	return result, nil
}

// Cancel discards the preview and returns the session to Idle. It has
// no side effects and is a no-op once a commit is running.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateCommitting {
		return ErrCommitInFlight
	}
	s.preview = nil
	s.result = nil
	s.failure = nil
	s.state = StateIdle
	return nil
}

// Result returns the outcome of the last commit attempt, if any.
func (s *Session) Result() (*ImportResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil, false
	}
	return s.result, true
}

// sampleOf truncates a record set to the preview sample size.
func sampleOf(full RecordSet) RecordSet {
	sample := RecordSet{Schema: full.Schema}
	switch full.Schema {
	case SchemaInterview:
		sample.Interviews = full.Interviews[:min(PreviewSampleSize, len(full.Interviews))]
	default:
		sample.Applications = full.Applications[:min(PreviewSampleSize, len(full.Applications))]
	}
	return sample
}
