// Package store persists committed record sets to Postgres.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jobtrackr/importer/internal/engine"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// TxBeginner starts transactions. Satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Postgres writes record sets inside a single transaction, with a
// savepoint around every record so one bad row never poisons the rest.
// It implements engine.Committer.
type Postgres struct {
	pool   TxBeginner
	logger *slog.Logger
}

func NewPostgres(pool TxBeginner, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{pool: pool, logger: logger}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS applications (
	id            UUID PRIMARY KEY,
	company       TEXT NOT NULL,
	position      TEXT,
	contract_type TEXT,
	location      TEXT,
	source        TEXT,
	applied_at    TIMESTAMPTZ,
	applied_at_raw TEXT,
	job_url       TEXT,
	note          TEXT,
	status        TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS interviews (
	id               UUID PRIMARY KEY,
	application_id   UUID REFERENCES applications(id) ON DELETE CASCADE,
	parent_ref       TEXT,
	scheduled_at     TIMESTAMPTZ,
	scheduled_at_raw TEXT,
	kind             TEXT,
	format           TEXT,
	location         TEXT,
	interviewer      TEXT,
	status           TEXT NOT NULL,
	note             TEXT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// EnsureSchema creates the destination tables when they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return tx.Commit(ctx)
}

// Commit inserts the record set in one transaction. Per-record
// failures roll back to a savepoint and are reported in the result;
// only transaction-level failures return an error.
func (p *Postgres) Commit(ctx context.Context, records engine.RecordSet) (*engine.ImportResult, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result := &engine.ImportResult{}

	for i, app := range records.Applications {
		err := withSavepoint(ctx, tx, i, func() error {
			return p.insertApplication(ctx, tx, app)
		})
		if err != nil {
			result.SkippedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("application %d (%s): %v", i+1, app.Company, err))
			continue
		}
		result.ImportedCount++
	}

	for i, iv := range records.Interviews {
		err := withSavepoint(ctx, tx, len(records.Applications)+i, func() error {
			return p.insertStandaloneInterview(ctx, tx, iv)
		})
		if err != nil {
			result.SkippedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("interview %d: %v", i+1, err))
			continue
		}
		result.ImportedCount++
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	result.Success = len(result.Errors) == 0
	p.logger.Info("record set committed",
		"schema", records.Schema,
		"imported", result.ImportedCount,
		"skipped", result.SkippedCount,
	)
	return result, nil
}

// withSavepoint runs fn inside a savepoint and rolls back to it when
// fn fails, leaving the surrounding transaction usable.
func withSavepoint(ctx context.Context, tx DBTX, n int, fn func() error) error {
	name := fmt.Sprintf("sp_%d", n)
	if _, err := tx.Exec(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("create savepoint: %w", err)
	}
	if err := fn(); err != nil {
		_, _ = tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+name)
		return err
	}
	_, _ = tx.Exec(ctx, "RELEASE SAVEPOINT "+name)
	return nil
}

const insertApplicationSQL = `
INSERT INTO applications
	(id, company, position, contract_type, location, source,
	 applied_at, applied_at_raw, job_url, note, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

func (p *Postgres) insertApplication(ctx context.Context, tx DBTX, app engine.CanonicalApplication) error {
	id := uuid.New()
	appliedAt, appliedRaw := splitTimestamp(app.AppliedAt)

	_, err := tx.Exec(ctx, insertApplicationSQL,
		id,
		app.Company,
		nullText(app.Position),
		nullText(app.ContractType),
		nullText(app.Location),
		nullText(app.Source),
		appliedAt,
		appliedRaw,
		nullText(app.JobURL),
		nullText(app.Note),
		string(app.Status),
	)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	for _, iv := range app.Interviews {
		if err := p.insertInterview(ctx, tx, &id, iv); err != nil {
			return fmt.Errorf("embedded interview: %w", err)
		}
	}
	return nil
}

const insertInterviewSQL = `
INSERT INTO interviews
	(id, application_id, parent_ref, scheduled_at, scheduled_at_raw,
	 kind, format, location, interviewer, status, note)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

func (p *Postgres) insertInterview(ctx context.Context, tx DBTX, appID *uuid.UUID, iv engine.CanonicalInterview) error {
	scheduledAt, scheduledRaw := splitTimestamp(iv.ScheduledAt)

	var parent pgtype.UUID
	if appID != nil {
		parent = pgtype.UUID{Bytes: *appID, Valid: true}
	}

	_, err := tx.Exec(ctx, insertInterviewSQL,
		uuid.New(),
		parent,
		nullText(iv.ParentRef),
		scheduledAt,
		scheduledRaw,
		nullText(iv.Kind),
		nullText(iv.Format),
		nullText(iv.Location),
		nullText(iv.Interviewer),
		string(iv.Status),
		nullText(iv.Note),
	)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

const findApplicationByCompanySQL = `
SELECT id FROM applications
WHERE lower(company) = lower($1)
ORDER BY created_at DESC
LIMIT 1
`

// insertStandaloneInterview attaches the interview to the most recent
// application matching its parent reference, when one exists. A miss
// is not an error: the interview is kept with the textual reference
// only.
func (p *Postgres) insertStandaloneInterview(ctx context.Context, tx DBTX, iv engine.CanonicalInterview) error {
	var appID *uuid.UUID
	if iv.ParentRef != "" {
		var id uuid.UUID
		err := tx.QueryRow(ctx, findApplicationByCompanySQL, iv.ParentRef).Scan(&id)
		switch err {
		case nil:
			appID = &id
		case pgx.ErrNoRows:
		default:
			return fmt.Errorf("resolve parent: %w", err)
		}
	}
	return p.insertInterview(ctx, tx, appID, iv)
}

// splitTimestamp parses a normalized date string into a timestamp,
// keeping the raw form when it does not parse so degraded values
// survive the import.
func splitTimestamp(s string) (pgtype.Timestamptz, pgtype.Text) {
	if s == "" {
		return pgtype.Timestamptz{}, pgtype.Text{}
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05.999999",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return pgtype.Timestamptz{Time: t, Valid: true}, pgtype.Text{}
		}
	}
	return pgtype.Timestamptz{}, pgtype.Text{String: s, Valid: true}
}

func nullText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
