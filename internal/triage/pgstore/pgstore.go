// Package pgstore provides a PostgreSQL implementation of triage.Store.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/carewatch/internal/triage"
)

var tracer = otel.Tracer("github.com/linnemanlabs/carewatch/internal/triage/pgstore")

//go:embed schema.sql
var schema string

const pgUniqueViolation = "23505"

// Store persists alerts in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store. The pool is owned by
// the caller; Close releases it.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close shuts down the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

const alertColumns = `id, subject_id, category, message, severity, created_at, read, state, assignee_id`

// Create inserts a new alert. Returns triage.ErrDuplicateID when the id
// already exists.
func (s *Store) Create(ctx context.Context, a *triage.Alert) error {
	ctx, span := tracer.Start(ctx, "pgstore.Create", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	query := `INSERT INTO alerts (` + alertColumns + `, seq)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, nextval('alerts_write_seq'))`

	_, err := s.pool.Exec(ctx, query,
		a.ID, a.SubjectID, string(a.Category), a.Message, a.Severity.String(),
		a.CreatedAt, a.Read, string(a.State), a.AssigneeID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return triage.ErrDuplicateID
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// Get retrieves an alert by id. Returns triage.ErrNotFound when missing.
func (s *Store) Get(ctx context.Context, id string) (*triage.Alert, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1`
	a, err := scanAlert(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if !errors.Is(err, triage.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}
	return a, nil
}

// Update applies mutate to the alert inside a transaction, holding a row
// lock so concurrent updates to the same id serialize. A mutation error
// aborts the write and is returned unchanged.
func (s *Store) Update(ctx context.Context, id string, mutate func(*triage.Alert) error) (*triage.Alert, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Update", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPDATE"),
	))
	defer span.End()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is harmless

	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1 FOR UPDATE`
	a, err := scanAlert(tx.QueryRow(ctx, query, id))
	if err != nil {
		if !errors.Is(err, triage.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, err
	}

	if err := mutate(a); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE alerts SET
			category = $2, message = $3, severity = $4, read = $5,
			state = $6, assignee_id = $7, seq = nextval('alerts_write_seq')
		WHERE id = $1`,
		a.ID, string(a.Category), a.Message, a.Severity.String(), a.Read,
		string(a.State), a.AssigneeID,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("update alert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("commit: %w", err)
	}
	return a, nil
}

// ListBySubject returns all alerts for a subject in creation order,
// including resolved ones.
func (s *Store) ListBySubject(ctx context.Context, subjectID string) ([]*triage.Alert, error) {
	ctx, span := tracer.Start(ctx, "pgstore.ListBySubject", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + alertColumns + ` FROM alerts WHERE subject_id = $1 ORDER BY created_at, id`
	rows, err := s.pool.Query(ctx, query, subjectID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

// List returns alerts matching the filter.
func (s *Store) List(ctx context.Context, f triage.Filter) ([]*triage.Alert, error) {
	ctx, span := tracer.Start(ctx, "pgstore.List", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	var (
		conds []string
		args  []any
	)
	if f.SubjectID != "" {
		args = append(args, f.SubjectID)
		conds = append(conds, fmt.Sprintf("subject_id = $%d", len(args)))
	}
	if f.OnlyUnread {
		conds = append(conds, "NOT read")
	}
	if f.OnlyOpen {
		args = append(args, string(triage.StateResolved))
		conds = append(conds, fmt.Sprintf("state <> $%d", len(args)))
	}

	query := `SELECT ` + alertColumns + ` FROM alerts`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

// scanAlert scans a single row. Maps pgx.ErrNoRows to triage.ErrNotFound.
func scanAlert(row pgx.Row) (*triage.Alert, error) {
	var (
		a        triage.Alert
		category string
		severity string
		state    string
	)
	err := row.Scan(
		&a.ID, &a.SubjectID, &category, &a.Message, &severity,
		&a.CreatedAt, &a.Read, &state, &a.AssigneeID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, triage.ErrNotFound
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	a.Category = triage.Category(category)
	a.State = triage.State(state)
	if err := a.Severity.UnmarshalText([]byte(severity)); err != nil {
		return nil, fmt.Errorf("alert %s: %w", a.ID, err)
	}
	return &a, nil
}

func collectAlerts(rows pgx.Rows) ([]*triage.Alert, error) {
	var out []*triage.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return out, nil
}
