// Package postgres implements kanban.Store on PostgreSQL through pgx.
//
// A unit of work is one transaction that first takes a transaction-scoped
// advisory lock keyed by the owner, so moves of the same user run one after
// the other while different users never wait on each other.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"jobtracker/tracker-service/internal/kanban"
)

const selectColumns = `
	id::text, user_id, company_name, position_title, status::text,
	interview_stage, rejection_stage, application_date, order_index,
	salary_range, location, notes, history_log, created_at, updated_at`

// Pool is the part of *pgxpool.Pool the store uses.
type Pool interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements kanban.Store.
type Store struct {
	pool Pool
}

// New returns a Store backed by pool.
func New(pool Pool) *Store {
	return &Store{pool: pool}
}

// WithinOwner runs fn inside a transaction holding the owner's advisory lock.
// The transaction is rolled back when fn fails.
func (s *Store) WithinOwner(ctx context.Context, ownerID string, fn func(tx kanban.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(dbtx pgx.Tx) error {
		if _, err := dbtx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, ownerID); err != nil {
			return fmt.Errorf("owner lock: %w", err)
		}
		return fn(&tx{tx: dbtx, owner: ownerID})
	})
}

func (s *Store) Get(ctx context.Context, ownerID, id string) (*kanban.Application, error) {
	return getApplication(ctx, s.pool, ownerID, id)
}

func (s *Store) List(ctx context.Context, ownerID string, status *kanban.Status) ([]kanban.Application, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if status != nil {
		rows, err = s.pool.Query(ctx,
			`SELECT `+selectColumns+` FROM job_applications
			 WHERE user_id = $1 AND status = $2::application_status
			 ORDER BY order_index, id`,
			ownerID, string(*status))
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT `+selectColumns+` FROM job_applications
			 WHERE user_id = $1
			 ORDER BY status, order_index, id`,
			ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	return collectApplications(rows)
}

func (s *Store) Owners(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT user_id FROM job_applications ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("owners query: %w", err)
	}
	owners, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("owners scan: %w", err)
	}
	return owners, nil
}

// ─── Unit of work ─────────────────────────────────────────────────────────────

type tx struct {
	tx    pgx.Tx
	owner string
}

func (t *tx) Get(ctx context.Context, id string) (*kanban.Application, error) {
	return getApplication(ctx, t.tx, t.owner, id)
}

func (t *tx) ListPartition(ctx context.Context, status kanban.Status) ([]kanban.Application, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT `+selectColumns+` FROM job_applications
		 WHERE user_id = $1 AND status = $2::application_status
		 ORDER BY order_index, id`,
		t.owner, string(status))
	if err != nil {
		return nil, fmt.Errorf("partition query: %w", err)
	}
	return collectApplications(rows)
}

func (t *tx) Insert(ctx context.Context, app *kanban.Application) error {
	app.OwnerID = t.owner
	_, err := t.tx.Exec(ctx,
		`INSERT INTO job_applications (
		   id, user_id, company_name, position_title, status,
		   interview_stage, rejection_stage, application_date, order_index,
		   salary_range, location, notes, history_log, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5::application_status, $6, $7, $8, $9, $10, $11, $12, $13::jsonb, $14, $15)`,
		app.ID, app.OwnerID, app.CompanyName, app.PositionTitle, string(app.Status),
		app.InterviewStage, app.RejectionStage, app.ApplicationDate, app.OrderIndex,
		app.SalaryRange, app.Location, app.Notes, history(app.HistoryLog), app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

func (t *tx) Update(ctx context.Context, app *kanban.Application) error {
	if _, err := uuid.Parse(app.ID); err != nil {
		return kanban.ErrNotFound
	}
	var updatedAt time.Time
	err := t.tx.QueryRow(ctx,
		`UPDATE job_applications
		 SET company_name     = $1,
		     position_title   = $2,
		     status           = $3::application_status,
		     interview_stage  = $4,
		     rejection_stage  = $5,
		     application_date = $6,
		     order_index      = $7,
		     salary_range     = $8,
		     location         = $9,
		     notes            = $10,
		     history_log      = $11::jsonb,
		     updated_at       = NOW()
		 WHERE id = $12 AND user_id = $13
		 RETURNING updated_at`,
		app.CompanyName, app.PositionTitle, string(app.Status),
		app.InterviewStage, app.RejectionStage, app.ApplicationDate, app.OrderIndex,
		app.SalaryRange, app.Location, app.Notes, history(app.HistoryLog),
		app.ID, t.owner,
	).Scan(&updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return kanban.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	app.UpdatedAt = updatedAt
	return nil
}

// ApplyShifts sends every order-index rewrite in one round trip.
func (t *tx) ApplyShifts(ctx context.Context, shifts []kanban.Shift) error {
	if len(shifts) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, sh := range shifts {
		batch.Queue(
			`UPDATE job_applications SET order_index = $1, updated_at = NOW()
			 WHERE id = $2 AND user_id = $3`,
			sh.NewIndex, sh.ID, t.owner,
		)
	}

	br := t.tx.SendBatch(ctx, batch)
	for _, sh := range shifts {
		ct, err := br.Exec()
		if err != nil {
			br.Close()
			return fmt.Errorf("shift %s: %w", sh.ID, err)
		}
		if ct.RowsAffected() == 0 {
			br.Close()
			return fmt.Errorf("shift %s: %w", sh.ID, kanban.ErrNotFound)
		}
	}
	return br.Close()
}

func (t *tx) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return kanban.ErrNotFound
	}
	ct, err := t.tx.Exec(ctx, `DELETE FROM job_applications WHERE id = $1 AND user_id = $2`, id, t.owner)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return kanban.ErrNotFound
	}
	return nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getApplication(ctx context.Context, q querier, ownerID, id string) (*kanban.Application, error) {
	// A malformed ID cannot match any row; answer like a missing one instead
	// of surfacing Postgres' invalid_text_representation error.
	if _, err := uuid.Parse(id); err != nil {
		return nil, kanban.ErrNotFound
	}

	var a kanban.Application
	err := q.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM job_applications WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	).Scan(scanTargets(&a)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, kanban.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	return &a, nil
}

func collectApplications(rows pgx.Rows) ([]kanban.Application, error) {
	apps, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (kanban.Application, error) {
		var a kanban.Application
		err := row.Scan(scanTargets(&a)...)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan applications: %w", err)
	}
	return apps, nil
}

// scanTargets lists the destinations of selectColumns, in order.
func scanTargets(a *kanban.Application) []any {
	return []any{
		&a.ID, &a.OwnerID, &a.CompanyName, &a.PositionTitle, &a.Status,
		&a.InterviewStage, &a.RejectionStage, &a.ApplicationDate, &a.OrderIndex,
		&a.SalaryRange, &a.Location, &a.Notes, &a.HistoryLog, &a.CreatedAt, &a.UpdatedAt,
	}
}

// history never hands pgx a nil slice: the column is NOT NULL.
func history(h []kanban.StatusChange) []kanban.StatusChange {
	if h == nil {
		return []kanban.StatusChange{}
	}
	return h
}
