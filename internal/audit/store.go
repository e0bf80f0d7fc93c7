// Package audit persists a record of every solution this template provider
// forwarded to the node, independent of the protocol engine's own in-memory
// state. It exists purely for operator visibility and postmortems; the
// engine never reads it back and never blocks on it.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store wraps a Postgres connection for persisting submitted solutions.
type Store struct {
	db *sql.DB
}

// SubmissionRow is a persisted solution submission.
type SubmissionRow struct {
	TemplateID    uint64
	Height        int64
	BlockHash     string
	Confirmations int
	Status        string
	CreatedAt     time.Time
}

// NewStore opens a Postgres connection and ensures the schema exists.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`create table if not exists submissions (
			id bigserial primary key,
			template_id bigint not null,
			height bigint not null,
			block_hash text not null,
			confirmations integer not null default 0,
			status text not null default 'submitted',
			created_at timestamptz not null default now()
		)`,
		`create index if not exists submissions_status_idx on submissions (status)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

// RecordSubmission inserts a row for a solution just forwarded to the node.
// It is best-effort: failures are returned to the caller to log, never to
// the protocol path that triggered them.
func (s *Store) RecordSubmission(ctx context.Context, templateID uint64, height int64, blockHash string) error {
	_, err := s.db.ExecContext(ctx,
		`insert into submissions (template_id, height, block_hash) values ($1, $2, $3)`,
		int64(templateID), height, blockHash)
	if err != nil {
		return fmt.Errorf("record submission: %w", err)
	}
	return nil
}

// UpdateConfirmations sets the confirmation count and status for a
// previously recorded submission.
func (s *Store) UpdateConfirmations(ctx context.Context, blockHash string, confirmations int, status string) error {
	_, err := s.db.ExecContext(ctx,
		`update submissions set confirmations=$1, status=$2 where block_hash=$3`,
		confirmations, status, blockHash)
	if err != nil {
		return fmt.Errorf("update confirmations: %w", err)
	}
	return nil
}

// PruneOlderThan deletes confirmed or orphaned submissions older than
// cutoff, keeping the audit table from growing without bound.
func (s *Store) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`delete from submissions where created_at < $1 and status in ('confirmed', 'orphan')`,
		cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune submissions: %w", err)
	}
	return res.RowsAffected()
}

// PendingSubmissions returns submitted solutions not yet at terminal status,
// for confirmation polling.
func (s *Store) PendingSubmissions(ctx context.Context, limit int) ([]SubmissionRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`select template_id, height, block_hash, confirmations, status, created_at
		 from submissions
		 where status = 'submitted'
		 order by created_at desc
		 limit $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SubmissionRow
	for rows.Next() {
		var r SubmissionRow
		var templateID int64
		if err := rows.Scan(&templateID, &r.Height, &r.BlockHash, &r.Confirmations, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.TemplateID = uint64(templateID)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RecentSubmissions returns the most recent N submissions regardless of
// status, for status reporting.
func (s *Store) RecentSubmissions(ctx context.Context, limit int) ([]SubmissionRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`select template_id, height, block_hash, confirmations, status, created_at
		 from submissions
		 order by created_at desc
		 limit $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SubmissionRow
	for rows.Next() {
		var r SubmissionRow
		var templateID int64
		if err := rows.Scan(&templateID, &r.Height, &r.BlockHash, &r.Confirmations, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.TemplateID = uint64(templateID)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }
