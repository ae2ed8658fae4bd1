package indexer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/paw-chain/settlement/x/settlement/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS settlement_audit (
	seq         BIGINT PRIMARY KEY,
	kind        TEXT NOT NULL,
	actor       TEXT NOT NULL,
	session_id  BIGINT,
	host        TEXT,
	amounts     JSONB NOT NULL DEFAULT '[]',
	refs        JSONB NOT NULL DEFAULT '{}',
	height      BIGINT NOT NULL,
	block_time  TIMESTAMPTZ NOT NULL,
	exported_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS settlement_audit_session_idx ON settlement_audit (session_id);
CREATE INDEX IF NOT EXISTS settlement_audit_host_idx ON settlement_audit (host);
CREATE INDEX IF NOT EXISTS settlement_audit_kind_idx ON settlement_audit (kind);
`

const insertRecord = `
INSERT INTO settlement_audit (seq, kind, actor, session_id, host, amounts, refs, height, block_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (seq) DO NOTHING
`

// PostgresSink stores audit records in PostgreSQL
type PostgresSink struct {
	db *sql.DB
}

// NewPostgresSink connects to dsn and creates the audit table if missing
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &PostgresSink{db: db}, nil
}

// LastSeq implements Sink.
func (s *PostgresSink) LastSeq(ctx context.Context) (uint64, error) {
	var last int64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM settlement_audit`).Scan(&last); err != nil {
		return 0, fmt.Errorf("failed to read last sequence: %w", err)
	}
	return uint64(last), nil
}

// Write implements Sink. The batch commits atomically.
func (s *PostgresSink) Write(ctx context.Context, records []types.AuditRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, insertRecord)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if rec.Amounts == nil {
			rec.Amounts = []types.AuditAmount{}
		}
		if rec.Refs == nil {
			rec.Refs = map[string]string{}
		}
		amounts, err := json.Marshal(rec.Amounts)
		if err != nil {
			return fmt.Errorf("failed to marshal amounts of record %d: %w", rec.Seq, err)
		}
		refs, err := json.Marshal(rec.Refs)
		if err != nil {
			return fmt.Errorf("failed to marshal refs of record %d: %w", rec.Seq, err)
		}
		if _, err := stmt.ExecContext(ctx,
			int64(rec.Seq),
			rec.Kind,
			rec.Actor,
			nullInt64(rec.SessionID),
			nullString(rec.Host),
			amounts,
			refs,
			rec.Height,
			rec.Time.UTC(),
		); err != nil {
			return fmt.Errorf("failed to insert audit record %d: %w", rec.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit batch: %w", err)
	}
	return nil
}

// Close implements Sink.
func (s *PostgresSink) Close() error {
	return s.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v uint64) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}
