// Package postgres implements [record.Sink] on a PostgreSQL table keyed by
// voice entry id.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voxtally/voxtally/internal/record"
)

var _ record.Sink = (*Sink)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS measurements (
	voice_entry_id BIGINT PRIMARY KEY,
	row_id         INTEGER NOT NULL,
	context_id     DOUBLE PRECISION NOT NULL,
	value          DOUBLE PRECISION NOT NULL,
	raw_text       TEXT NOT NULL,
	taken_at       TIMESTAMPTZ NOT NULL,
	deleted        BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS measurements_row_idx
	ON measurements (row_id) WHERE NOT deleted;
`

// Sink writes measurements to PostgreSQL. All operations are safe for
// concurrent use.
type Sink struct {
	pool *pgxpool.Pool
}

// New connects to the database at dsn and ensures the measurements table
// exists.
func New(ctx context.Context, dsn string) (*Sink, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres sink: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres sink: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres sink: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres sink: migrate: %w", err)
	}

	return &Sink{pool: pool}, nil
}

// Append inserts the measurement.
func (s *Sink) Append(ctx context.Context, m record.Measurement) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO measurements
			(voice_entry_id, row_id, context_id, value, raw_text, taken_at, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		ON CONFLICT (voice_entry_id) DO NOTHING`,
		m.VoiceEntryID, m.RowID, m.ContextID, m.Value, m.RawText, m.Timestamp)
	if err != nil {
		return fmt.Errorf("insert entry %d: %w", m.VoiceEntryID, err)
	}
	return nil
}

// Delete marks the row deleted and frees its position.
func (s *Sink) Delete(ctx context.Context, m record.Measurement) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE measurements SET deleted = TRUE, row_id = 0
		WHERE voice_entry_id = $1`, m.VoiceEntryID)
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", m.VoiceEntryID, err)
	}
	return nil
}

// Renumber rewrites the row positions of all live records in one batch.
func (s *Sink) Renumber(ctx context.Context, live []record.Measurement) error {
	batch := &pgx.Batch{}
	for _, m := range live {
		batch.Queue(`UPDATE measurements SET row_id = $1 WHERE voice_entry_id = $2`,
			m.RowID, m.VoiceEntryID)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("renumber %d rows: %w", len(live), err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Sink) Close() error {
	s.pool.Close()
	return nil
}
