// Package sqlite implements [record.Sink] on a local SQLite file, for
// single-machine deployments that do not run a database server.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/voxtally/voxtally/internal/record"
)

var _ record.Sink = (*Sink)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS measurements (
	voice_entry_id INTEGER PRIMARY KEY,
	row_id         INTEGER NOT NULL,
	context_id     REAL NOT NULL,
	value          REAL NOT NULL,
	raw_text       TEXT NOT NULL,
	taken_at       INTEGER NOT NULL,
	deleted        INTEGER NOT NULL DEFAULT 0
);
`

// Sink writes measurements to a SQLite database file.
type Sink struct {
	db *sql.DB
}

// Open opens (or creates) the database at path with WAL journaling and
// ensures the measurements table exists.
func Open(path string) (*Sink, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Sink{db: db}, nil
}

// Append inserts the measurement.
func (s *Sink) Append(ctx context.Context, m record.Measurement) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO measurements
			(voice_entry_id, row_id, context_id, value, raw_text, taken_at, deleted)
		VALUES (?, ?, ?, ?, ?, ?, 0)`,
		m.VoiceEntryID, m.RowID, m.ContextID, m.Value, m.RawText, m.Timestamp.Unix())
	if err != nil {
		return fmt.Errorf("insert entry %d: %w", m.VoiceEntryID, err)
	}
	return nil
}

// Delete marks the row deleted and frees its position.
func (s *Sink) Delete(ctx context.Context, m record.Measurement) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE measurements SET deleted = 1, row_id = 0
		WHERE voice_entry_id = ?`, m.VoiceEntryID)
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", m.VoiceEntryID, err)
	}
	return nil
}

// Renumber rewrites the row positions of all live records in one transaction.
func (s *Sink) Renumber(ctx context.Context, live []record.Measurement) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin renumber: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE measurements SET row_id = ? WHERE voice_entry_id = ?`)
	if err != nil {
		return fmt.Errorf("prepare renumber: %w", err)
	}
	defer stmt.Close()

	for _, m := range live {
		if _, err := stmt.ExecContext(ctx, m.RowID, m.VoiceEntryID); err != nil {
			return fmt.Errorf("renumber entry %d: %w", m.VoiceEntryID, err)
		}
	}
	return tx.Commit()
}

// Close closes the database.
func (s *Sink) Close() error {
	return s.db.Close()
}
