// Package record owns the dual-identifier measurement record scheme: a
// monotonic voice entry id that is never reused, and a dense row id that is
// reassigned when the store is renumbered. Records are only ever logically
// deleted; the voice-entry history keeps everything.
package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// ErrPersistFailed is surfaced when the sink rejects a write and the single
// retry also fails. The record is kept in memory either way; the caller is
// warned that it is not yet durable, never that it is lost.
var ErrPersistFailed = errors.New("record: persist failed after retry")

// Measurement is one accepted measurement.
type Measurement struct {
	// VoiceEntryID is assigned on append, strictly increasing, never reissued.
	VoiceEntryID int64

	// RowID is the record's current position among non-deleted records.
	// Reassigned by Renumber; 0 once the record is deleted.
	RowID int

	// ContextID is the grouping value active when the measurement was taken.
	ContextID float64

	// Value is the measured number.
	Value float64

	// RawText is the recognized text the value was extracted from.
	RawText string

	Timestamp time.Time
	Deleted   bool
}

// Store holds measurement records and forwards changes to a Sink.
// All methods are safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	nextID  int64
	nextRow int
	records map[int64]*Measurement

	sink Sink
	log  *slog.Logger
}

// NewStore returns an empty Store writing through to sink. A nil sink keeps
// records in memory only.
func NewStore(sink Sink, log *slog.Logger) *Store {
	if sink == nil {
		sink = NopSink{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		nextID:  1,
		nextRow: 1,
		records: make(map[int64]*Measurement),
		sink:    sink,
		log:     log,
	}
}

// Append assigns the next voice entry id and the next free row id to m,
// stores it, and writes it to the sink. A sink failure is retried once; if
// the retry also fails the record stays in the store and the returned error
// wraps [ErrPersistFailed].
//
// The returned id is valid even when err is non-nil.
func (s *Store) Append(ctx context.Context, m Measurement) (int64, error) {
	s.mu.Lock()
	m.VoiceEntryID = s.nextID
	s.nextID++
	m.RowID = s.nextRow
	s.nextRow++
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
	stored := m
	s.records[m.VoiceEntryID] = &stored
	s.mu.Unlock()

	if err := s.persist(ctx, m); err != nil {
		return m.VoiceEntryID, fmt.Errorf("append entry %d: %w", m.VoiceEntryID, err)
	}
	return m.VoiceEntryID, nil
}

func (s *Store) persist(ctx context.Context, m Measurement) error {
	err := s.sink.Append(ctx, m)
	if err == nil {
		return nil
	}
	s.log.Warn("sink append failed, retrying once",
		"voice_entry_id", m.VoiceEntryID, "error", err)
	if err = s.sink.Append(ctx, m); err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPersistFailed, err)
}

// Delete marks the record deleted and frees its row. Returns false when the
// id is unknown or the record is already deleted; that is not an error.
func (s *Store) Delete(ctx context.Context, voiceEntryID int64) bool {
	s.mu.Lock()
	m, ok := s.records[voiceEntryID]
	if !ok || m.Deleted {
		s.mu.Unlock()
		return false
	}
	m.Deleted = true
	m.RowID = 0
	copied := *m
	s.mu.Unlock()

	if err := s.sink.Delete(ctx, copied); err != nil {
		s.log.Warn("sink delete failed", "voice_entry_id", voiceEntryID, "error", err)
	}
	return true
}

// Renumber reassigns row ids densely (1..N) over all non-deleted records in
// ascending voice entry id order. Idempotent.
func (s *Store) Renumber(ctx context.Context) {
	s.mu.Lock()
	live := make([]*Measurement, 0, len(s.records))
	for _, m := range s.records {
		if !m.Deleted {
			live = append(live, m)
		}
	}
	sort.Slice(live, func(i, j int) bool {
		return live[i].VoiceEntryID < live[j].VoiceEntryID
	})

	snapshot := make([]Measurement, len(live))
	for i, m := range live {
		m.RowID = i + 1
		snapshot[i] = *m
	}
	s.nextRow = len(live) + 1
	s.mu.Unlock()

	if err := s.sink.Renumber(ctx, snapshot); err != nil {
		s.log.Warn("sink renumber failed", "error", err)
	}
}

// Lookup returns the record for the id. The second return is false when the
// id was never issued.
func (s *Store) Lookup(voiceEntryID int64) (Measurement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.records[voiceEntryID]
	if !ok {
		return Measurement{}, false
	}
	return *m, true
}

// Len returns the number of non-deleted records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.records {
		if !m.Deleted {
			n++
		}
	}
	return n
}
