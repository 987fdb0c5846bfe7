// Package mock provides an in-memory [record.Sink] for tests, with
// per-operation failure injection.
package mock

import (
	"context"
	"sync"

	"github.com/voxtally/voxtally/internal/record"
)

// Sink records every call it receives. FailAppends makes the next N Append
// calls return FailErr, which lets tests drive the store's retry path.
type Sink struct {
	mu          sync.Mutex
	appends     []record.Measurement
	deletes     []record.Measurement
	renumbers   [][]record.Measurement
	FailAppends int
	FailErr     error
	closed      bool
}

var _ record.Sink = (*Sink)(nil)

func (s *Sink) Append(_ context.Context, m record.Measurement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAppends > 0 {
		s.FailAppends--
		return s.FailErr
	}
	s.appends = append(s.appends, m)
	return nil
}

func (s *Sink) Delete(_ context.Context, m record.Measurement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, m)
	return nil
}

func (s *Sink) Renumber(_ context.Context, live []record.Measurement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]record.Measurement, len(live))
	copy(snapshot, live)
	s.renumbers = append(s.renumbers, snapshot)
	return nil
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Appends returns a copy of all successfully appended measurements.
func (s *Sink) Appends() []record.Measurement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]record.Measurement, len(s.appends))
	copy(out, s.appends)
	return out
}

// Deletes returns a copy of all delete notifications.
func (s *Sink) Deletes() []record.Measurement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]record.Measurement, len(s.deletes))
	copy(out, s.deletes)
	return out
}

// Renumbers returns the snapshots passed to Renumber, in call order.
func (s *Sink) Renumbers() [][]record.Measurement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]record.Measurement, len(s.renumbers))
	copy(out, s.renumbers)
	return out
}
