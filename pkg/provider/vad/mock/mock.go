// Package mock provides a scripted vad.Scorer for detector tests.
package mock

import "github.com/voxtally/voxtally/pkg/provider/vad"

// Compile-time assertion that Scorer implements vad.Scorer.
var _ vad.Scorer = (*Scorer)(nil)

// Scorer returns pre-scripted probabilities in order, then repeats the last
// one. An optional Err is returned on every call instead.
type Scorer struct {
	Scores []float64
	Err    error

	calls int
}

// Score returns the next scripted probability.
func (s *Scorer) Score(_ []byte, _ int) (float64, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	if len(s.Scores) == 0 {
		return 0, nil
	}
	i := s.calls
	if i >= len(s.Scores) {
		i = len(s.Scores) - 1
	}
	s.calls++
	return s.Scores[i], nil
}

// Name returns "mock".
func (s *Scorer) Name() string { return "mock" }

// Close is a no-op.
func (s *Scorer) Close() error { return nil }
