// Package energy implements a vad.Scorer using root-mean-square frame energy.
// It has no external dependencies and is the universal fallback strategy.
package energy

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/voxtally/voxtally/pkg/provider/vad"
)

// Compile-time assertion that Scorer implements vad.Scorer.
var _ vad.Scorer = (*Scorer)(nil)

// defaultReference is the RMS level (in 16-bit PCM units, max 32767) at which
// the scorer reports probability 0.5. Speech in a quiet room typically lands
// between 1000 and 5000; 300 is near-silence.
const defaultReference = 1000.0

// Scorer maps frame RMS energy to a speech probability. The mapping is
// rms / (rms + reference): monotonic, 0 for digital silence, 0.5 at the
// reference level, asymptotically 1 for loud frames.
type Scorer struct {
	reference float64
}

// Option is a functional option for configuring a Scorer.
type Option func(*Scorer)

// WithReference sets the RMS level at which the scorer reports 0.5.
// Lower values make the scorer more sensitive. Default: 1000.
func WithReference(rms float64) Option {
	return func(s *Scorer) {
		if rms > 0 {
			s.reference = rms
		}
	}
}

// New returns an energy Scorer with the supplied options.
func New(opts ...Option) *Scorer {
	s := &Scorer{reference: defaultReference}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Score returns the energy-derived speech probability for a 16-bit LE PCM
// frame. Frames shorter than one sample are an error.
func (s *Scorer) Score(frame []byte, _ int) (float64, error) {
	n := len(frame) / 2
	if n == 0 {
		return 0, errors.New("energy: frame shorter than one sample")
	}

	var sum float64
	for i := 0; i < n; i++ {
		v := float64(int16(binary.LittleEndian.Uint16(frame[i*2 : i*2+2])))
		sum += v * v
	}
	rms := math.Sqrt(sum / float64(n))

	return rms / (rms + s.reference), nil
}

// Name returns "energy".
func (s *Scorer) Name() string { return "energy" }

// Close is a no-op for the energy scorer.
func (s *Scorer) Close() error { return nil }
