package energy

import (
	"encoding/binary"
	"math"
	"testing"
)

// pcmSine builds a 16-bit LE PCM buffer containing a sine wave at the given
// peak amplitude.
func pcmSine(samples int, amplitude float64) []byte {
	out := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := int16(amplitude * math.Sin(2*math.Pi*float64(i)/64))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

func TestScorer_Score(t *testing.T) {
	s := New()

	t.Run("digital silence scores zero", func(t *testing.T) {
		got, err := s.Score(make([]byte, 640), 16000)
		if err != nil {
			t.Fatalf("Score() error = %v", err)
		}
		if got != 0 {
			t.Errorf("Score(silence) = %v, want 0", got)
		}
	})

	t.Run("loud frame scores near one", func(t *testing.T) {
		got, err := s.Score(pcmSine(320, 30000), 16000)
		if err != nil {
			t.Fatalf("Score() error = %v", err)
		}
		if got < 0.9 {
			t.Errorf("Score(loud) = %v, want >= 0.9", got)
		}
	})

	t.Run("louder frames score higher", func(t *testing.T) {
		quiet, _ := s.Score(pcmSine(320, 500), 16000)
		loud, _ := s.Score(pcmSine(320, 5000), 16000)
		if quiet >= loud {
			t.Errorf("quiet=%v >= loud=%v, want monotonic", quiet, loud)
		}
	})

	t.Run("empty frame is an error", func(t *testing.T) {
		if _, err := s.Score(nil, 16000); err == nil {
			t.Error("Score(nil) error = nil, want error")
		}
	})
}

func TestScorer_WithReference(t *testing.T) {
	frame := pcmSine(320, 2000)

	sensitive := New(WithReference(200))
	strict := New(WithReference(8000))

	a, _ := sensitive.Score(frame, 16000)
	b, _ := strict.Score(frame, 16000)
	if a <= b {
		t.Errorf("sensitive=%v <= strict=%v, want lower reference to score higher", a, b)
	}
}
