// Package mock provides a scripted stt.Recognizer for pipeline tests.
package mock

import (
	"context"
	"sync"

	"github.com/voxtally/voxtally/pkg/provider/stt"
)

// Compile-time assertion that Recognizer implements stt.Recognizer.
var _ stt.Recognizer = (*Recognizer)(nil)

// Call records one Transcribe invocation.
type Call struct {
	PCMLen     int
	SampleRate int
}

// Recognizer replays scripted texts and errors in order. When the script is
// exhausted the last entry repeats. All methods are safe for concurrent use.
type Recognizer struct {
	// Texts are returned in order, one per call.
	Texts []string

	// Errs, when non-nil at the matching index, is returned instead of text.
	Errs []error

	// Block, when non-nil, is closed by the test to release a pending call.
	// Used to exercise dispatcher timeouts.
	Block chan struct{}

	mu    sync.Mutex
	calls []Call
}

// Transcribe returns the next scripted result.
func (r *Recognizer) Transcribe(ctx context.Context, pcm []byte, sampleRate int) (stt.Result, error) {
	r.mu.Lock()
	i := len(r.calls)
	r.calls = append(r.calls, Call{PCMLen: len(pcm), SampleRate: sampleRate})
	r.mu.Unlock()

	if r.Block != nil {
		select {
		case <-r.Block:
		case <-ctx.Done():
			return stt.Result{}, ctx.Err()
		}
	}

	if len(r.Errs) > 0 {
		j := min(i, len(r.Errs)-1)
		if err := r.Errs[j]; err != nil {
			return stt.Result{}, err
		}
	}
	if len(r.Texts) == 0 {
		return stt.Result{}, nil
	}
	return stt.Result{Text: r.Texts[min(i, len(r.Texts)-1)], Confidence: 1}, nil
}

// Calls returns a copy of the recorded invocations.
func (r *Recognizer) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}
