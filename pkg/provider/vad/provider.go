// Package vad defines the Scorer interface for voice-activity scoring
// backends.
//
// A Scorer reduces a single PCM frame to a speech probability in [0, 1]. The
// endpointing state machine (speech-start/speech-end hysteresis) lives in the
// pipeline's segment detector, not here — scorers are pure, interchangeable
// per-frame strategies. Two ship with voxtally: an energy scorer (always
// available, pure signal math) and a WebRTC scorer (higher accuracy, optional
// native dependency). When the requested scorer cannot be constructed the
// detector falls back to the energy scorer transparently; the fallback is
// observable via [Status], never a fatal error.
//
// Scorers are called synchronously in the pipeline loop and must not block.
// A single Scorer instance is used from one goroutine at a time.
package vad

// Scorer reduces one PCM frame to a speech probability.
type Scorer interface {
	// Score analyses a frame of raw 16-bit little-endian mono PCM and returns
	// a speech probability in [0.0, 1.0]. Returns an error only on malformed
	// input or internal engine failure; the caller treats an errored frame as
	// silence and continues.
	Score(frame []byte, sampleRate int) (float64, error)

	// Name identifies the scoring strategy ("energy", "webrtc").
	Name() string

	// Close releases engine resources. Calling Close more than once is safe.
	Close() error
}

// Status records which scorer is actually in use. It is surfaced through the
// pipeline so operators can tell when the configured scorer was unavailable
// at startup and the detector silently fell back to energy scoring.
type Status struct {
	// Requested is the scorer named in the configuration.
	Requested string

	// Active is the scorer actually constructed.
	Active string

	// FellBack is true when Active differs from Requested.
	FellBack bool
}
