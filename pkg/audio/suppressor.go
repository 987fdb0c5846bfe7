package audio

import "sync"

// Suppressor is the gate between the frame source and the voice activity
// detector that keeps the system from hearing its own synthesized speech.
// An external TTS collaborator calls SetPlaying(true) when it starts playback
// and SetPlaying(false) when it finishes; while playing, every frame passing
// through Apply is tagged Suppressed and must be treated as silence
// downstream.
//
// The playing flag and the tagging of the next frame are linearizable: both
// SetPlaying and Apply take the same mutex, so no frame can be classified
// with a stale "not playing" read that is concurrently being flipped to
// "playing". A single leaked frame of self-audio can trigger a false
// speech-start.
type Suppressor struct {
	mu      sync.Mutex
	playing bool
}

// NewSuppressor returns a Suppressor in the not-playing state.
func NewSuppressor() *Suppressor {
	return &Suppressor{}
}

// SetPlaying toggles the suppression window. Called by the TTS collaborator
// at playback start (true) and end (false).
func (s *Suppressor) SetPlaying(playing bool) {
	s.mu.Lock()
	s.playing = playing
	s.mu.Unlock()
}

// Playing reports whether a suppression window is currently open.
func (s *Suppressor) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Apply tags the frame as suppressed when a playback window is open. The
// frame is still passed through (so timing bookkeeping downstream stays
// continuous) but the detector scores a suppressed frame as pure silence.
func (s *Suppressor) Apply(f Frame) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		f.Suppressed = true
	}
	return f
}
