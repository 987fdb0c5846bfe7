// Package audio defines the frame types and capture interfaces at the front of
// the voxtally pipeline. Frames are the atomic unit of audio transport —
// produced by a FrameSource, gated by the Suppressor, and consumed by the
// voice activity detector. Frames are ephemeral and never persisted.
package audio

import "time"

// Frame represents a single fixed-size block of PCM audio flowing through the
// pipeline. Data is 16-bit signed little-endian PCM, mono.
type Frame struct {
	// Data is the raw PCM payload. Its length is fixed per capture session
	// (SampleRate × frame duration × 2 bytes).
	Data []byte

	// SampleRate in Hz (e.g., 16000 for whisper input).
	SampleRate int

	// Seq is a monotonically increasing sequence number assigned by the
	// source. Frames are strictly ordered by Seq through the detector and
	// assembler.
	Seq uint64

	// Timestamp marks when this frame was captured, relative to stream start.
	Timestamp time.Duration

	// Suppressed is set by the Suppressor while the system's own synthesized
	// speech is playing. A suppressed frame must never be classified as
	// speech, regardless of its energy.
	Suppressed bool
}

// Duration returns the play time of the frame's PCM payload.
func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	samples := len(f.Data) / 2
	return time.Duration(samples) * time.Second / time.Duration(f.SampleRate)
}
