// Package stt defines the Recognizer interface for speech-to-text backends.
//
// voxtally recognizes only completed utterances — the segment assembler hands
// over a finished buffer once an endpoint is confirmed, never a still-open
// segment — so the interface is a single blocking call rather than a
// streaming session. Recognition is the only pipeline stage expected to block
// for non-trivial time; the dispatcher runs it off the audio path and applies
// a timeout.
//
// Implementations must be safe for concurrent use.
package stt

import "context"

// Result is a recognized utterance.
type Result struct {
	// Text is the raw recognized text.
	Text string

	// Confidence is the engine's confidence in [0, 1], or 0 when the engine
	// does not report one.
	Confidence float64
}

// Recognizer transcribes one completed utterance.
type Recognizer interface {
	// Transcribe converts a buffer of raw 16-bit little-endian mono PCM into
	// text. The engine is a black box: audio bytes in, text out. Blocking is
	// expected; the caller bounds it via ctx.
	Transcribe(ctx context.Context, pcm []byte, sampleRate int) (Result, error)
}
