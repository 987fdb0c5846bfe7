// Package webrtc implements a vad.Scorer backed by the WebRTC voice activity
// detector. WebRTC VAD classifies 10/20/30 ms sub-frames as speech or
// non-speech; the scorer reports the fraction of speech-positive sub-frames
// as the frame's probability.
package webrtc

import (
	"fmt"
	"slices"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"github.com/voxtally/voxtally/pkg/provider/vad"
)

// Compile-time assertion that Scorer implements vad.Scorer.
var _ vad.Scorer = (*Scorer)(nil)

// validSampleRates are the rates supported by the WebRTC engine.
var validSampleRates = []int{8000, 16000, 32000, 48000}

// Scorer wraps a WebRTC VAD instance.
type Scorer struct {
	engine     *webrtcvad.VAD
	sampleRate int
	mode       int
}

// New creates a WebRTC Scorer. mode selects aggressiveness (0 = least, 3 =
// most aggressive filtering of non-speech); out-of-range values are clamped.
// Returns an error if the engine cannot be created or the sample rate is not
// one of 8000, 16000, 32000, or 48000.
func New(sampleRate, mode int) (*Scorer, error) {
	if !slices.Contains(validSampleRates, sampleRate) {
		return nil, fmt.Errorf("webrtc: sample rate %d not supported, must be one of %v", sampleRate, validSampleRates)
	}

	engine, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("webrtc: create engine: %w", err)
	}

	mode = min(max(mode, 0), 3)
	if err := engine.SetMode(mode); err != nil {
		return nil, fmt.Errorf("webrtc: set mode %d: %w", mode, err)
	}

	return &Scorer{engine: engine, sampleRate: sampleRate, mode: mode}, nil
}

// Score splits the frame into 10 ms sub-frames, classifies each, and returns
// the speech-positive fraction. A trailing partial sub-frame is ignored.
func (s *Scorer) Score(frame []byte, sampleRate int) (float64, error) {
	if sampleRate != s.sampleRate {
		return 0, fmt.Errorf("webrtc: frame sample rate %d does not match configured %d", sampleRate, s.sampleRate)
	}

	// 10 ms of 16-bit mono PCM.
	subFrame := s.sampleRate / 100 * 2
	if len(frame) < subFrame {
		return 0, fmt.Errorf("webrtc: frame too short: %d bytes, need at least %d", len(frame), subFrame)
	}

	var total, active int
	for off := 0; off+subFrame <= len(frame); off += subFrame {
		ok, err := s.engine.Process(s.sampleRate, frame[off:off+subFrame])
		if err != nil {
			return 0, fmt.Errorf("webrtc: process sub-frame: %w", err)
		}
		total++
		if ok {
			active++
		}
	}

	return float64(active) / float64(total), nil
}

// Name returns "webrtc".
func (s *Scorer) Name() string { return "webrtc" }

// Close is a no-op; the WebRTC engine needs no explicit teardown.
func (s *Scorer) Close() error { return nil }

// Mode returns the configured aggressiveness mode.
func (s *Scorer) Mode() int { return s.mode }
