package segment

import (
	"errors"
	"testing"
	"time"

	"github.com/voxtally/voxtally/pkg/audio"
	"github.com/voxtally/voxtally/pkg/provider/vad/mock"
)

// frame returns a 20ms frame at 16kHz (640 bytes of 16-bit mono PCM).
func frame(seq uint64, suppressed bool) audio.Frame {
	return audio.Frame{
		Data:       make([]byte, 640),
		SampleRate: 16000,
		Seq:        seq,
		Timestamp:  time.Duration(seq) * 20 * time.Millisecond,
		Suppressed: suppressed,
	}
}

// feedN feeds n frames and returns the events that were not EventNone.
func feedN(d *Detector, n int, startSeq uint64, suppressed bool) []Event {
	var evs []Event
	for i := 0; i < n; i++ {
		if ev := d.Feed(frame(startSeq+uint64(i), suppressed)); ev != EventNone {
			evs = append(evs, ev)
		}
	}
	return evs
}

func testConfig() DetectorConfig {
	return DetectorConfig{
		Threshold:     0.5,
		MinSpeech:     100 * time.Millisecond, // 5 frames
		MinSilence:    200 * time.Millisecond, // 10 frames
		LongUtterance: 1 * time.Second,
		LongSilence:   60 * time.Millisecond, // 3 frames
	}
}

func TestDetector_OnsetRequiresSustainedSpeech(t *testing.T) {
	scorer := &mock.Scorer{Scores: []float64{0.9}}
	d := NewDetector(testConfig(), scorer, nil)

	// 4 frames (80ms) is below the 100ms onset requirement.
	for i := 0; i < 4; i++ {
		if ev := d.Feed(frame(uint64(i), false)); ev != EventNone {
			t.Fatalf("frame %d: event = %v before onset threshold", i, ev)
		}
	}
	// The 5th frame completes 100ms.
	if ev := d.Feed(frame(4, false)); ev != EventSpeechStart {
		t.Fatalf("frame 4: event = %v, want speech start", ev)
	}
	if !d.InSpeech() {
		t.Error("detector not in speech after onset")
	}
}

func TestDetector_BriefBlipDoesNotStartSpeech(t *testing.T) {
	scorer := &mock.Scorer{Scores: []float64{0.9, 0.9, 0.1, 0.9, 0.9, 0.1}}
	d := NewDetector(testConfig(), scorer, nil)

	// Speech never sustains for 5 consecutive frames.
	if evs := feedN(d, 6, 0, false); len(evs) != 0 {
		t.Fatalf("events = %v, want none", evs)
	}
	if d.InSpeech() {
		t.Error("detector entered speech on interrupted onset")
	}
}

func TestDetector_EndpointRequiresSustainedSilence(t *testing.T) {
	scores := make([]float64, 0, 40)
	for i := 0; i < 8; i++ {
		scores = append(scores, 0.9)
	}
	// A short pause (5 frames, 100ms) then more speech, then real silence.
	for i := 0; i < 5; i++ {
		scores = append(scores, 0.1)
	}
	for i := 0; i < 4; i++ {
		scores = append(scores, 0.9)
	}
	for i := 0; i < 10; i++ {
		scores = append(scores, 0.1)
	}
	scorer := &mock.Scorer{Scores: scores}
	d := NewDetector(testConfig(), scorer, nil)

	evs := feedN(d, len(scores), 0, false)
	want := []Event{EventSpeechStart, EventSpeechEnd}
	if len(evs) != len(want) {
		t.Fatalf("events = %v, want %v", evs, want)
	}
	for i := range want {
		if evs[i] != want[i] {
			t.Fatalf("events = %v, want %v", evs, want)
		}
	}
	if d.InSpeech() {
		t.Error("detector still in speech after endpoint")
	}
}

func TestDetector_LongUtteranceEndsOnBriefPause(t *testing.T) {
	// 60 speech frames = 1.2s, past the 1s long-utterance mark, then a
	// 3-frame (60ms) pause which would never end a short utterance.
	scores := make([]float64, 0, 63)
	for i := 0; i < 60; i++ {
		scores = append(scores, 0.9)
	}
	for i := 0; i < 3; i++ {
		scores = append(scores, 0.1)
	}
	scorer := &mock.Scorer{Scores: scores}
	d := NewDetector(testConfig(), scorer, nil)

	evs := feedN(d, len(scores), 0, false)
	if len(evs) != 2 || evs[1] != EventSpeechEnd {
		t.Fatalf("events = %v, want onset then endpoint via shortened silence", evs)
	}
}

func TestDetector_SuppressedFramesAreSilence(t *testing.T) {
	// The scorer would report speech, but suppressed frames never reach it.
	scorer := &mock.Scorer{Scores: []float64{0.99}}
	d := NewDetector(testConfig(), scorer, nil)

	if evs := feedN(d, 20, 0, true); len(evs) != 0 {
		t.Fatalf("suppressed frames produced events: %v", evs)
	}
	if d.InSpeech() {
		t.Error("suppressed playback registered as speech")
	}
}

func TestDetector_ScorerErrorIsSilence(t *testing.T) {
	scorer := &mock.Scorer{Err: errors.New("codec fault")}
	d := NewDetector(testConfig(), scorer, nil)

	if evs := feedN(d, 20, 0, false); len(evs) != 0 {
		t.Fatalf("scorer errors produced events: %v", evs)
	}
}
