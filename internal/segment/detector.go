// Package segment turns the scored frame stream into discrete speech
// segments: a hysteresis detector decides where speech starts and ends, and
// an assembler collects the frames in between into segments ready for
// recognition.
package segment

import (
	"log/slog"
	"time"

	"github.com/voxtally/voxtally/pkg/audio"
	"github.com/voxtally/voxtally/pkg/provider/vad"
)

// Event is the detector's verdict for one frame.
type Event int

const (
	// EventNone means the frame did not change the speech/silence state.
	EventNone Event = iota

	// EventSpeechStart marks the frame that confirmed a speech onset.
	EventSpeechStart

	// EventSpeechEnd marks the frame that confirmed an endpoint.
	EventSpeechEnd
)

// DetectorConfig holds the hysteresis timings.
type DetectorConfig struct {
	// Threshold is the scorer probability at or above which a frame counts
	// as speech. Default: 0.5.
	Threshold float64

	// MinSpeech is how long scores must stay above Threshold before a
	// speech onset is confirmed. Default: 200ms.
	MinSpeech time.Duration

	// MinSilence is how long scores must stay below Threshold before an
	// endpoint is confirmed. Default: 700ms.
	MinSilence time.Duration

	// LongUtterance is the segment duration past which the endpoint only
	// needs LongSilence of quiet. Long utterances end on a brief pause;
	// short ones must not be cut off mid-sentence. Default: 5s.
	LongUtterance time.Duration

	// LongSilence is the shortened endpoint silence for long utterances.
	// Default: 300ms.
	LongSilence time.Duration
}

func (c *DetectorConfig) applyDefaults() {
	if c.Threshold <= 0 {
		c.Threshold = 0.5
	}
	if c.MinSpeech <= 0 {
		c.MinSpeech = 200 * time.Millisecond
	}
	if c.MinSilence <= 0 {
		c.MinSilence = 700 * time.Millisecond
	}
	if c.LongUtterance <= 0 {
		c.LongUtterance = 5 * time.Second
	}
	if c.LongSilence <= 0 {
		c.LongSilence = 300 * time.Millisecond
	}
}

// Detector is the per-frame speech/silence state machine. It is not safe for
// concurrent use; the pipeline feeds it from a single goroutine.
type Detector struct {
	cfg    DetectorConfig
	scorer vad.Scorer
	log    *slog.Logger

	inSpeech   bool
	speechRun  time.Duration // consecutive above-threshold time while silent
	silenceRun time.Duration // consecutive below-threshold time while speaking
	segmentDur time.Duration // total time since confirmed onset
}

// NewDetector returns a Detector scoring frames with scorer.
func NewDetector(cfg DetectorConfig, scorer vad.Scorer, log *slog.Logger) *Detector {
	cfg.applyDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &Detector{cfg: cfg, scorer: scorer, log: log}
}

// Feed scores one frame and advances the state machine.
//
// Suppressed frames score zero without consulting the scorer, so the
// system's own playback can never register as speech. A scorer error also
// counts as silence; one bad frame must not fabricate an endpoint decision.
func (d *Detector) Feed(frame audio.Frame) Event {
	score := 0.0
	if !frame.Suppressed {
		var err error
		score, err = d.scorer.Score(frame.Data, frame.SampleRate)
		if err != nil {
			d.log.Debug("vad score failed, frame treated as silence",
				"seq", frame.Seq, "error", err)
			score = 0
		}
	}

	dur := frame.Duration()
	if d.inSpeech {
		return d.feedSpeech(score, dur)
	}
	return d.feedSilence(score, dur)
}

func (d *Detector) feedSilence(score float64, dur time.Duration) Event {
	if score < d.cfg.Threshold {
		d.speechRun = 0
		return EventNone
	}
	d.speechRun += dur
	if d.speechRun < d.cfg.MinSpeech {
		return EventNone
	}
	d.inSpeech = true
	d.segmentDur = d.speechRun
	d.speechRun = 0
	d.silenceRun = 0
	return EventSpeechStart
}

func (d *Detector) feedSpeech(score float64, dur time.Duration) Event {
	d.segmentDur += dur
	if score >= d.cfg.Threshold {
		d.silenceRun = 0
		return EventNone
	}
	d.silenceRun += dur

	required := d.cfg.MinSilence
	if d.segmentDur-d.silenceRun >= d.cfg.LongUtterance {
		required = d.cfg.LongSilence
	}
	if d.silenceRun < required {
		return EventNone
	}
	d.reset()
	return EventSpeechEnd
}

// InSpeech reports whether the detector is currently inside a segment.
func (d *Detector) InSpeech() bool { return d.inSpeech }

func (d *Detector) reset() {
	d.inSpeech = false
	d.speechRun = 0
	d.silenceRun = 0
	d.segmentDur = 0
}

// Reset returns the detector to silence, abandoning any segment in progress.
func (d *Detector) Reset() { d.reset() }
