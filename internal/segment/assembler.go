package segment

import (
	"log/slog"
	"time"

	"github.com/voxtally/voxtally/pkg/audio"
)

// Segment is a completed speech segment between a confirmed onset and a
// confirmed endpoint.
type Segment struct {
	Frames []audio.Frame

	// Start and End are the first and last frame timestamps.
	Start, End time.Duration
}

// Duration is the total audio time the segment covers.
func (s *Segment) Duration() time.Duration {
	var d time.Duration
	for _, f := range s.Frames {
		d += f.Duration()
	}
	return d
}

// PCM concatenates the segment's frame data into one buffer.
func (s *Segment) PCM() []byte {
	n := 0
	for _, f := range s.Frames {
		n += len(f.Data)
	}
	out := make([]byte, 0, n)
	for _, f := range s.Frames {
		out = append(out, f.Data...)
	}
	return out
}

// SampleRate returns the segment's sample rate, taken from the first frame.
func (s *Segment) SampleRate() int {
	if len(s.Frames) == 0 {
		return 0
	}
	return s.Frames[0].SampleRate
}

// AssemblerConfig holds the assembly parameters.
type AssemblerConfig struct {
	// MinSegment is the duration below which a completed segment is
	// discarded as noise. Default: 300ms.
	MinSegment time.Duration

	// Preroll is how much recent audio to keep while silent and prepend to
	// a new segment. Onset confirmation takes MinSpeech of frames; without
	// the preroll those first syllables would be missing from recognition.
	// Default: 400ms.
	Preroll time.Duration
}

func (c *AssemblerConfig) applyDefaults() {
	if c.MinSegment <= 0 {
		c.MinSegment = 300 * time.Millisecond
	}
	if c.Preroll <= 0 {
		c.Preroll = 400 * time.Millisecond
	}
}

// Assembler collects frames between detector events into segments. Like the
// detector it is fed from a single goroutine.
type Assembler struct {
	cfg AssemblerConfig
	log *slog.Logger

	preroll    []audio.Frame
	prerollDur time.Duration

	open   bool
	frames []audio.Frame
}

// NewAssembler returns an empty Assembler.
func NewAssembler(cfg AssemblerConfig, log *slog.Logger) *Assembler {
	cfg.applyDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &Assembler{cfg: cfg, log: log}
}

// Feed hands the assembler one frame together with the detector's verdict
// for it. It returns a completed Segment on a confirmed endpoint, nil
// otherwise. Segments shorter than MinSegment are discarded silently.
func (a *Assembler) Feed(frame audio.Frame, ev Event) *Segment {
	switch ev {
	case EventSpeechStart:
		a.open = true
		a.frames = append(a.frames[:0:0], a.preroll...)
		a.frames = append(a.frames, frame)
		a.clearPreroll()
		return nil

	case EventSpeechEnd:
		a.frames = append(a.frames, frame)
		seg := &Segment{Frames: a.frames}
		if len(seg.Frames) > 0 {
			seg.Start = seg.Frames[0].Timestamp
			seg.End = seg.Frames[len(seg.Frames)-1].Timestamp
		}
		a.open = false
		a.frames = nil

		if d := seg.Duration(); d < a.cfg.MinSegment {
			a.log.Debug("segment below minimum duration, discarded",
				"duration", d, "frames", len(seg.Frames))
			return nil
		}
		return seg

	default:
		if a.open {
			a.frames = append(a.frames, frame)
			return nil
		}
		a.pushPreroll(frame)
		return nil
	}
}

// Abandon drops any segment in progress and the preroll buffer. Used on
// Stop so an in-flight, not-yet-recognized segment never reaches the
// recognizer.
func (a *Assembler) Abandon() {
	a.open = false
	a.frames = nil
	a.clearPreroll()
}

func (a *Assembler) pushPreroll(frame audio.Frame) {
	a.preroll = append(a.preroll, frame)
	a.prerollDur += frame.Duration()
	for len(a.preroll) > 0 && a.prerollDur-a.preroll[0].Duration() >= a.cfg.Preroll {
		a.prerollDur -= a.preroll[0].Duration()
		a.preroll = a.preroll[1:]
	}
}

func (a *Assembler) clearPreroll() {
	a.preroll = nil
	a.prerollDur = 0
}
