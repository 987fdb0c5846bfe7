// Package pipeline wires the capture-to-store data path together:
//
//	FrameSource → Suppressor → Detector → Assembler → Dispatcher →
//	Classifier → {state machine | Extractor → Store}
//
// The capture loop consumes frames at device cadence and never blocks; the
// single recognition worker processes segments strictly in assembly order so
// a set-context command always applies before the measurements spoken after
// it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/voxtally/voxtally/internal/command"
	"github.com/voxtally/voxtally/internal/numeric"
	"github.com/voxtally/voxtally/internal/observe"
	"github.com/voxtally/voxtally/internal/record"
	"github.com/voxtally/voxtally/internal/segment"
	"github.com/voxtally/voxtally/internal/session"
	"github.com/voxtally/voxtally/pkg/audio"
	"github.com/voxtally/voxtally/pkg/provider/vad"
)

const defaultSegmentQueue = 8

// Config holds the pipeline tuning knobs.
type Config struct {
	Detector  segment.DetectorConfig
	Assembler segment.AssemblerConfig

	// RecognitionTimeout bounds each recognizer call. Default: 15s.
	RecognitionTimeout time.Duration

	// SegmentQueue is the buffer between assembly and recognition. When the
	// recognizer falls behind by more than this many segments, newly assembled
	// segments are dropped until it catches up. Default: 8.
	SegmentQueue int
}

// Pipeline owns one capture session from device to measurement store.
// Create with New, drive with Run, and feed triggers through the OnKeyToggle,
// OnKeyStop, OnRecognizedCommand, and SetPlaying surface.
type Pipeline struct {
	source     audio.FrameSource
	suppressor *audio.Suppressor
	detector   *segment.Detector
	assembler  *segment.Assembler
	dispatcher *Dispatcher
	classifier *command.Classifier
	extractor  *numeric.Extractor
	store      *record.Store
	machine    *session.Machine

	metrics *observe.Metrics
	log     *slog.Logger

	segments chan *segment.Segment

	mu        sync.Mutex
	contextID float64
}

// Deps are the collaborators a Pipeline is assembled from. Source, Scorer,
// Dispatcher, Classifier, Extractor, and Store are required.
type Deps struct {
	Source     audio.FrameSource
	Scorer     vad.Scorer
	Dispatcher *Dispatcher
	Classifier *command.Classifier
	Extractor  *numeric.Extractor
	Store      *record.Store

	// Metrics and Log default to the package-level instances when nil.
	Metrics *observe.Metrics
	Log     *slog.Logger
}

// New assembles a Pipeline in the Idle state.
func New(cfg Config, deps Deps) *Pipeline {
	if cfg.SegmentQueue <= 0 {
		cfg.SegmentQueue = defaultSegmentQueue
	}
	if deps.Metrics == nil {
		deps.Metrics = observe.DefaultMetrics()
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}

	return &Pipeline{
		source:     deps.Source,
		suppressor: audio.NewSuppressor(),
		detector:   segment.NewDetector(cfg.Detector, deps.Scorer, deps.Log),
		assembler:  segment.NewAssembler(cfg.Assembler, deps.Log),
		dispatcher: deps.Dispatcher,
		classifier: deps.Classifier,
		extractor:  deps.Extractor,
		store:      deps.Store,
		machine:    session.NewMachine(),
		metrics:    deps.Metrics,
		log:        deps.Log,
		segments:   make(chan *segment.Segment, cfg.SegmentQueue),
	}
}

// Machine exposes the session state machine for observers.
func (p *Pipeline) Machine() *session.Machine { return p.machine }

// ContextID returns the currently active grouping value.
func (p *Pipeline) ContextID() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.contextID
}

// SetPlaying opens or closes the feedback suppression window. The external
// TTS collaborator calls this at playback start and end.
func (p *Pipeline) SetPlaying(playing bool) {
	p.suppressor.SetPlaying(playing)
}

// OnKeyToggle flips Recording ↔ Paused from the keyboard path.
func (p *Pipeline) OnKeyToggle() {
	if state, changed := p.machine.Apply(session.TriggerKeyToggle); changed {
		p.log.Info("key toggle", "state", state.String())
	}
}

// OnKeyStop stops the session from the keyboard path.
func (p *Pipeline) OnKeyStop() {
	if state, changed := p.machine.Apply(session.TriggerStop); changed {
		p.log.Info("key stop", "state", state.String())
	}
}

// OnRecognizedCommand applies a command from any external surface (a UI layer
// for example) exactly as if it had been spoken.
func (p *Pipeline) OnRecognizedCommand(cmd command.Command) {
	p.applyCommand(context.Background(), cmd)
}

// Stop ends the session from the lifecycle path. In-flight segments are
// discarded, the device is released, and the store is left consistent.
func (p *Pipeline) Stop() {
	p.machine.Apply(session.TriggerStop)
}

// Run starts capture and processes frames until the session stops or ctx is
// cancelled. It returns [audio.ErrDeviceUnavailable] when the device cannot
// be acquired.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.source.Start(ctx); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	p.machine.Apply(session.TriggerStart)
	p.metrics.SessionActive.Add(ctx, 1)

	states := p.machine.Subscribe()

	g, gctx := errgroup.WithContext(ctx)

	// Lifecycle watcher: a Stop trigger from any path releases the device,
	// which ends the capture loop, which ends the worker.
	g.Go(func() error {
		prev := session.Recording
		for {
			var s session.State
			select {
			case <-gctx.Done():
				p.machine.Apply(session.TriggerStop)
				p.source.Stop()
				if prev == session.Recording {
					p.metrics.SessionActive.Add(context.Background(), -1)
				}
				return nil
			case s = <-states:
			}

			switch {
			case s == session.Recording && prev != session.Recording:
				p.metrics.SessionActive.Add(gctx, 1)
			case s != session.Recording && prev == session.Recording:
				p.metrics.SessionActive.Add(gctx, -1)
			}
			prev = s

			if s == session.Stopped {
				p.source.Stop()
				return nil
			}
		}
	})

	g.Go(func() error {
		defer close(p.segments)
		p.captureLoop()
		return nil
	})

	g.Go(func() error {
		p.recognitionWorker(gctx)
		return nil
	})

	err := g.Wait()
	p.log.Info("pipeline stopped", "records", p.store.Len())
	return err
}

// captureLoop consumes frames at device cadence. It must never block: the
// segment queue send is non-blocking and drops the segment when the
// recognizer is too far behind.
func (p *Pipeline) captureLoop() {
	for frame := range p.source.Frames() {
		if p.machine.State() != session.Recording {
			// Paused (or stopping): frames are discarded before detection.
			// A segment in progress is abandoned, not recognized.
			if p.detector.InSpeech() {
				p.detector.Reset()
				p.assembler.Abandon()
			}
			continue
		}

		frame = p.suppressor.Apply(frame)
		ev := p.detector.Feed(frame)
		seg := p.assembler.Feed(frame, ev)
		if seg == nil {
			if ev == segment.EventSpeechEnd {
				p.metrics.RecordSegment(context.Background(), "discarded", 0)
			}
			continue
		}

		select {
		case p.segments <- seg:
			p.metrics.RecordSegment(context.Background(), "emitted", seg.Duration().Seconds())
		default:
			p.metrics.RecordSegment(context.Background(), "dropped", 0)
			p.log.Warn("recognition backlog full, segment dropped",
				"duration", seg.Duration())
		}
	}
}

// recognitionWorker processes segments strictly in assembly order. There is
// exactly one worker: set-context commands must apply before later
// measurements, so recognition results cannot be reordered.
func (p *Pipeline) recognitionWorker(ctx context.Context) {
	for seg := range p.segments {
		if p.machine.State() == session.Stopped {
			continue // drain without recognizing
		}
		res, ok := p.dispatcher.Recognize(ctx, seg)
		if !ok || res.Text == "" {
			continue
		}
		p.handleText(ctx, res.Text)
	}
}

// handleText routes recognized text: commands feed the state machine,
// everything else goes through extraction to the store.
func (p *Pipeline) handleText(ctx context.Context, text string) {
	if cmd, ok := p.classifier.Classify(text); ok {
		p.applyCommand(ctx, cmd)
		return
	}

	accepted, rejected := p.extractor.Extract(text)
	for _, r := range rejected {
		p.metrics.RecordMeasurementRejected(ctx, string(r.Reason))
		p.log.Debug("measurement candidate rejected",
			"raw", r.Candidate.Raw, "value", r.Candidate.Value, "reason", r.Reason)
	}
	for _, c := range accepted {
		p.metrics.RecordMeasurementAccepted(ctx)
		id, err := p.store.Append(ctx, record.Measurement{
			ContextID: p.ContextID(),
			Value:     c.Value,
			RawText:   text,
		})
		if err != nil {
			p.log.Warn("measurement recorded but not yet durable",
				"voice_entry_id", id, "error", err)
			continue
		}
		p.log.Info("measurement recorded",
			"voice_entry_id", id, "value", c.Value, "context_id", p.ContextID())
	}
}

func (p *Pipeline) applyCommand(ctx context.Context, cmd command.Command) {
	p.metrics.RecordCommand(ctx, cmd.Kind.String())

	switch cmd.Kind {
	case command.Pause:
		p.machine.Apply(session.TriggerPause)
	case command.Resume:
		p.machine.Apply(session.TriggerResume)
	case command.Stop:
		p.machine.Apply(session.TriggerStop)
	case command.SetContext:
		p.mu.Lock()
		p.contextID = cmd.Value
		p.mu.Unlock()
		p.log.Info("context changed", "context_id", cmd.Value)
	}
}
