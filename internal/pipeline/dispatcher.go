package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/voxtally/voxtally/internal/observe"
	"github.com/voxtally/voxtally/internal/segment"
	"github.com/voxtally/voxtally/pkg/provider/stt"
)

const defaultRecognitionTimeout = 15 * time.Second

// Dispatcher runs completed segments through the recognizer with a timeout.
// A failed or timed-out recognition drops the segment and the pipeline
// continues; one bad segment never blocks the ones behind it.
type Dispatcher struct {
	rec     stt.Recognizer
	timeout time.Duration
	metrics *observe.Metrics
	log     *slog.Logger
}

// NewDispatcher returns a Dispatcher calling rec. A zero timeout defaults to
// 15s.
func NewDispatcher(rec stt.Recognizer, timeout time.Duration, metrics *observe.Metrics, log *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultRecognitionTimeout
	}
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{rec: rec, timeout: timeout, metrics: metrics, log: log}
}

// Recognize transcribes one segment. ok is false when recognition failed or
// timed out; both are recovered locally and logged, never returned as errors.
func (d *Dispatcher) Recognize(ctx context.Context, seg *segment.Segment) (stt.Result, bool) {
	rctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	res, err := d.rec.Transcribe(rctx, seg.PCM(), seg.SampleRate())
	elapsed := time.Since(start)

	if err != nil {
		status := "failed"
		if errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
		}
		d.metrics.RecordRecognition(ctx, status, elapsed.Seconds())
		d.log.Warn("recognition failed, segment dropped",
			"status", status,
			"segment_duration", seg.Duration(),
			"error", err)
		return stt.Result{}, false
	}

	d.metrics.RecordRecognition(ctx, "ok", elapsed.Seconds())
	d.log.Debug("segment recognized",
		"text", res.Text,
		"confidence", res.Confidence,
		"latency", elapsed)
	return res, true
}
