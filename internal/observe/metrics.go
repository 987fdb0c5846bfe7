// Package observe provides the application's observability primitives:
// OpenTelemetry metric instruments for every pipeline stage, and a Prometheus
// exporter bridge so they can be scraped from the standard /metrics endpoint.
//
// A package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all voxtally metrics.
const meterName = "github.com/voxtally/voxtally"

// Metrics holds all OpenTelemetry metric instruments for the pipeline.
// All fields are safe for concurrent use.
type Metrics struct {
	// SegmentsAssembled counts completed speech segments. Use with
	// attribute.String("outcome", "emitted"|"discarded"|"dropped"), where
	// dropped means the recognition backlog was full.
	SegmentsAssembled metric.Int64Counter

	// Recognitions counts ASR calls. Use with
	// attribute.String("status", "ok"|"failed"|"timeout").
	Recognitions metric.Int64Counter

	// Commands counts recognized voice commands by kind.
	Commands metric.Int64Counter

	// Measurements counts extraction outcomes. Use with
	// attribute.String("outcome", "accepted") or
	// attribute.String("outcome", "rejected"), attribute.String("reason", ...).
	Measurements metric.Int64Counter

	// RecognitionDuration tracks ASR latency.
	RecognitionDuration metric.Float64Histogram

	// SegmentDuration tracks the audio length of emitted segments.
	SegmentDuration metric.Float64Histogram

	// SessionActive is 1 while the session is recording, 0 otherwise.
	SessionActive metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// endpoint-to-text recognition latencies.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// segmentBuckets defines histogram boundaries (in seconds) for segment audio
// length.
var segmentBuckets = []float64{
	0.3, 0.5, 1, 2, 3, 5, 8, 15, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SegmentsAssembled, err = m.Int64Counter("voxtally.segments.assembled",
		metric.WithDescription("Completed speech segments by outcome."),
	); err != nil {
		return nil, err
	}
	if met.Recognitions, err = m.Int64Counter("voxtally.recognitions",
		metric.WithDescription("ASR calls by status."),
	); err != nil {
		return nil, err
	}
	if met.Commands, err = m.Int64Counter("voxtally.commands",
		metric.WithDescription("Recognized voice commands by kind."),
	); err != nil {
		return nil, err
	}
	if met.Measurements, err = m.Int64Counter("voxtally.measurements",
		metric.WithDescription("Measurement extraction outcomes."),
	); err != nil {
		return nil, err
	}
	if met.RecognitionDuration, err = m.Float64Histogram("voxtally.recognition.duration",
		metric.WithDescription("Latency of speech recognition."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SegmentDuration, err = m.Float64Histogram("voxtally.segment.duration",
		metric.WithDescription("Audio length of emitted segments."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(segmentBuckets...),
	); err != nil {
		return nil, err
	}

	if met.SessionActive, err = m.Int64UpDownCounter("voxtally.session.active",
		metric.WithDescription("1 while the session is recording."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordRecognition records one ASR call outcome with its latency.
func (m *Metrics) RecordRecognition(ctx context.Context, status string, seconds float64) {
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.Recognitions.Add(ctx, 1, attrs)
	m.RecognitionDuration.Record(ctx, seconds, attrs)
}

// RecordSegment records one assembled segment outcome.
func (m *Metrics) RecordSegment(ctx context.Context, outcome string, seconds float64) {
	m.SegmentsAssembled.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)))
	if outcome == "emitted" {
		m.SegmentDuration.Record(ctx, seconds)
	}
}

// RecordCommand records one recognized voice command.
func (m *Metrics) RecordCommand(ctx context.Context, kind string) {
	m.Commands.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordMeasurementAccepted records one accepted measurement.
func (m *Metrics) RecordMeasurementAccepted(ctx context.Context) {
	m.Measurements.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", "accepted")))
}

// RecordMeasurementRejected records one rejected candidate with its reason.
func (m *Metrics) RecordMeasurementRejected(ctx context.Context, reason string) {
	m.Measurements.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", "rejected"),
		attribute.String("reason", reason),
	))
}
