package observe

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestRecordRecognition(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordRecognition(ctx, "ok", 0.42)
	m.RecordRecognition(ctx, "failed", 1.5)
	m.RecordRecognition(ctx, "ok", 0.1)

	rm := collect(t, reader)

	counter := findMetric(rm, "voxtally.recognitions")
	if counter == nil {
		t.Fatal("recognitions counter not found")
	}
	sum, ok := counter.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("recognitions data type = %T, want Sum[int64]", counter.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	if total != 3 {
		t.Errorf("recognitions total = %d, want 3", total)
	}
	if len(sum.DataPoints) != 2 {
		t.Errorf("recognitions has %d attribute sets, want 2 (ok, failed)", len(sum.DataPoints))
	}

	hist := findMetric(rm, "voxtally.recognition.duration")
	if hist == nil {
		t.Fatal("recognition duration histogram not found")
	}
	hd, ok := hist.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("duration data type = %T, want Histogram[float64]", hist.Data)
	}
	var count uint64
	for _, dp := range hd.DataPoints {
		count += dp.Count
	}
	if count != 3 {
		t.Errorf("duration observations = %d, want 3", count)
	}
}

func TestRecordSegment_OnlyEmittedRecordsDuration(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordSegment(ctx, "emitted", 2.5)
	m.RecordSegment(ctx, "discarded", 0.1)
	m.RecordSegment(ctx, "dropped", 0)

	rm := collect(t, reader)

	counter := findMetric(rm, "voxtally.segments.assembled")
	if counter == nil {
		t.Fatal("segments counter not found")
	}
	sum := counter.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 3 {
		t.Errorf("segments has %d attribute sets, want 3 (emitted, discarded, dropped)",
			len(sum.DataPoints))
	}

	hist := findMetric(rm, "voxtally.segment.duration")
	if hist == nil {
		t.Fatal("segment duration histogram not found")
	}
	hd := hist.Data.(metricdata.Histogram[float64])
	var count uint64
	for _, dp := range hd.DataPoints {
		count += dp.Count
	}
	if count != 1 {
		t.Errorf("duration observations = %d, want 1 (only emitted segments count)", count)
	}
}

func TestRecordMeasurementOutcomes(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordMeasurementAccepted(ctx)
	m.RecordMeasurementRejected(ctx, "context-noise")
	m.RecordMeasurementRejected(ctx, "out-of-range")

	rm := collect(t, reader)

	counter := findMetric(rm, "voxtally.measurements")
	if counter == nil {
		t.Fatal("measurements counter not found")
	}
	sum := counter.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 3 {
		t.Errorf("measurements has %d attribute sets, want 3", len(sum.DataPoints))
	}
}
