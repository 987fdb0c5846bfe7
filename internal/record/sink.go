package record

import "context"

// Sink receives store changes for durable persistence. Implementations live
// in the postgres and sqlite subpackages; [NopSink] keeps everything in
// memory only.
//
// Renumber receives the full post-renumbering snapshot of non-deleted
// records so table-shaped sinks can rewrite positions in one pass.
type Sink interface {
	Append(ctx context.Context, m Measurement) error
	Delete(ctx context.Context, m Measurement) error
	Renumber(ctx context.Context, live []Measurement) error
	Close() error
}

// NopSink discards all writes.
type NopSink struct{}

var _ Sink = NopSink{}

func (NopSink) Append(context.Context, Measurement) error     { return nil }
func (NopSink) Delete(context.Context, Measurement) error     { return nil }
func (NopSink) Renumber(context.Context, []Measurement) error { return nil }
func (NopSink) Close() error                                  { return nil }
