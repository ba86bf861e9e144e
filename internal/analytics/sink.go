package analytics

import (
	"context"
	"log/slog"
)

// Payload is the scalar key/value data attached to a telemetry event.
type Payload map[string]any

// Sink receives telemetry events. Recording is fire-and-forget: a sink must
// not block the caller for long and has no way to report failure back.
type Sink interface {
	Record(ctx context.Context, name string, payload Payload)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, name string, payload Payload)

// Record calls f.
func (f SinkFunc) Record(ctx context.Context, name string, payload Payload) {
	f(ctx, name, payload)
}

// MultiSink fans each event out to every sink in order.
type MultiSink []Sink

// Record forwards the event to every sink.
func (m MultiSink) Record(ctx context.Context, name string, payload Payload) {
	for _, s := range m {
		s.Record(ctx, name, payload)
	}
}

// LogSink writes events to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

// NewLogSink returns a LogSink using logger, or slog.Default when nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{Logger: logger}
}

// Record logs the event at info level.
func (s *LogSink) Record(ctx context.Context, name string, payload Payload) {
	attrs := make([]slog.Attr, 0, len(payload)+1)
	attrs = append(attrs, slog.String("event", name))
	for k, v := range payload {
		attrs = append(attrs, slog.Any(k, v))
	}
	s.Logger.LogAttrs(ctx, slog.LevelInfo, "telemetry event", attrs...)
}
