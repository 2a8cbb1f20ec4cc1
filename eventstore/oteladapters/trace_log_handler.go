package oteladapters

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Log attributes added for records logged inside a recording span.
const (
	LogAttrTraceID = "trace_id"
	LogAttrSpanID  = "span_id"
)

// TraceLogHandler is a slog.Handler that adds the trace and span ids of the active span
// in the record's context before passing the record on.
// Wrap the process logger with it, the *slog.Logger then serves as eventstore.ContextualLogger.
type TraceLogHandler struct {
	next slog.Handler
}

func NewTraceLogHandler(next slog.Handler) *TraceLogHandler {
	return &TraceLogHandler{next: next}
}

func (h *TraceLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *TraceLogHandler) Handle(ctx context.Context, record slog.Record) error {
	if spanContext := trace.SpanContextFromContext(ctx); spanContext.IsValid() {
		record = record.Clone()
		record.AddAttrs(
			slog.String(LogAttrTraceID, spanContext.TraceID().String()),
			slog.String(LogAttrSpanID, spanContext.SpanID().String()),
		)
	}

	return h.next.Handle(ctx, record)
}

func (h *TraceLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceLogHandler{next: h.next.WithAttrs(attrs)}
}

func (h *TraceLogHandler) WithGroup(name string) slog.Handler {
	return &TraceLogHandler{next: h.next.WithGroup(name)}
}

var _ slog.Handler = (*TraceLogHandler)(nil)
