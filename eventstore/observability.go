package eventstore

import (
	"context"
	"time"
)

// Span names and attributes the engines use, so spans look the same whichever engine is wired.
const (
	SpanNameQuery  = "eventstore.query"
	SpanNameAppend = "eventstore.append"

	SpanAttrOperation    = "operation"
	SpanAttrEventCount   = "event_count"
	SpanAttrEventType    = "event_type"
	SpanAttrExpectedSeq  = "expected_sequence"
	SpanAttrMaxSequence  = "max_sequence"
	SpanAttrRowsAffected = "rows_affected"
	SpanAttrErrorType    = "error_type"

	SpanStatusSuccess  = "success"
	SpanStatusError    = "error"
	SpanStatusConflict = "concurrency_conflict"
)

// Logger interface for SQL query logging, operational information, warnings, and error reporting.
// *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContextualLogger interface for context-aware logging, e.g. to correlate log lines with a request id
// or the active trace. *slog.Logger satisfies it.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// MetricsCollector interface for collecting performance and operational metrics.
// It is dependency-free so any metrics backend can be plugged in.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

// ContextualMetricsCollector is a MetricsCollector that also accepts the context of the measurement,
// so a backend can link it to the active span. Callers prefer these methods when they are available.
type ContextualMetricsCollector interface {
	MetricsCollector
	RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string)
	IncrementCounterContext(ctx context.Context, metric string, labels map[string]string)
	RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string)
}

// SpanContext is an active span that can still be updated before it is finished.
type SpanContext interface {
	SetStatus(status string)
	AddAttribute(key, value string)
}

// TracingCollector starts and finishes spans. Like MetricsCollector it is dependency-free;
// oteladapters.TracingCollector implements it on OpenTelemetry.
type TracingCollector interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
	FinishSpan(spanCtx SpanContext, status string, attrs map[string]string)
}

// StartSpan starts a span if collector is set. Otherwise it returns ctx and a nil SpanContext,
// which FinishSpan accepts.
func StartSpan(ctx context.Context, collector TracingCollector, name string, attrs map[string]string) (context.Context, SpanContext) {
	if collector == nil {
		return ctx, nil
	}

	return collector.StartSpan(ctx, name, attrs)
}

// FinishSpan finishes span if both collector and span are set.
func FinishSpan(collector TracingCollector, span SpanContext, status string, attrs map[string]string) {
	if collector == nil || span == nil {
		return
	}

	collector.FinishSpan(span, status, attrs)
}
