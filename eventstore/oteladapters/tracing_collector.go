package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/school-library/librarian/eventstore"
)

// Statuses the engines and the command wrapper report. Anything else is kept as a "status"
// attribute and leaves the span status unset.
var spanErrorDescriptions = map[string]string{
	"error":                "operation failed",
	"canceled":             "operation canceled",
	"timeout":              "operation timed out",
	"concurrency_conflict": "concurrency conflict",
}

var spanOKStatuses = map[string]bool{
	"success":    true,
	"idempotent": true,
}

// TracingCollector implements eventstore.TracingCollector with an OpenTelemetry tracer.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a collector on the given tracer, e.g. provider.Tracer("circulation").
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan starts a child of the span in ctx, if any, and returns the context carrying the new span.
func (t *TracingCollector) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, eventstore.SpanContext) {

	spanCtx, span := t.tracer.Start(ctx, name, trace.WithAttributes(toAttributes(attrs)...))

	return spanCtx, &Span{span: span}
}

// FinishSpan sets the final attributes and status and ends the span.
// SpanContexts not created by this collector are ignored.
func (t *TracingCollector) FinishSpan(spanCtx eventstore.SpanContext, status string, attrs map[string]string) {
	span, ok := spanCtx.(*Span)
	if !ok {
		return
	}

	span.span.SetAttributes(toAttributes(attrs)...)
	span.SetStatus(status)
	span.span.End()
}

// Span implements eventstore.SpanContext on an OpenTelemetry span.
type Span struct {
	span trace.Span
}

func (s *Span) SetStatus(status string) {
	if description, failed := spanErrorDescriptions[status]; failed {
		s.span.SetStatus(codes.Error, description)
		return
	}

	if spanOKStatuses[status] {
		s.span.SetStatus(codes.Ok, "")
		return
	}

	s.span.SetAttributes(attribute.String("status", status))
}

func (s *Span) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

var (
	_ eventstore.TracingCollector = (*TracingCollector)(nil)
	_ eventstore.SpanContext      = (*Span)(nil)
)
