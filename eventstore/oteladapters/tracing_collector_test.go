package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/school-library/librarian/eventstore"
	"github.com/school-library/librarian/eventstore/oteladapters"
)

func givenTracingCollector() (*oteladapters.TracingCollector, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	return oteladapters.NewTracingCollector(provider.Tracer("test")), exporter
}

func findSpan(t *testing.T, spans tracetest.SpanStubs, name string) tracetest.SpanStub {
	t.Helper()

	for _, span := range spans {
		if span.Name == name {
			return span
		}
	}

	require.Failf(t, "span not found", "span %s", name)

	return tracetest.SpanStub{}
}

func attributeValue(span tracetest.SpanStub, key string) (string, bool) {
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			return attr.Value.AsString(), true
		}
	}

	return "", false
}

func Test_TracingCollector_StartAndFinishSpan(t *testing.T) {
	// arrange
	collector, exporter := givenTracingCollector()

	// act
	_, span := collector.StartSpan(context.Background(), "eventstore.query", map[string]string{"operation": "query"})
	span.AddAttribute("table", "events")
	collector.FinishSpan(span, "success", map[string]string{"event_count": "4"})

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	stub := spans[0]
	assert.Equal(t, "eventstore.query", stub.Name)
	assert.Equal(t, codes.Ok, stub.Status.Code)
	assert.Contains(t, stub.Attributes, attribute.String("operation", "query"))
	assert.Contains(t, stub.Attributes, attribute.String("table", "events"))
	assert.Contains(t, stub.Attributes, attribute.String("event_count", "4"))
}

func Test_TracingCollector_MapsStatuses(t *testing.T) {
	testCases := []struct {
		status         string
		expectedCode   codes.Code
		expectedStatus string
	}{
		{status: "success", expectedCode: codes.Ok},
		{status: "idempotent", expectedCode: codes.Ok},
		{status: "error", expectedCode: codes.Error},
		{status: "canceled", expectedCode: codes.Error},
		{status: "timeout", expectedCode: codes.Error},
		{status: "concurrency_conflict", expectedCode: codes.Error},
		{status: "rejected", expectedCode: codes.Unset, expectedStatus: "rejected"},
	}

	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			// arrange
			collector, exporter := givenTracingCollector()
			_, span := collector.StartSpan(context.Background(), "commandhandler.handle", nil)

			// act
			collector.FinishSpan(span, tc.status, nil)

			// assert
			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tc.expectedCode, spans[0].Status.Code)

			statusAttr, found := attributeValue(spans[0], "status")
			if tc.expectedStatus == "" {
				assert.False(t, found)
			} else {
				assert.Equal(t, tc.expectedStatus, statusAttr)
			}
		})
	}
}

func Test_TracingCollector_NestsSpansStartedFromTheReturnedContext(t *testing.T) {
	// arrange
	collector, exporter := givenTracingCollector()

	// act
	ctx, parent := collector.StartSpan(context.Background(), "commandhandler.handle", nil)
	_, child := collector.StartSpan(ctx, "eventstore.append", nil)
	collector.FinishSpan(child, "success", nil)
	collector.FinishSpan(parent, "success", nil)

	// assert
	spans := exporter.GetSpans()
	parentStub := findSpan(t, spans, "commandhandler.handle")
	childStub := findSpan(t, spans, "eventstore.append")

	assert.Equal(t, parentStub.SpanContext.TraceID(), childStub.SpanContext.TraceID())
	assert.Equal(t, parentStub.SpanContext.SpanID(), childStub.Parent.SpanID())
}

func Test_TracingCollector_IgnoresForeignSpanContexts(t *testing.T) {
	// arrange
	collector, exporter := givenTracingCollector()

	// act
	collector.FinishSpan(foreignSpan{}, "success", nil)

	// assert
	assert.Empty(t, exporter.GetSpans())
}

type foreignSpan struct{}

func (foreignSpan) SetStatus(string)            {}
func (foreignSpan) AddAttribute(string, string) {}

var _ eventstore.SpanContext = foreignSpan{}
