package oteladapters_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/school-library/librarian/eventstore/oteladapters"
)

func givenCollector() (*oteladapters.MetricsCollector, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return oteladapters.NewMetricsCollector(provider.Meter("test")), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics))

	return resourceMetrics
}

func findMetric(t *testing.T, resourceMetrics metricdata.ResourceMetrics, name string) metricdata.Metrics {
	t.Helper()

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name == name {
				return m
			}
		}
	}

	require.Failf(t, "metric not found", "metric %s", name)

	return metricdata.Metrics{}
}

func Test_MetricsCollector_RecordDuration(t *testing.T) {
	// arrange
	collector, reader := givenCollector()
	labels := map[string]string{"command_type": "LendBook", "status": "success"}

	// act
	collector.RecordDuration("commandhandler_handle_duration_seconds", 150*time.Millisecond, labels)

	// assert
	histogram, ok := findMetric(t, collect(t, reader), "commandhandler_handle_duration_seconds").Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, histogram.DataPoints, 1)

	dataPoint := histogram.DataPoints[0]
	assert.Equal(t, uint64(1), dataPoint.Count)
	assert.InDelta(t, 0.15, dataPoint.Sum, 0.001)

	expectedAttrs := attribute.NewSet(attribute.String("command_type", "LendBook"), attribute.String("status", "success"))
	assert.True(t, dataPoint.Attributes.Equals(&expectedAttrs))
}

func Test_MetricsCollector_IncrementCounter(t *testing.T) {
	// arrange
	collector, reader := givenCollector()
	labels := map[string]string{"command_type": "ReturnBook", "status": "rejected"}

	// act
	for range 3 {
		collector.IncrementCounter("commandhandler_rejected_operations_total", labels)
	}

	// assert
	counter, ok := findMetric(t, collect(t, reader), "commandhandler_rejected_operations_total").Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, counter.DataPoints, 1)
	assert.Equal(t, int64(3), counter.DataPoints[0].Value)
}

func Test_MetricsCollector_RecordValue(t *testing.T) {
	// arrange
	collector, reader := givenCollector()

	// act
	collector.RecordValue("eventstore_query_events_returned", 42, map[string]string{"operation": "query"})
	collector.RecordValue("eventstore_query_events_returned", 7, map[string]string{"operation": "query"})

	// assert
	gauge, ok := findMetric(t, collect(t, reader), "eventstore_query_events_returned").Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, 7.0, gauge.DataPoints[0].Value)
}

func Test_MetricsCollector_ConcurrentUse(t *testing.T) {
	// arrange
	collector, reader := givenCollector()
	var wg sync.WaitGroup

	// act
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.IncrementCounter("concurrent_total", nil)
			collector.RecordDuration("concurrent_duration_seconds", time.Duration(i)*time.Millisecond, nil)
		}()
	}
	wg.Wait()

	// assert
	resourceMetrics := collect(t, reader)
	counter := findMetric(t, resourceMetrics, "concurrent_total").Data.(metricdata.Sum[int64])
	assert.Equal(t, int64(50), counter.DataPoints[0].Value)
	histogram := findMetric(t, resourceMetrics, "concurrent_duration_seconds").Data.(metricdata.Histogram[float64])
	assert.Equal(t, uint64(50), histogram.DataPoints[0].Count)
}

func Test_MetricsCollector_ContextVariants_RecordLikeThePlainOnes(t *testing.T) {
	// arrange
	collector, reader := givenCollector()
	ctx := context.Background()
	labels := map[string]string{"operation": "append"}

	// act
	collector.RecordDurationContext(ctx, "eventstore_append_duration_seconds", 20*time.Millisecond, labels)
	collector.IncrementCounterContext(ctx, "eventstore_append_total", labels)
	collector.RecordValueContext(ctx, "eventstore_events_appended", 3, labels)

	// assert
	resourceMetrics := collect(t, reader)

	histogram, ok := findMetric(t, resourceMetrics, "eventstore_append_duration_seconds").Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, histogram.DataPoints, 1)
	assert.Equal(t, uint64(1), histogram.DataPoints[0].Count)

	counter, ok := findMetric(t, resourceMetrics, "eventstore_append_total").Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, counter.DataPoints, 1)
	assert.Equal(t, int64(1), counter.DataPoints[0].Value)

	gauge, ok := findMetric(t, resourceMetrics, "eventstore_events_appended").Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.InDelta(t, 3.0, gauge.DataPoints[0].Value, 0.0001)
}
