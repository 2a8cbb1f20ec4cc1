package oteladapters

import (
	"context"
	"errors"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// ErrCollectingMetricsFailed is returned when the reader cannot collect.
var ErrCollectingMetricsFailed = errors.New("collecting metrics failed")

// Point kinds.
const (
	KindCounter   = "counter"
	KindHistogram = "histogram"
	KindGauge     = "gauge"
)

// Point is one data point of one instrument. Value holds the counter total or the gauge value;
// Count and Sum are set for histograms.
type Point struct {
	Name   string            `json:"name"`
	Kind   string            `json:"kind"`
	Labels map[string]string `json:"labels"`
	Value  float64           `json:"value"`
	Count  uint64            `json:"count,omitempty"`
	Sum    float64           `json:"sum,omitempty"`
}

// Snapshot collects the reader and returns every point sorted by name, then labels.
func Snapshot(ctx context.Context, reader *sdkmetric.ManualReader) ([]Point, error) {
	var resourceMetrics metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &resourceMetrics); err != nil {
		return nil, errors.Join(ErrCollectingMetricsFailed, err)
	}

	points := make([]Point, 0)

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			points = append(points, pointsOf(m)...)
		}
	}

	slices.SortFunc(points, func(a, b Point) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}

		return strings.Compare(labelKey(a.Labels), labelKey(b.Labels))
	})

	return points, nil
}

func pointsOf(m metricdata.Metrics) []Point {
	var points []Point

	switch data := m.Data.(type) {
	case metricdata.Sum[int64]:
		for _, dp := range data.DataPoints {
			points = append(points, Point{Name: m.Name, Kind: KindCounter, Labels: labelsOf(dp.Attributes.ToSlice()), Value: float64(dp.Value)})
		}
	case metricdata.Histogram[float64]:
		for _, dp := range data.DataPoints {
			points = append(points, Point{Name: m.Name, Kind: KindHistogram, Labels: labelsOf(dp.Attributes.ToSlice()), Count: dp.Count, Sum: dp.Sum})
		}
	case metricdata.Gauge[float64]:
		for _, dp := range data.DataPoints {
			points = append(points, Point{Name: m.Name, Kind: KindGauge, Labels: labelsOf(dp.Attributes.ToSlice()), Value: dp.Value})
		}
	}

	return points
}

func labelsOf(attrs []attribute.KeyValue) map[string]string {
	labels := make(map[string]string, len(attrs))
	for _, attr := range attrs {
		labels[string(attr.Key)] = attr.Value.Emit()
	}

	return labels
}

// labelKey renders labels in key order.
func labelKey(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for key := range labels {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var sb strings.Builder
	for _, key := range keys {
		sb.WriteString(key)
		sb.WriteByte('=')
		sb.WriteString(labels[key])
		sb.WriteByte(',')
	}

	return sb.String()
}
