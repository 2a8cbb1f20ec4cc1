// Package oteladapters implements the dependency-free observability interfaces of the eventstore
// package on top of OpenTelemetry:
//   - MetricsCollector on the metrics API, with Snapshot flattening what an sdk ManualReader
//     collected into plain points that can be served as JSON
//   - TracingCollector on the trace API
//   - TraceLogHandler, a slog.Handler that correlates log lines with the active span
package oteladapters
