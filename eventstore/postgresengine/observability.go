package postgresengine

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/school-library/librarian/eventstore"
)

const (
	metricQueryDuration        = "eventstore_query_duration_seconds"
	metricAppendDuration       = "eventstore_append_duration_seconds"
	metricEventsQueried        = "eventstore_events_queried_total"
	metricEventsAppended       = "eventstore_events_appended_total"
	metricConcurrencyConflicts = "eventstore_concurrency_conflicts_total"
	metricDatabaseErrors       = "eventstore_database_errors_total"

	labelOperation = "operation"
	labelStatus    = "status"
	labelErrorType = "error_type"

	operationQuery  = "query"
	operationAppend = "append"
	operationSchema = "ensure_schema"

	statusSuccess = "success"
	statusError   = "error"

	errorTypeBuildQuery   = "build_query"
	errorTypeDatabase     = "database_query"
	errorTypeDatabaseExec = "database_exec"
	errorTypeRowScan      = "row_scan"
	errorTypeRowsAffected = "rows_affected"
)

// logQueryWithDuration logs SQL queries with execution time at debug level if a logger is configured.
func (es EventStore) logQueryWithDuration(ctx context.Context, sqlQuery string, action string, duration time.Duration) {
	args := []any{logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery}

	switch {
	case es.contextualLogger != nil:
		es.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, args...)
	case es.logger != nil:
		es.logger.Debug(logMsgSQLExecuted+action, args...)
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (es EventStore) logOperation(ctx context.Context, action string, args ...any) {
	switch {
	case es.contextualLogger != nil:
		es.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	case es.logger != nil:
		es.logger.Info(logMsgOperation+action, args...)
	}
}

// logWarn logs non-critical problems.
func (es EventStore) logWarn(ctx context.Context, message string, err error) {
	switch {
	case es.contextualLogger != nil:
		es.contextualLogger.WarnContext(ctx, message, logAttrError, err.Error())
	case es.logger != nil:
		es.logger.Warn(message, logAttrError, err.Error())
	}
}

// logError logs error information at error level if a logger is configured.
func (es EventStore) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	switch {
	case es.contextualLogger != nil:
		es.contextualLogger.ErrorContext(ctx, message, allArgs...)
	case es.logger != nil:
		es.logger.Error(message, allArgs...)
	}
}

func (es EventStore) recordDuration(ctx context.Context, metric string, duration time.Duration, operation, status string) {
	labels := map[string]string{labelOperation: operation, labelStatus: status}

	switch collector := es.metricsCollector.(type) {
	case nil:
	case eventstore.ContextualMetricsCollector:
		collector.RecordDurationContext(ctx, metric, duration, labels)
	default:
		collector.RecordDuration(metric, duration, labels)
	}
}

func (es EventStore) recordValue(ctx context.Context, metric string, value float64, operation string) {
	labels := map[string]string{labelOperation: operation, labelStatus: statusSuccess}

	switch collector := es.metricsCollector.(type) {
	case nil:
	case eventstore.ContextualMetricsCollector:
		collector.RecordValueContext(ctx, metric, value, labels)
	default:
		collector.RecordValue(metric, value, labels)
	}
}

func (es EventStore) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	switch collector := es.metricsCollector.(type) {
	case nil:
	case eventstore.ContextualMetricsCollector:
		collector.IncrementCounterContext(ctx, metric, labels)
	default:
		collector.IncrementCounter(metric, labels)
	}
}

func (es EventStore) recordError(ctx context.Context, operation, errorType string) {
	es.incrementCounter(ctx, metricDatabaseErrors, map[string]string{
		labelOperation: operation,
		labelStatus:    statusError,
		labelErrorType: errorType,
	})
}

func (es EventStore) recordConcurrencyConflict(ctx context.Context) {
	es.incrementCounter(ctx, metricConcurrencyConflicts, map[string]string{labelOperation: operationAppend})
}

func (es EventStore) startQuerySpan(ctx context.Context) (context.Context, eventstore.SpanContext) {
	return eventstore.StartSpan(ctx, es.tracingCollector, eventstore.SpanNameQuery, map[string]string{
		eventstore.SpanAttrOperation: operationQuery,
		logAttrTable:                 es.eventTableName,
	})
}

func (es EventStore) startAppendSpan(
	ctx context.Context,
	events eventstore.StorableEvents,
	expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
) (context.Context, eventstore.SpanContext) {

	return eventstore.StartSpan(ctx, es.tracingCollector, eventstore.SpanNameAppend, map[string]string{
		eventstore.SpanAttrOperation:   operationAppend,
		logAttrTable:                   es.eventTableName,
		eventstore.SpanAttrEventType:   events[0].EventType,
		eventstore.SpanAttrEventCount:  strconv.Itoa(len(events)),
		eventstore.SpanAttrExpectedSeq: strconv.FormatUint(uint64(expectedMaxSequenceNumber), 10),
	})
}

// finishSpanWithError finishes span as failed; errorType is one of the errorType* constants.
func (es EventStore) finishSpanWithError(span eventstore.SpanContext, errorType string) {
	eventstore.FinishSpan(es.tracingCollector, span, eventstore.SpanStatusError, map[string]string{
		eventstore.SpanAttrErrorType: errorType,
	})
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
