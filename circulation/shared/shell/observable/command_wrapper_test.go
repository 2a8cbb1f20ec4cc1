package observable_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/school-library/librarian/circulation/shared/core"
	"github.com/school-library/librarian/circulation/shared/shell"
	"github.com/school-library/librarian/circulation/shared/shell/observable"
	"github.com/school-library/librarian/eventstore"
	"github.com/school-library/librarian/testutil/helper"
)

type testCommand struct{}

func (testCommand) CommandType() string { return "TestCommand" }

type stubHandler struct {
	result shell.HandlerResult
	err    error
}

func (h stubHandler) Handle(_ context.Context, _ testCommand) (shell.HandlerResult, error) {
	return h.result, h.err
}

func Test_CommandWrapper_Handle(t *testing.T) {
	testCases := []struct {
		name           string
		handler        stubHandler
		expectedStatus string
		expectedMetric string
		assertLog      func(t *testing.T, spy *helper.LogHandlerSpy)
	}{
		{
			name:           "success",
			handler:        stubHandler{result: shell.NewSuccessResult(core.BuildBookRestocked(3, 4, helper.Day(2024, 9, 1)))},
			expectedStatus: shell.StatusSuccess,
			assertLog: func(t *testing.T, spy *helper.LogHandlerSpy) {
				assert.True(t, spy.HasInfoLogWithMessage(shell.LogMsgCommandCompleted).WithDurationMS().Assert())
			},
		},
		{
			name:           "idempotent",
			handler:        stubHandler{result: shell.NewIdempotentResult()},
			expectedStatus: shell.StatusIdempotent,
			expectedMetric: shell.CommandHandlerIdempotentMetric,
			assertLog: func(t *testing.T, spy *helper.LogHandlerSpy) {
				assert.True(t, spy.HasInfoLogWithMessage(shell.LogMsgCommandCompleted).
					WithAttribute(shell.LogAttrBusinessOutcome, shell.StatusIdempotent).Assert())
			},
		},
		{
			name:           "rejected by business rule",
			handler:        stubHandler{err: fmt.Errorf("%w: book 3", core.ErrOutOfStock)},
			expectedStatus: shell.StatusRejected,
			expectedMetric: shell.CommandHandlerRejectedMetric,
			assertLog: func(t *testing.T, spy *helper.LogHandlerSpy) {
				assert.True(t, spy.HasInfoLogWithMessage(shell.LogMsgCommandRejected).WithError().Assert())
			},
		},
		{
			name:           "concurrency conflict",
			handler:        stubHandler{err: eventstore.ErrConcurrencyConflict},
			expectedStatus: shell.StatusConcurrencyConflict,
			expectedMetric: shell.CommandHandlerConcurrencyConflictMetric,
			assertLog: func(t *testing.T, spy *helper.LogHandlerSpy) {
				assert.True(t, spy.HasErrorLogWithMessage(shell.LogMsgCommandFailed).Assert())
			},
		},
		{
			name:           "canceled",
			handler:        stubHandler{err: errors.Join(eventstore.ErrAppendingEventFailed, context.Canceled)},
			expectedStatus: shell.StatusCanceled,
			expectedMetric: shell.CommandHandlerCanceledMetric,
			assertLog: func(t *testing.T, spy *helper.LogHandlerSpy) {
				assert.True(t, spy.HasErrorLogWithMessage(shell.LogMsgCommandFailed).
					WithAttribute(shell.LogAttrStatus, shell.StatusCanceled).Assert())
			},
		},
		{
			name:           "infrastructure error",
			handler:        stubHandler{err: errors.New("disk on fire")},
			expectedStatus: shell.StatusError,
			assertLog: func(t *testing.T, spy *helper.LogHandlerSpy) {
				assert.True(t, spy.HasErrorLogWithMessage(shell.LogMsgCommandFailed).WithError().Assert())
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			logSpy := helper.NewLogHandlerSpy(false)
			metricsSpy := helper.NewMetricsCollectorSpy(true)
			tracingSpy := helper.NewTracingCollectorSpy()
			wrapper, err := observable.NewCommandWrapper[testCommand](
				tc.handler,
				observable.WithCommandLogging[testCommand](slog.New(logSpy)),
				observable.WithCommandMetrics[testCommand](metricsSpy),
				observable.WithCommandTracing[testCommand](tracingSpy),
			)
			require.NoError(t, err)

			// act
			result, err := wrapper.Handle(context.Background(), testCommand{})

			// assert
			assert.Equal(t, tc.handler.result, result)
			assert.Equal(t, tc.handler.err, err)
			assert.True(t, metricsSpy.HasCounterRecordWithLabel(shell.CommandHandlerCallsMetric, shell.LogAttrStatus, tc.expectedStatus))
			assert.True(t, metricsSpy.HasDurationRecordForMetric(shell.CommandHandlerDurationMetric))
			if tc.expectedMetric != "" {
				assert.True(t, metricsSpy.HasCounterRecordForMetric(tc.expectedMetric))
			}
			tc.assertLog(t, logSpy)
			span, found := tracingSpy.FindSpan(shell.SpanNameCommandHandle)
			require.True(t, found)
			assert.True(t, span.Finished)
			assert.Equal(t, tc.expectedStatus, span.Status)
			assert.Equal(t, "TestCommand", span.StartAttributes[shell.LogAttrCommandType])
			if tc.handler.err != nil {
				assert.Equal(t, tc.handler.err.Error(), span.EndAttributes[shell.LogAttrError])
			}
		})
	}
}

func Test_CommandWrapper_WithContextualLogger(t *testing.T) {
	logSpy := helper.NewLogHandlerSpy(false)
	wrapper, err := observable.NewCommandWrapper[testCommand](
		stubHandler{result: shell.NewIdempotentResult()},
		observable.WithCommandContextualLogging[testCommand](slog.New(logSpy)),
	)
	require.NoError(t, err)

	_, err = wrapper.Handle(context.Background(), testCommand{})

	assert.NoError(t, err)
	assert.True(t, logSpy.HasDebugLogWithMessage(shell.LogMsgCommandStarted).WithAttribute(shell.LogAttrCommandType, "TestCommand").Assert())
}
