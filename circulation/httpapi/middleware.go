package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/propagation"

	"github.com/school-library/librarian/circulation/shared/shell"
)

const (
	headerRequestID = "X-Request-ID"
	localRequestID  = "request_id"
)

// requestContext assigns a request id, which becomes the correlation id of every event the
// request appends, bounds the user context with the request timeout and logs the outcome.
// A client supplied X-Request-ID is kept when it is a valid UUID.
func (s *server) requestContext(c *fiber.Ctx) error {
	requestID, err := uuid.Parse(c.Get(headerRequestID))
	if err != nil {
		requestID = uuid.New()
	}

	c.Set(headerRequestID, requestID.String())
	c.Locals(localRequestID, requestID.String())

	ctx, cancel := context.WithTimeout(shell.WithCorrelationID(c.UserContext(), requestID), s.requestTimeout)
	defer cancel()
	c.SetUserContext(ctx)

	start := time.Now()
	err = c.Next()

	if s.logger != nil {
		s.logger.Info(
			LogMsgRequestCompleted,
			LogAttrMethod, c.Method(),
			LogAttrPath, c.Path(),
			LogAttrStatus, responseStatus(c, err),
			LogAttrRequestID, requestID.String(),
			LogAttrDurationMS, shell.ToMilliseconds(time.Since(start)),
		)
	}

	return err
}

// traceRequest starts the request span, as a child of the caller's span when the propagator finds one
// in the headers. 5xx responses fail the span, 4xx ones leave it rejected.
func (s *server) traceRequest(c *fiber.Ctx) error {
	if s.tracingCollector == nil {
		return c.Next()
	}

	ctx := c.UserContext()
	if s.propagator != nil {
		ctx = s.propagator.Extract(ctx, propagation.HeaderCarrier(http.Header(c.GetReqHeaders())))
	}

	ctx, span := s.tracingCollector.StartSpan(ctx, SpanNameRequest, map[string]string{
		SpanAttrMethod: c.Method(),
		SpanAttrPath:   c.Path(),
	})
	c.SetUserContext(ctx)

	err := c.Next()

	status := responseStatus(c, err)
	spanStatus := shell.StatusSuccess
	switch {
	case status >= fiber.StatusInternalServerError:
		spanStatus = shell.StatusError
	case status >= fiber.StatusBadRequest:
		spanStatus = shell.StatusRejected
	}

	s.tracingCollector.FinishSpan(span, spanStatus, map[string]string{SpanAttrStatusCode: strconv.Itoa(status)})

	return err
}

// responseStatus is the status the error handler will answer with when the chain failed.
func responseStatus(c *fiber.Ctx, err error) int {
	if err != nil {
		return StatusFor(err)
	}

	return c.Response().StatusCode()
}

func requestIDFrom(c *fiber.Ctx) string {
	requestID, _ := c.Locals(localRequestID).(string)

	return requestID
}
