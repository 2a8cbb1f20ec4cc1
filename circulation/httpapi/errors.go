package httpapi

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/school-library/librarian/circulation/shared/core"
	"github.com/school-library/librarian/eventstore"
)

var (
	// ErrMalformedBody is returned when a request body cannot be decoded.
	ErrMalformedBody = errors.New("request body is not valid JSON")

	// ErrInvalidPathParam is returned when a path parameter has the wrong format.
	ErrInvalidPathParam = errors.New("path parameter is invalid")

	// ErrInvalidAsOf is returned when the as_of query parameter is neither RFC3339 nor YYYY-MM-DD.
	ErrInvalidAsOf = errors.New("as_of must be RFC3339 or YYYY-MM-DD")
)

const msgInternalError = "internal server error"

// StatusFor maps an error to the HTTP status it is answered with.
func StatusFor(err error) int {
	var fiberErr *fiber.Error
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.As(err, &validationErrs):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrMalformedBody), errors.Is(err, ErrInvalidPathParam), errors.Is(err, ErrInvalidAsOf):
		return fiber.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, core.ErrConflict), errors.Is(err, eventstore.ErrConcurrencyConflict):
		return fiber.StatusConflict
	case errors.Is(err, core.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// errorHandler is the fiber error handler. Internal errors are logged but never echoed.
func (s *server) errorHandler(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	response := errorResponse{Success: false, Message: err.Error()}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		response.Message = "validation failed"
		response.Errors = make(map[string]string, len(validationErrs))
		for _, fieldErr := range validationErrs {
			response.Errors[fieldErr.Field()] = fieldErr.Tag()
		}
	}

	if status >= fiber.StatusInternalServerError {
		response.Message = msgInternalError
		if s.logger != nil {
			s.logger.Error(
				LogMsgRequestFailed,
				LogAttrMethod, c.Method(),
				LogAttrPath, c.Path(),
				LogAttrRequestID, requestIDFrom(c),
				LogAttrError, err.Error(),
			)
		}
	}

	return c.Status(status).JSON(response)
}
