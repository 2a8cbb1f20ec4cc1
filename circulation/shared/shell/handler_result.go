package shell

import "github.com/school-library/librarian/circulation/shared/core"

// HandlerResult represents the outcome of a command handler execution.
type HandlerResult struct {
	// Idempotent indicates that the command required no state change.
	// This is a business outcome, not an error condition.
	Idempotent bool

	// Event is the domain event that was committed to the log, nil unless the command changed state.
	Event core.DomainEvent
}

// NewSuccessResult creates a HandlerResult for a committed event.
func NewSuccessResult(event core.DomainEvent) HandlerResult {
	return HandlerResult{Event: event}
}

// NewIdempotentResult creates a HandlerResult for idempotent operations.
func NewIdempotentResult() HandlerResult {
	return HandlerResult{Idempotent: true}
}

// NewErrorResult creates a HandlerResult for failed operations.
func NewErrorResult() HandlerResult {
	return HandlerResult{}
}
