package returnbook

import (
	"context"

	"github.com/school-library/librarian/circulation/shared/shell"
	"github.com/school-library/librarian/eventstore"
)

// CommandHandler orchestrates the command processing workflow: Query -> Unmarshal -> Decide -> Append.
// External wrappers handle all observability concerns.
type CommandHandler struct {
	eventStore shell.EventStore
}

// NewCommandHandler creates a new CommandHandler.
func NewCommandHandler(eventStore shell.EventStore) CommandHandler {
	return CommandHandler{eventStore: eventStore}
}

// Handle executes the command. A rejected command returns the domain error and appends nothing.
// A lost optimistic concurrency race surfaces as eventstore.ErrConcurrencyConflict, without retry.
func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	filter := BuildEventFilter(command.BookID)

	ctx = eventstore.WithStrongConsistency(ctx)

	// Query phase
	storableEvents, maxSequenceNumber, err := h.eventStore.Query(ctx, filter)
	if err != nil {
		return shell.NewErrorResult(), err
	}

	// Unmarshal phase
	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return shell.NewErrorResult(), err
	}

	// Business logic phase
	result := Decide(history, command)
	if decideErr := result.HasError(); decideErr != nil {
		return shell.NewErrorResult(), decideErr
	}

	// Append phase
	storableEvent, err := shell.StorableEventFrom(result.Event, shell.EventMetadataFor(ctx))
	if err != nil {
		return shell.NewErrorResult(), err
	}

	if err = h.eventStore.Append(ctx, filter, maxSequenceNumber, storableEvent); err != nil {
		return shell.NewErrorResult(), err
	}

	return shell.NewSuccessResult(result.Event), nil
}
