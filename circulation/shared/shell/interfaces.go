package shell

import (
	"context"

	"github.com/school-library/librarian/eventstore"
)

// EventStore is what the command handlers need from an event log engine.
// Both memengine.EventStore and postgresengine.EventStore satisfy it.
type EventStore interface {
	Query(ctx context.Context, filter eventstore.Filter) (
		eventstore.StorableEvents,
		eventstore.MaxSequenceNumberUint,
		error,
	)
	Append(
		ctx context.Context,
		filter eventstore.Filter,
		expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
		event eventstore.StorableEvent,
		additionalEvents ...eventstore.StorableEvent,
	) error
}

// Command represents the contract for all command types.
// The CommandType method enables polymorphic handling and observability instrumentation.
type Command interface {
	CommandType() string
}

// CommandHandler processes one command type: Query -> Unmarshal -> Decide -> Append.
// The returned HandlerResult carries the business outcome, including the committed event.
type CommandHandler[C Command] interface {
	Handle(ctx context.Context, command C) (HandlerResult, error)
}
