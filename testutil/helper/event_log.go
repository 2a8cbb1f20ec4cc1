package helper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/school-library/librarian/circulation/shared/core"
	"github.com/school-library/librarian/circulation/shared/shell"
	"github.com/school-library/librarian/eventstore"
)

// GivenEventsAppended appends the domain events to the store one by one, unconditionally.
func GivenEventsAppended(t testing.TB, store shell.EventStore, events ...core.DomainEvent) {
	t.Helper()

	ctx := context.Background()
	anyEvent := eventstore.BuildEventFilter().MatchingAnyEvent()

	for _, event := range events {
		storableEvent, err := shell.StorableEventFrom(event, shell.EventMetadataFor(ctx))
		require.NoError(t, err)

		_, maxSequenceNumber, err := store.Query(ctx, anyEvent)
		require.NoError(t, err)
		require.NoError(t, store.Append(ctx, anyEvent, maxSequenceNumber, storableEvent))
	}
}

// RecordedDomainEvents returns every event of the store as domain events, in log order.
func RecordedDomainEvents(t testing.TB, store shell.EventStore) core.DomainEvents {
	t.Helper()

	storableEvents, _, err := store.Query(context.Background(), eventstore.BuildEventFilter().MatchingAnyEvent())
	require.NoError(t, err)

	domainEvents, err := shell.DomainEventsFrom(storableEvents)
	require.NoError(t, err)

	return domainEvents
}
