// Package eventstore provides the storage-agnostic contracts of the circulation event log.
//
// The circulation engine persists every committed state change of the library (a book
// added to the catalog, a copy lent to a student, a copy returned, ...) as an event.
// This package defines the types shared by all engines:
//   - Filter: selects the events that make up one "dynamic event stream", e.g. all events of one book
//   - StorableEvent: the scalar DTO that engines append and return
//   - Sentinel errors, consistency-level context helpers and logging/metrics contracts
//
// Engines live in sub packages: memengine keeps the log in process memory,
// postgresengine stores it in a PostgreSQL table.
//
// Common usage pattern:
//
//	filter := BuildEventFilter().
//		Matching().
//		AnyEventTypeOf(
//			core.BookLentToStudentEventType,
//			core.BookReturnedByStudentEventType).
//		AndAnyPredicateOf(P("BookID", "3")).
//		Finalize()
//
//	events, maxSeq, err := store.Query(ctx, filter)
//	if err != nil {
//		// handle error
//	}
//
//	// decide, then append only if nothing new was written to this stream meanwhile
//	err = store.Append(ctx, filter, maxSeq, newEvent)
package eventstore
