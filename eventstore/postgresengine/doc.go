// Package postgresengine provides a PostgreSQL implementation of the circulation event log.
//
// Events live in one table (default "events") with a bigserial sequence number, the event type,
// the time it occurred and JSONB payload and metadata columns. Filter predicates are translated
// into JSONB containment checks on the payload, so a predicate P("BookID", "3") matches every event
// whose payload contains {"BookID": "3"}.
//
// Appends are conditional: the INSERT only happens if the max sequence number of the events
// selected by the filter still equals the one the caller saw when it queried. Otherwise
// eventstore.ErrConcurrencyConflict is returned.
//
// Three connection types are supported through internal adapters: *pgxpool.Pool (optionally with a
// read replica), *sql.DB and *sqlx.DB.
//
// Usage:
//
//	db, _ := pgxpool.New(ctx, dsn)
//	store, _ := postgresengine.NewEventStoreFromPGXPool(db, postgresengine.WithLogger(logger))
//	_ = store.EnsureSchema(ctx)
//
//	events, maxSeq, _ := store.Query(ctx, filter)
//	err := store.Append(ctx, filter, maxSeq, newEvent)
package postgresengine
