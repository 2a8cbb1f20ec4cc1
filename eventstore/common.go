package eventstore

import (
	"errors"
)

var (
	// ErrConcurrencyConflict is returned by Append when the stream selected by the filter has moved
	// past the expected max sequence number.
	ErrConcurrencyConflict = errors.New("concurrency error, no rows were affected")

	// ErrEmptyEventsTableName is returned when an empty table name is configured.
	ErrEmptyEventsTableName = errors.New("events table name must not be empty")

	// ErrNilDatabaseConnection is returned when an engine is created without a database handle.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrQueryingEventsFailed wraps failures while reading events.
	ErrQueryingEventsFailed = errors.New("querying events failed")

	// ErrScanningDBRowFailed wraps failures while scanning a result row.
	ErrScanningDBRowFailed = errors.New("scanning db row failed")

	// ErrBuildingStorableEventFailed wraps failures while rebuilding a stored event.
	ErrBuildingStorableEventFailed = errors.New("building storable event failed")

	// ErrBuildingQueryFailed wraps failures of the SQL builder.
	ErrBuildingQueryFailed = errors.New("building query failed")

	// ErrAppendingEventFailed wraps failures while appending events.
	ErrAppendingEventFailed = errors.New("appending the event failed")

	// ErrGettingRowsAffectedFailed wraps failures while reading the affected row count.
	ErrGettingRowsAffectedFailed = errors.New("getting rows affected failed")

	// ErrEnsuringSchemaFailed wraps failures while creating the events table.
	ErrEnsuringSchemaFailed = errors.New("ensuring events schema failed")
)

// MaxSequenceNumberUint is a type alias for uint, representing the maximum sequence number for a "dynamic event stream".
type MaxSequenceNumberUint = uint
