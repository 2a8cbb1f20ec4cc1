// Package memengine is an in-process implementation of the circulation event log.
//
// It honours the same contract as the Postgres engine: events are selected with an
// eventstore.Filter, predicates match top-level payload keys against string values,
// and Append is conditional on the max sequence number the caller observed.
// The log lives only as long as the process. It is the default store and backs the tests.
package memengine
