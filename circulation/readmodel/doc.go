// Package readmodel groups the in-memory projections of the event log: the catalog, the loan
// ledger, the student roster and the search index. None of them synchronizes itself; the
// circulation service owns them and guards every access with a single RWMutex.
package readmodel
