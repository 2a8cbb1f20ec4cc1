// Package catalog holds the books of the library. Availability is never stored:
// it is computed from the total quantity and the active loans counted by the ledger.
package catalog
