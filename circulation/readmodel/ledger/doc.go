// Package ledger holds every loan, active and historical. A loan is created when a copy is lent
// and closed when it comes back; loans are never deleted.
package ledger
