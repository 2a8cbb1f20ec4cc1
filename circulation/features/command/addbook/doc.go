// Package addbook implements the Add Book to Catalog use case.
//
// Book ids and ISBNs are unique across the catalog. Re-submitting exactly the same book is an
// idempotent no-op, which keeps fixture loading and client retries safe.
package addbook
