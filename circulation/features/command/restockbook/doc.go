// Package restockbook implements the Restock Book use case: setting the number of copies the
// library owns of a title. The total may shrink, but never below the copies currently lent.
package restockbook
