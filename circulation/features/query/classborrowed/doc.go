// Package classborrowed implements the Class Borrowed query: the books currently held by the
// students of one class, grouped by book.
package classborrowed
