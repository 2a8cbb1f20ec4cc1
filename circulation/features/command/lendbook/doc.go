// Package lendbook implements the Lend Book to Student use case.
//
// A copy can be lent when the book is in the catalog, the student is enrolled, at least one copy
// is available (total quantity minus active loans) and the student does not already hold a copy
// of the same title. The rules live in the pure Decide function; the CommandHandler runs the
// Query -> Decide -> Append workflow against the event log.
package lendbook
