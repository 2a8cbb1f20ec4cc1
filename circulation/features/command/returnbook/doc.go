// Package returnbook implements the Return Book from Student use case.
//
// A return closes the student's active loan of the book. Without an active loan the command is
// rejected with core.ErrNoActiveLoan and nothing is appended.
package returnbook
