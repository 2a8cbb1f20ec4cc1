// Package overdue implements the Overdue Report query: every active loan whose due date lies
// before the reference time, with the number of whole days it is overdue and a severity band.
//
// The reference time is an explicit query parameter, which keeps the report deterministic.
package overdue
