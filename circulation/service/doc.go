// Package service is the circulation service: the single writer of the library state.
//
// Every command takes the lock of the book (or student) it touches, runs its feature's
// Query -> Decide -> Append workflow against the event log, and then applies the committed event
// to the read models under one write lock. Views read the read models under the shared read lock,
// so they never observe a half-applied lend or return.
package service
