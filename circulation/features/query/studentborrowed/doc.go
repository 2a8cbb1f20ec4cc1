// Package studentborrowed implements the Student Borrowed query: what a student holds right now,
// what they returned, and the derived counters.
package studentborrowed
