// Package fixtures seeds a circulation service from a JSON document of books, students and loans.
//
// Seeding goes through the regular commands, so every fixture ends up as events in the log and
// obeys the same rules as live traffic. It is meant for development and demo start-up only.
package fixtures
