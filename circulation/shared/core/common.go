package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BookIDInt represents a book identifier.
type BookIDInt = int64

// StudentIDString represents a student identifier, e.g. "S1".
type StudentIDString = string

// ClassIDString represents an enrollment group, e.g. "1A".
type ClassIDString = string

// ISBNString represents an ISBN as entered, hyphens included.
type ISBNString = string

// EventTypeString is the type identifier of a domain event.
type EventTypeString = string

// OccurredAtTS represents when an event occurred.
type OccurredAtTS = time.Time

// DateLayout is the plain date format accepted next to RFC3339.
const DateLayout = "2006-01-02"

// DefaultLoanPeriod is the time a student may keep a book before it becomes overdue.
const DefaultLoanPeriod = 14 * 24 * time.Hour

// ToOccurredAt converts a time to OccurredAtTS with UTC normalization and microsecond precision,
// which is what Postgres stores.
func ToOccurredAt(t time.Time) OccurredAtTS {
	return t.UTC().Truncate(time.Microsecond)
}

// FormatBookID renders a book id the way event predicates match it.
func FormatBookID(id BookIDInt) string {
	return strconv.FormatInt(id, 10)
}

// ParseDate accepts RFC3339 or YYYY-MM-DD, which means midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}

	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}

	return t, nil
}
