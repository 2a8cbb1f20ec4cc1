package overdue

import (
	"time"

	"github.com/school-library/librarian/circulation/shared/core"
)

// Severity bands of overdue loans.
type Severity string

const (
	SeverityLow      Severity = "low"      // 0-13 days
	SeverityHigh     Severity = "high"     // 14-29 days
	SeverityCritical Severity = "critical" // 30 days and more
)

// Entry is one overdue loan.
type Entry struct {
	BookID      core.BookIDInt
	Title       string
	StudentID   core.StudentIDString
	StudentName string
	ClassID     core.ClassIDString
	BorrowDate  time.Time
	DueDate     time.Time
	DaysOverdue int
	Severity    Severity
}

// SeverityFor maps days overdue to a band.
func SeverityFor(daysOverdue int) Severity {
	switch {
	case daysOverdue >= 30:
		return SeverityCritical
	case daysOverdue >= 14:
		return SeverityHigh
	default:
		return SeverityLow
	}
}
