package core

import (
	"time"
)

// BookLentToStudentEventType is the event type identifier.
const BookLentToStudentEventType = "BookLentToStudent"

// BookLentToStudent represents a copy of a book handed to a student.
// OccurredAt is the borrow date.
type BookLentToStudent struct {
	EventType  EventTypeString
	BookID     BookIDInt `json:"BookID,string"`
	StudentID  StudentIDString
	DueDate    time.Time
	OccurredAt OccurredAtTS
}

// BuildBookLentToStudent creates a new BookLentToStudent event due loanPeriod after occurredAt.
func BuildBookLentToStudent(
	bookID BookIDInt,
	studentID StudentIDString,
	occurredAt time.Time,
	loanPeriod time.Duration,
) BookLentToStudent {

	borrowedAt := ToOccurredAt(occurredAt)

	return BookLentToStudent{
		EventType:  BookLentToStudentEventType,
		BookID:     bookID,
		StudentID:  studentID,
		DueDate:    borrowedAt.Add(loanPeriod),
		OccurredAt: borrowedAt,
	}
}

// IsEventType returns the event type identifier.
func (e BookLentToStudent) IsEventType() string {
	return BookLentToStudentEventType
}

// HasOccurredAt returns when this event occurred.
func (e BookLentToStudent) HasOccurredAt() time.Time {
	return e.OccurredAt
}
