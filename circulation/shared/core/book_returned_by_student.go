package core

import (
	"time"
)

// BookReturnedByStudentEventType is the event type identifier.
const BookReturnedByStudentEventType = "BookReturnedByStudent"

// BookReturnedByStudent represents a student bringing a borrowed copy back.
// OccurredAt is the return date.
type BookReturnedByStudent struct {
	EventType  EventTypeString
	BookID     BookIDInt `json:"BookID,string"`
	StudentID  StudentIDString
	OccurredAt OccurredAtTS
}

// BuildBookReturnedByStudent creates a new BookReturnedByStudent event.
func BuildBookReturnedByStudent(bookID BookIDInt, studentID StudentIDString, occurredAt time.Time) BookReturnedByStudent {
	return BookReturnedByStudent{
		EventType:  BookReturnedByStudentEventType,
		BookID:     bookID,
		StudentID:  studentID,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e BookReturnedByStudent) IsEventType() string {
	return BookReturnedByStudentEventType
}

// HasOccurredAt returns when this event occurred.
func (e BookReturnedByStudent) HasOccurredAt() time.Time {
	return e.OccurredAt
}
