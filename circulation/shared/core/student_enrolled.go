package core

import (
	"time"
)

// StudentEnrolledEventType is the event type identifier.
const StudentEnrolledEventType = "StudentEnrolled"

// StudentEnrolled represents a student joining the library, as a member of a class.
type StudentEnrolled struct {
	EventType   EventTypeString
	StudentID   StudentIDString
	StudentName string
	ClassID     ClassIDString
	ClassName   string
	OccurredAt  OccurredAtTS
}

// BuildStudentEnrolled creates a new StudentEnrolled event.
func BuildStudentEnrolled(
	studentID StudentIDString,
	studentName string,
	classID ClassIDString,
	className string,
	occurredAt time.Time,
) StudentEnrolled {

	return StudentEnrolled{
		EventType:   StudentEnrolledEventType,
		StudentID:   studentID,
		StudentName: studentName,
		ClassID:     classID,
		ClassName:   className,
		OccurredAt:  ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e StudentEnrolled) IsEventType() string {
	return StudentEnrolledEventType
}

// HasOccurredAt returns when this event occurred.
func (e StudentEnrolled) HasOccurredAt() time.Time {
	return e.OccurredAt
}
