package enrollstudent

import (
	"fmt"

	"github.com/school-library/librarian/circulation/shared/core"
	"github.com/school-library/librarian/eventstore"
)

// Decide implements the business logic to determine whether a student can be enrolled.
// This is a pure function with no side effects.
//
// Business Rules:
//
//	GIVEN: A student with StudentID
//	WHEN: EnrollStudent command is received
//	THEN: StudentEnrolled event is generated
//	ERROR: ErrInvalidStudentID, ErrMissingStudentName, ErrInvalidClassID for malformed input
//	ERROR: ErrStudentAlreadyEnrolled if the id is taken by a student with different data
//	IDEMPOTENCY: If the identical student is already enrolled, no event is generated
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	switch {
	case command.StudentID == "":
		return core.ErrorDecision(core.ErrInvalidStudentID)
	case command.StudentName == "":
		return core.ErrorDecision(core.ErrMissingStudentName)
	case command.ClassID == "":
		return core.ErrorDecision(core.ErrInvalidClassID)
	}

	for _, event := range history {
		e, ok := event.(core.StudentEnrolled)
		if !ok || e.StudentID != command.StudentID {
			continue
		}

		if e.StudentName == command.StudentName && e.ClassID == command.ClassID && e.ClassName == command.ClassName {
			return core.IdempotentDecision()
		}

		return core.ErrorDecision(fmt.Errorf("%w: student %s", core.ErrStudentAlreadyEnrolled, command.StudentID))
	}

	return core.SuccessDecision(
		core.BuildStudentEnrolled(
			command.StudentID,
			command.StudentName,
			command.ClassID,
			command.ClassName,
			command.OccurredAt,
		),
	)
}

// BuildEventFilter creates the filter for querying the enrollment of the student.
func BuildEventFilter(studentID core.StudentIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.StudentEnrolledEventType,
		).
		AndAnyPredicateOf(
			eventstore.P("StudentID", studentID),
		).
		Finalize()
}
