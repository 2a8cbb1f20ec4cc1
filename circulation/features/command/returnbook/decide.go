package returnbook

import (
	"fmt"
	"time"

	"github.com/school-library/librarian/circulation/shared/core"
	"github.com/school-library/librarian/eventstore"
)

type state struct {
	hasActiveLoan bool
	borrowedAt    time.Time
}

// Decide implements the business logic to determine whether a book can be returned by a student.
// This is a pure function with no side effects.
//
// Business Rules:
//
//	GIVEN: A book with BookID and a student with StudentID
//	WHEN: ReturnBook command is received
//	THEN: BookReturnedByStudent event is generated
//	ERROR: ErrNoActiveLoan if the student does not currently hold a copy of the book
//	ERROR: ErrReturnBeforeBorrow if the return date lies before the borrow date
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	if command.BookID <= 0 {
		return core.ErrorDecision(core.ErrInvalidBookID)
	}

	if command.StudentID == "" {
		return core.ErrorDecision(core.ErrInvalidStudentID)
	}

	s := project(history, command.BookID, command.StudentID)

	if !s.hasActiveLoan {
		return core.ErrorDecision(
			fmt.Errorf("%w: book %d, student %s", core.ErrNoActiveLoan, command.BookID, command.StudentID),
		)
	}

	if command.OccurredAt.Before(s.borrowedAt) {
		return core.ErrorDecision(
			fmt.Errorf("%w: borrowed %s", core.ErrReturnBeforeBorrow, s.borrowedAt.Format(time.DateOnly)),
		)
	}

	return core.SuccessDecision(
		core.BuildBookReturnedByStudent(command.BookID, command.StudentID, command.OccurredAt),
	)
}

func project(history core.DomainEvents, bookID core.BookIDInt, studentID core.StudentIDString) state {
	var s state

	for _, event := range history {
		switch e := event.(type) {
		case core.BookLentToStudent:
			if e.BookID == bookID && e.StudentID == studentID {
				s.hasActiveLoan = true
				s.borrowedAt = e.OccurredAt
			}

		case core.BookReturnedByStudent:
			if e.BookID == bookID && e.StudentID == studentID {
				s.hasActiveLoan = false
			}
		}
	}

	return s
}

// BuildEventFilter creates the filter for querying the loans of the book.
func BuildEventFilter(bookID core.BookIDInt) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.BookLentToStudentEventType,
			core.BookReturnedByStudentEventType,
		).
		AndAnyPredicateOf(
			eventstore.P("BookID", core.FormatBookID(bookID)),
		).
		Finalize()
}
