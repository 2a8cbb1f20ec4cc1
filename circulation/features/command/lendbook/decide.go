package lendbook

import (
	"fmt"

	"github.com/school-library/librarian/circulation/shared/core"
	"github.com/school-library/librarian/eventstore"
)

// state represents the current state projected from the event history.
type state struct {
	bookIsInCatalog         bool
	studentIsEnrolled       bool
	totalQuantity           int
	activeLoans             int
	bookIsLentToThisStudent bool
}

// Decide implements the business logic to determine whether a copy of a book can be lent to a student.
// This is a pure function with no side effects.
//
// Business Rules (checked in this order):
//
//	GIVEN: A book with BookID and a student with StudentID
//	WHEN: LendBook command is received
//	THEN: BookLentToStudent event is generated, due LoanPeriod after OccurredAt
//	ERROR: ErrBookNotFound if the book was never added to the catalog
//	ERROR: ErrStudentNotFound if the student is not enrolled
//	ERROR: ErrOutOfStock if total quantity minus active loans is 0 or less
//	ERROR: ErrDuplicateLoan if the student already holds a copy of this book
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	if command.BookID <= 0 {
		return core.ErrorDecision(core.ErrInvalidBookID)
	}

	if command.StudentID == "" {
		return core.ErrorDecision(core.ErrInvalidStudentID)
	}

	s := project(history, command.BookID, command.StudentID)

	if !s.bookIsInCatalog {
		return core.ErrorDecision(fmt.Errorf("%w: book %d", core.ErrBookNotFound, command.BookID))
	}

	if !s.studentIsEnrolled {
		return core.ErrorDecision(fmt.Errorf("%w: student %s", core.ErrStudentNotFound, command.StudentID))
	}

	if s.totalQuantity-s.activeLoans <= 0 {
		return core.ErrorDecision(fmt.Errorf("%w: book %d", core.ErrOutOfStock, command.BookID))
	}

	if s.bookIsLentToThisStudent {
		return core.ErrorDecision(
			fmt.Errorf("%w: book %d, student %s", core.ErrDuplicateLoan, command.BookID, command.StudentID),
		)
	}

	return core.SuccessDecision(
		core.BuildBookLentToStudent(
			command.BookID,
			command.StudentID,
			command.OccurredAt,
			command.LoanPeriod,
		),
	)
}

// project builds the current state by replaying all events from the history.
func project(history core.DomainEvents, bookID core.BookIDInt, studentID core.StudentIDString) state {
	var s state

	for _, event := range history {
		switch e := event.(type) {
		case core.BookAddedToCatalog:
			if e.BookID == bookID {
				s.bookIsInCatalog = true
				s.totalQuantity = e.TotalQuantity
			}

		case core.BookRestocked:
			if e.BookID == bookID {
				s.totalQuantity = e.TotalQuantity
			}

		case core.StudentEnrolled:
			if e.StudentID == studentID {
				s.studentIsEnrolled = true
			}

		case core.BookLentToStudent:
			if e.BookID == bookID {
				s.activeLoans++

				if e.StudentID == studentID {
					s.bookIsLentToThisStudent = true
				}
			}

		case core.BookReturnedByStudent:
			if e.BookID == bookID {
				s.activeLoans--

				if e.StudentID == studentID {
					s.bookIsLentToThisStudent = false
				}
			}
		}
	}

	return s
}

// BuildEventFilter creates the filter for querying the event stream of the book,
// plus the enrollment of the student.
func BuildEventFilter(bookID core.BookIDInt, studentID core.StudentIDString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.BookAddedToCatalogEventType,
			core.BookRestockedEventType,
			core.BookLentToStudentEventType,
			core.BookReturnedByStudentEventType,
		).
		AndAnyPredicateOf(
			eventstore.P("BookID", core.FormatBookID(bookID)),
		).
		OrMatching().
		AnyEventTypeOf(
			core.StudentEnrolledEventType,
		).
		AndAnyPredicateOf(
			eventstore.P("StudentID", studentID),
		).
		Finalize()
}
