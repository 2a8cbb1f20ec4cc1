package restockbook

import (
	"fmt"

	"github.com/school-library/librarian/circulation/shared/core"
	"github.com/school-library/librarian/eventstore"
)

type state struct {
	bookIsInCatalog bool
	totalQuantity   int
	activeLoans     int
}

// Decide implements the business logic to determine whether the total quantity of a book can be changed.
// This is a pure function with no side effects.
//
// Business Rules:
//
//	GIVEN: A book with BookID
//	WHEN: RestockBook command is received
//	THEN: BookRestocked event is generated
//	ERROR: ErrNegativeQuantity if the new total is negative
//	ERROR: ErrBookNotFound if the book is not in the catalog
//	ERROR: ErrRestockBelowActiveLoans if the new total is below the number of active loans
//	IDEMPOTENCY: If the total already equals the new total, no event is generated
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	if command.BookID <= 0 {
		return core.ErrorDecision(core.ErrInvalidBookID)
	}

	if command.TotalQuantity < 0 {
		return core.ErrorDecision(core.ErrNegativeQuantity)
	}

	s := project(history, command.BookID)

	if !s.bookIsInCatalog {
		return core.ErrorDecision(fmt.Errorf("%w: book %d", core.ErrBookNotFound, command.BookID))
	}

	if command.TotalQuantity < s.activeLoans {
		return core.ErrorDecision(
			fmt.Errorf("%w: %d copies lent, %d requested", core.ErrRestockBelowActiveLoans, s.activeLoans, command.TotalQuantity),
		)
	}

	if command.TotalQuantity == s.totalQuantity {
		return core.IdempotentDecision()
	}

	return core.SuccessDecision(
		core.BuildBookRestocked(command.BookID, command.TotalQuantity, command.OccurredAt),
	)
}

func project(history core.DomainEvents, bookID core.BookIDInt) state {
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

		case core.BookLentToStudent:
			if e.BookID == bookID {
				s.activeLoans++
			}

		case core.BookReturnedByStudent:
			if e.BookID == bookID {
				s.activeLoans--
			}
		}
	}

	return s
}

// BuildEventFilter creates the filter for querying the event stream of the book.
func BuildEventFilter(bookID core.BookIDInt) eventstore.Filter {
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
		Finalize()
}
