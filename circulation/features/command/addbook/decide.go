package addbook

import (
	"fmt"

	"github.com/school-library/librarian/circulation/shared/core"
	"github.com/school-library/librarian/eventstore"
)

type state struct {
	existingBook     *core.BookAddedToCatalog
	isbnUsedByBookID core.BookIDInt
}

// Decide implements the business logic to determine whether a book can be added to the catalog.
// This is a pure function with no side effects.
//
// Business Rules:
//
//	GIVEN: A book with BookID and ISBN
//	WHEN: AddBook command is received
//	THEN: BookAddedToCatalog event is generated
//	ERROR: ErrInvalidBookID, ErrMissingISBN, ErrMissingTitle, ErrNegativeQuantity for malformed input
//	ERROR: ErrBookAlreadyExists if another book was added with the same BookID
//	ERROR: ErrDuplicateISBN if a different book already uses the ISBN
//	IDEMPOTENCY: If the identical book was already added, no event is generated
func Decide(history core.DomainEvents, command Command) core.DecisionResult {
	if err := validate(command); err != nil {
		return core.ErrorDecision(err)
	}

	s := project(history, command)

	if s.existingBook != nil {
		if sameBook(*s.existingBook, command) {
			return core.IdempotentDecision()
		}

		return core.ErrorDecision(fmt.Errorf("%w: book %d", core.ErrBookAlreadyExists, command.BookID))
	}

	if s.isbnUsedByBookID != 0 {
		return core.ErrorDecision(
			fmt.Errorf("%w: isbn %s belongs to book %d", core.ErrDuplicateISBN, command.ISBN, s.isbnUsedByBookID),
		)
	}

	return core.SuccessDecision(
		core.BuildBookAddedToCatalog(
			command.BookID,
			command.ISBN,
			command.Title,
			command.Author,
			command.TotalQuantity,
			command.OccurredAt,
		),
	)
}

func validate(command Command) error {
	switch {
	case command.BookID <= 0:
		return core.ErrInvalidBookID
	case command.ISBN == "":
		return core.ErrMissingISBN
	case command.Title == "":
		return core.ErrMissingTitle
	case command.TotalQuantity < 0:
		return core.ErrNegativeQuantity
	}

	return nil
}

func sameBook(existing core.BookAddedToCatalog, command Command) bool {
	return existing.ISBN == command.ISBN &&
		existing.Title == command.Title &&
		existing.Author == command.Author &&
		existing.TotalQuantity == command.TotalQuantity
}

func project(history core.DomainEvents, command Command) state {
	var s state

	for _, event := range history {
		e, ok := event.(core.BookAddedToCatalog)
		if !ok {
			continue
		}

		if e.BookID == command.BookID {
			s.existingBook = &e
			continue
		}

		if e.ISBN == command.ISBN {
			s.isbnUsedByBookID = e.BookID
		}
	}

	return s
}

// BuildEventFilter creates the filter for querying catalog entries with the same book id or ISBN.
func BuildEventFilter(bookID core.BookIDInt, isbn core.ISBNString) eventstore.Filter {
	return eventstore.BuildEventFilter().
		Matching().
		AnyEventTypeOf(
			core.BookAddedToCatalogEventType,
		).
		AndAnyPredicateOf(
			eventstore.P("BookID", core.FormatBookID(bookID)),
			eventstore.P("ISBN", isbn),
		).
		Finalize()
}
