package readmodel

import (
	"fmt"

	"github.com/school-library/librarian/circulation/readmodel/catalog"
	"github.com/school-library/librarian/circulation/readmodel/ledger"
	"github.com/school-library/librarian/circulation/readmodel/roster"
	"github.com/school-library/librarian/circulation/readmodel/search"
	"github.com/school-library/librarian/circulation/shared/core"
)

// State is the complete in-memory projection of the event log.
type State struct {
	Catalog *catalog.Store
	Ledger  *ledger.Ledger
	Roster  *roster.Directory
	Search  *search.Index
}

func NewState() *State {
	loans := ledger.New()

	return &State{
		Catalog: catalog.NewStore(loans),
		Ledger:  loans,
		Roster:  roster.NewDirectory(),
		Search:  search.NewIndex(),
	}
}

// Apply projects one committed domain event. An error means the log and the projection disagree.
func (s *State) Apply(event core.DomainEvent) error {
	switch e := event.(type) {
	case core.BookAddedToCatalog:
		if err := s.Catalog.AddBook(e.BookID, e.ISBN, e.Title, e.Author, e.TotalQuantity); err != nil {
			return err
		}
		s.Search.IndexBook(e.BookID, e.Title, e.Author, e.ISBN)

	case core.BookRestocked:
		return s.Catalog.Restock(e.BookID, e.TotalQuantity)

	case core.StudentEnrolled:
		err := s.Roster.Enroll(roster.Student{
			ID:        e.StudentID,
			Name:      e.StudentName,
			ClassID:   e.ClassID,
			ClassName: e.ClassName,
		})
		if err != nil {
			return err
		}
		s.Search.IndexStudent(e.StudentID, e.StudentName)

	case core.BookLentToStudent:
		_, err := s.Ledger.CreateLoan(e.BookID, e.StudentID, e.OccurredAt, e.DueDate)
		return err

	case core.BookReturnedByStudent:
		_, err := s.Ledger.CloseLoan(e.BookID, e.StudentID, e.OccurredAt)
		return err

	default:
		return fmt.Errorf("unexpected domain event %s", event.IsEventType())
	}

	return nil
}

// ApplyAll projects the events in order and stops at the first failure.
func (s *State) ApplyAll(events core.DomainEvents) error {
	for i, event := range events {
		if err := s.Apply(event); err != nil {
			return fmt.Errorf("applying event %d (%s): %w", i, event.IsEventType(), err)
		}
	}

	return nil
}

func (s *State) GetBook(id core.BookIDInt) (catalog.Book, error) {
	return s.Catalog.GetBook(id)
}

func (s *State) ListBooks() []catalog.Book {
	return s.Catalog.ListBooks()
}

func (s *State) GetStudent(id core.StudentIDString) (roster.Student, error) {
	return s.Roster.GetStudent(id)
}

func (s *State) GetClass(id core.ClassIDString) (roster.Class, error) {
	return s.Roster.GetClass(id)
}

func (s *State) ListClasses() []roster.Class {
	return s.Roster.ListClasses()
}

func (s *State) ListStudentsInClass(id core.ClassIDString) []roster.Student {
	return s.Roster.ListStudentsInClass(id)
}

func (s *State) ListActiveLoans() []ledger.Loan {
	return s.Ledger.ListActiveLoans()
}

func (s *State) ListActiveLoansForBook(bookID core.BookIDInt) []ledger.Loan {
	return s.Ledger.ListActiveLoansForBook(bookID)
}

func (s *State) ListAllLoansForBook(bookID core.BookIDInt) []ledger.Loan {
	return s.Ledger.ListAllLoansForBook(bookID)
}

func (s *State) ListActiveLoansForStudent(id core.StudentIDString) []ledger.Loan {
	return s.Ledger.ListActiveLoansForStudent(id)
}

func (s *State) ListAllLoansForStudent(id core.StudentIDString) []ledger.Loan {
	return s.Ledger.ListAllLoansForStudent(id)
}
