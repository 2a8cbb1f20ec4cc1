package studentborrowed

import (
	"slices"

	"github.com/school-library/librarian/circulation/readmodel/catalog"
	"github.com/school-library/librarian/circulation/readmodel/ledger"
	"github.com/school-library/librarian/circulation/readmodel/roster"
	"github.com/school-library/librarian/circulation/shared/core"
)

// Source is the read model state the result is projected from.
type Source interface {
	GetStudent(id core.StudentIDString) (roster.Student, error)
	ListAllLoansForStudent(id core.StudentIDString) []ledger.Loan
	GetBook(id core.BookIDInt) (catalog.Book, error)
}

// Project implements the student borrowed query. This is a pure function over the given state.
//
// Query Logic:
//
//	GIVEN: a StudentID
//	WHEN: StudentBorrowed query is executed
//	THEN: active loans oldest first, returned loans most recently returned first
//	ERROR: core.ErrStudentNotFound if the student is not enrolled
func Project(source Source, query Query) (StudentBorrowOverview, error) {
	student, err := source.GetStudent(query.StudentID)
	if err != nil {
		return StudentBorrowOverview{}, err
	}

	overview := StudentBorrowOverview{
		Student:         student,
		CurrentBorrowed: make([]BorrowedBook, 0),
		PastHistory:     make([]BorrowedBook, 0),
	}

	for _, loan := range source.ListAllLoansForStudent(student.ID) {
		borrowed := BorrowedBook{
			BookID:     loan.BookID,
			BorrowDate: loan.BorrowDate,
			DueDate:    loan.DueDate,
			ReturnDate: loan.ReturnDate,
		}

		if book, bookErr := source.GetBook(loan.BookID); bookErr == nil {
			borrowed.Title = book.Title
		}

		if loan.IsActive() {
			overview.CurrentBorrowed = append(overview.CurrentBorrowed, borrowed)
		} else {
			overview.PastHistory = append(overview.PastHistory, borrowed)
		}
	}

	slices.SortStableFunc(overview.CurrentBorrowed, func(a, b BorrowedBook) int {
		return a.BorrowDate.Compare(b.BorrowDate)
	})
	slices.SortStableFunc(overview.PastHistory, func(a, b BorrowedBook) int {
		return b.ReturnDate.Compare(*a.ReturnDate)
	})

	overview.BooksBorrowed = len(overview.CurrentBorrowed)
	overview.BooksReturned = len(overview.PastHistory)

	return overview, nil
}
