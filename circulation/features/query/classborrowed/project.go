package classborrowed

import (
	"github.com/school-library/librarian/circulation/readmodel/catalog"
	"github.com/school-library/librarian/circulation/readmodel/ledger"
	"github.com/school-library/librarian/circulation/readmodel/roster"
	"github.com/school-library/librarian/circulation/shared/core"
)

// Source is the read model state the result is projected from.
type Source interface {
	GetClass(id core.ClassIDString) (roster.Class, error)
	ListStudentsInClass(id core.ClassIDString) []roster.Student
	ListActiveLoansForStudent(id core.StudentIDString) []ledger.Loan
	ListBooks() []catalog.Book
}

// Project implements the class borrowed query. This is a pure function over the given state.
//
// Query Logic:
//
//	GIVEN: a ClassID
//	WHEN: ClassBorrowed query is executed
//	THEN: the active loans of the class's students, grouped by book in catalog order,
//	      borrowers in enrollment order
//	ERROR: core.ErrClassNotFound if no student belongs to the class
func Project(source Source, query Query) (ClassBorrow, error) {
	class, err := source.GetClass(query.ClassID)
	if err != nil {
		return ClassBorrow{}, err
	}

	borrowers := make(map[core.BookIDInt][]catalog.Borrower)
	for _, student := range source.ListStudentsInClass(class.ID) {
		for _, loan := range source.ListActiveLoansForStudent(student.ID) {
			borrowers[loan.BookID] = append(borrowers[loan.BookID], catalog.Borrower{
				StudentID:   student.ID,
				StudentName: student.Name,
				ClassID:     student.ClassID,
				BorrowDate:  loan.BorrowDate,
				DueDate:     loan.DueDate,
			})
		}
	}

	result := ClassBorrow{ClassID: class.ID, ClassName: class.Name, BorrowedBooks: make([]BorrowedBook, 0)}
	for _, book := range source.ListBooks() {
		if len(borrowers[book.ID]) == 0 {
			continue
		}

		result.BorrowedBooks = append(result.BorrowedBooks, BorrowedBook{
			BookID:     book.ID,
			Title:      book.Title,
			BorrowedBy: borrowers[book.ID],
		})
	}

	return result, nil
}
