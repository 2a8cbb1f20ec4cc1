package overdue

import (
	"cmp"
	"slices"
	"time"

	"github.com/school-library/librarian/circulation/readmodel/catalog"
	"github.com/school-library/librarian/circulation/readmodel/ledger"
	"github.com/school-library/librarian/circulation/readmodel/roster"
	"github.com/school-library/librarian/circulation/shared/core"
)

// Source is the read model state the report is projected from.
type Source interface {
	ListActiveLoans() []ledger.Loan
	GetBook(id core.BookIDInt) (catalog.Book, error)
	GetStudent(id core.StudentIDString) (roster.Student, error)
}

// Project implements the overdue report. This is a pure function over the given state.
//
// Query Logic:
//
//	GIVEN: A reference time AsOf
//	WHEN: OverdueReport query is executed
//	THEN: an Entry for every active loan with AsOf after its due date
//	DAYS: floor((AsOf - DueDate) / 24h), so a loan is 0 days overdue during its first day past due
//	ORDER: DaysOverdue descending, then Title ascending, then StudentID ascending
func Project(source Source, query Query) []Entry {
	entries := make([]Entry, 0)

	for _, loan := range source.ListActiveLoans() {
		if !query.AsOf.After(loan.DueDate) {
			continue
		}

		daysOverdue := int(query.AsOf.Sub(loan.DueDate) / (24 * time.Hour))

		entry := Entry{
			BookID:      loan.BookID,
			StudentID:   loan.StudentID,
			BorrowDate:  loan.BorrowDate,
			DueDate:     loan.DueDate,
			DaysOverdue: daysOverdue,
			Severity:    SeverityFor(daysOverdue),
		}

		if book, err := source.GetBook(loan.BookID); err == nil {
			entry.Title = book.Title
		}

		if student, err := source.GetStudent(loan.StudentID); err == nil {
			entry.StudentName = student.Name
			entry.ClassID = student.ClassID
		}

		entries = append(entries, entry)
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		return cmp.Or(
			cmp.Compare(b.DaysOverdue, a.DaysOverdue),
			cmp.Compare(a.Title, b.Title),
			cmp.Compare(a.StudentID, b.StudentID),
		)
	})

	return entries
}
