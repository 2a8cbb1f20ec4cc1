package classusage

import (
	"cmp"
	"slices"

	"github.com/school-library/librarian/circulation/readmodel/catalog"
	"github.com/school-library/librarian/circulation/readmodel/ledger"
	"github.com/school-library/librarian/circulation/readmodel/roster"
	"github.com/school-library/librarian/circulation/shared/core"
)

// Source is the read model state the report is projected from.
type Source interface {
	ListClasses() []roster.Class
	GetClass(id core.ClassIDString) (roster.Class, error)
	ListStudentsInClass(id core.ClassIDString) []roster.Student
	ListAllLoansForStudent(id core.StudentIDString) []ledger.Loan
	GetBook(id core.BookIDInt) (catalog.Book, error)
}

// Project implements the class usage report. This is a pure function over the given state.
//
// Query Logic:
//
//	GIVEN: an optional ClassID and a TopN limit
//	WHEN: ClassUsageReport query is executed
//	THEN: one Report per class, sorted by class id, or only the requested class
//	RANKING: books by borrow count descending, then title ascending, cut to TopN when TopN > 0
//	ERROR: core.ErrClassNotFound if the requested class has no students
func Project(source Source, query Query) ([]Report, error) {
	var classes []roster.Class

	if query.ClassID != "" {
		class, err := source.GetClass(query.ClassID)
		if err != nil {
			return nil, err
		}
		classes = []roster.Class{class}
	} else {
		classes = source.ListClasses()
	}

	reports := make([]Report, 0, len(classes))
	for _, class := range classes {
		reports = append(reports, projectClass(source, class, query.TopN))
	}

	return reports, nil
}

func projectClass(source Source, class roster.Class, topN int) Report {
	report := Report{ClassID: class.ID, ClassName: class.Name}
	counts := make(map[core.BookIDInt]int)

	for _, student := range source.ListStudentsInClass(class.ID) {
		report.StudentCount++

		for _, loan := range source.ListAllLoansForStudent(student.ID) {
			report.TotalBooksBorrowed++
			counts[loan.BookID]++

			if loan.IsActive() {
				report.ActiveLoans++
			}
		}
	}

	ranked := make([]BookUsage, 0, len(counts))
	for bookID, count := range counts {
		usage := BookUsage{BookID: bookID, BorrowCount: count}
		if book, err := source.GetBook(bookID); err == nil {
			usage.Title = book.Title
		}
		ranked = append(ranked, usage)
	}

	slices.SortFunc(ranked, func(a, b BookUsage) int {
		return cmp.Or(
			cmp.Compare(b.BorrowCount, a.BorrowCount),
			cmp.Compare(a.Title, b.Title),
			cmp.Compare(a.BookID, b.BookID),
		)
	})

	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}

	report.MostBorrowedBooks = ranked

	return report
}
