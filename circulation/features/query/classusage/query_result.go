package classusage

import (
	"github.com/school-library/librarian/circulation/shared/core"
)

// BookUsage is a book ranked by how often the students of a class borrowed it.
type BookUsage struct {
	BookID      core.BookIDInt
	Title       string
	BorrowCount int
}

// Report is the usage of one class.
type Report struct {
	ClassID            core.ClassIDString
	ClassName          string
	StudentCount       int
	TotalBooksBorrowed int // active and returned loans
	ActiveLoans        int
	MostBorrowedBooks  []BookUsage
}
