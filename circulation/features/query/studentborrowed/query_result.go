package studentborrowed

import (
	"time"

	"github.com/school-library/librarian/circulation/readmodel/roster"
	"github.com/school-library/librarian/circulation/shared/core"
)

// BorrowedBook is one loan of the student, ReturnDate is nil while active.
type BorrowedBook struct {
	BookID     core.BookIDInt
	Title      string
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate *time.Time
}

// StudentBorrowOverview is the query result.
type StudentBorrowOverview struct {
	Student         roster.Student
	BooksBorrowed   int // active loans
	BooksReturned   int // completed loans
	CurrentBorrowed []BorrowedBook
	PastHistory     []BorrowedBook
}
