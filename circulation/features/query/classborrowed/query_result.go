package classborrowed

import (
	"github.com/school-library/librarian/circulation/readmodel/catalog"
	"github.com/school-library/librarian/circulation/shared/core"
)

// BorrowedBook is a book with the students of the class who hold it.
type BorrowedBook struct {
	BookID     core.BookIDInt
	Title      string
	BorrowedBy []catalog.Borrower
}

// ClassBorrow is the query result.
type ClassBorrow struct {
	ClassID       core.ClassIDString
	ClassName     string
	BorrowedBooks []BorrowedBook
}
