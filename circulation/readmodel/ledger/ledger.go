package ledger

import (
	"fmt"
	"slices"
	"time"

	"github.com/school-library/librarian/circulation/shared/core"
)

// Loan is one copy of a book in the hands of one student.
type Loan struct {
	BookID     core.BookIDInt
	StudentID  core.StudentIDString
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate *time.Time // nil while active
}

// IsActive reports whether the copy has not been returned yet.
func (l Loan) IsActive() bool {
	return l.ReturnDate == nil
}

type loanKey struct {
	bookID    core.BookIDInt
	studentID core.StudentIDString
}

// Ledger is not safe for concurrent use.
type Ledger struct {
	loans     []Loan // creation order
	active    map[loanKey]int
	byBook    map[core.BookIDInt][]int
	byStudent map[core.StudentIDString][]int
}

func New() *Ledger {
	return &Ledger{
		active:    make(map[loanKey]int),
		byBook:    make(map[core.BookIDInt][]int),
		byStudent: make(map[core.StudentIDString][]int),
	}
}

// CreateLoan records a new active loan. It fails with core.ErrDuplicateLoan if the student
// already holds a copy of the book.
func (l *Ledger) CreateLoan(
	bookID core.BookIDInt,
	studentID core.StudentIDString,
	borrowDate time.Time,
	dueDate time.Time,
) (Loan, error) {

	key := loanKey{bookID: bookID, studentID: studentID}
	if _, exists := l.active[key]; exists {
		return Loan{}, fmt.Errorf("%w: book %d, student %s", core.ErrDuplicateLoan, bookID, studentID)
	}

	loan := Loan{BookID: bookID, StudentID: studentID, BorrowDate: borrowDate, DueDate: dueDate}
	idx := len(l.loans)
	l.loans = append(l.loans, loan)
	l.active[key] = idx
	l.byBook[bookID] = append(l.byBook[bookID], idx)
	l.byStudent[studentID] = append(l.byStudent[studentID], idx)

	return loan, nil
}

// CloseLoan sets the return date of the active loan. It fails with core.ErrNoActiveLoan if there is none.
func (l *Ledger) CloseLoan(bookID core.BookIDInt, studentID core.StudentIDString, returnDate time.Time) (Loan, error) {
	key := loanKey{bookID: bookID, studentID: studentID}

	idx, exists := l.active[key]
	if !exists {
		return Loan{}, fmt.Errorf("%w: book %d, student %s", core.ErrNoActiveLoan, bookID, studentID)
	}

	returned := returnDate
	l.loans[idx].ReturnDate = &returned
	delete(l.active, key)

	return l.loans[idx], nil
}

// GetActiveLoan returns the active loan of the student for the book, if any.
func (l *Ledger) GetActiveLoan(bookID core.BookIDInt, studentID core.StudentIDString) (Loan, bool) {
	idx, exists := l.active[loanKey{bookID: bookID, studentID: studentID}]
	if !exists {
		return Loan{}, false
	}

	return l.loans[idx], true
}

// CountActiveLoansForBook satisfies catalog.ActiveLoanCounter.
func (l *Ledger) CountActiveLoansForBook(bookID core.BookIDInt) int {
	count := 0
	for _, idx := range l.byBook[bookID] {
		if l.loans[idx].IsActive() {
			count++
		}
	}

	return count
}

func (l *Ledger) ListActiveLoansForBook(bookID core.BookIDInt) []Loan {
	return l.collect(l.byBook[bookID], true)
}

func (l *Ledger) ListActiveLoansForStudent(studentID core.StudentIDString) []Loan {
	return l.collect(l.byStudent[studentID], true)
}

// ListAllLoansForBook returns the history of the book ordered by borrow date ascending.
func (l *Ledger) ListAllLoansForBook(bookID core.BookIDInt) []Loan {
	loans := l.collect(l.byBook[bookID], false)
	slices.SortStableFunc(loans, func(a, b Loan) int {
		return a.BorrowDate.Compare(b.BorrowDate)
	})

	return loans
}

func (l *Ledger) ListAllLoansForStudent(studentID core.StudentIDString) []Loan {
	return l.collect(l.byStudent[studentID], false)
}

// ListActiveLoans returns all active loans in creation order.
func (l *Ledger) ListActiveLoans() []Loan {
	loans := make([]Loan, 0, len(l.active))
	for _, loan := range l.loans {
		if loan.IsActive() {
			loans = append(loans, loan)
		}
	}

	return loans
}

// ListAllLoans returns all loans in creation order.
func (l *Ledger) ListAllLoans() []Loan {
	return slices.Clone(l.loans)
}

func (l *Ledger) collect(indexes []int, activeOnly bool) []Loan {
	loans := make([]Loan, 0, len(indexes))
	for _, idx := range indexes {
		if activeOnly && !l.loans[idx].IsActive() {
			continue
		}

		loans = append(loans, l.loans[idx])
	}

	return loans
}
