package core

import "errors"

// Error kinds. Every domain error unwraps to exactly one of them,
// so callers can branch with errors.Is(err, core.ErrConflict).
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

// Error is a domain error of a given kind.
type Error struct {
	kind error
	msg  string
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string {
	return e.msg
}

// Unwrap returns the kind.
func (e *Error) Unwrap() error {
	return e.kind
}

// Kind returns ErrNotFound, ErrConflict or ErrInvalidInput.
func (e *Error) Kind() error {
	return e.kind
}

var (
	ErrBookNotFound    = newError(ErrNotFound, "book not found")
	ErrStudentNotFound = newError(ErrNotFound, "student not found")
	ErrClassNotFound   = newError(ErrNotFound, "class not found")

	ErrOutOfStock              = newError(ErrConflict, "book is out of stock")
	ErrDuplicateLoan           = newError(ErrConflict, "student already borrowed this book")
	ErrNoActiveLoan            = newError(ErrConflict, "student has no active loan for this book")
	ErrBookAlreadyExists       = newError(ErrConflict, "a different book with this id already exists")
	ErrDuplicateISBN           = newError(ErrConflict, "isbn is already used by another book")
	ErrStudentAlreadyEnrolled  = newError(ErrConflict, "a different student with this id is already enrolled")
	ErrRestockBelowActiveLoans = newError(ErrConflict, "total quantity is below the number of copies currently lent")

	ErrInvalidBookID      = newError(ErrInvalidInput, "book id must be positive")
	ErrInvalidStudentID   = newError(ErrInvalidInput, "student id must not be empty")
	ErrInvalidClassID     = newError(ErrInvalidInput, "class id must not be empty")
	ErrMissingTitle       = newError(ErrInvalidInput, "title must not be empty")
	ErrMissingISBN        = newError(ErrInvalidInput, "isbn must not be empty")
	ErrMissingStudentName = newError(ErrInvalidInput, "student name must not be empty")
	ErrNegativeQuantity   = newError(ErrInvalidInput, "quantity must not be negative")
	ErrReturnBeforeBorrow = newError(ErrInvalidInput, "return date is before the borrow date")
	ErrQueryTooShort      = newError(ErrInvalidInput, "search query must have at least 2 characters")
	ErrInvalidDate        = newError(ErrInvalidInput, "date must be RFC3339 or YYYY-MM-DD")
)
