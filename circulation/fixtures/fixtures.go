package fixtures

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"

	"github.com/school-library/librarian/circulation/readmodel/catalog"
	"github.com/school-library/librarian/circulation/readmodel/roster"
	"github.com/school-library/librarian/circulation/service"
	"github.com/school-library/librarian/circulation/shared/core"
)

var (
	// ErrInvalidDocument is returned when the fixture document cannot be decoded or fails validation.
	ErrInvalidDocument = errors.New("fixture document is invalid")

	// ErrSeedingFailed is returned when a fixture is rejected by the circulation service.
	ErrSeedingFailed = errors.New("seeding fixtures failed")
)

// Document is the fixture file format.
type Document struct {
	Books    []Book    `json:"books"    validate:"dive"`
	Students []Student `json:"students" validate:"dive"`
	Loans    []Loan    `json:"loans"    validate:"dive"`
}

type Book struct {
	ID            core.BookIDInt  `json:"id"             validate:"required,gt=0"`
	ISBN          core.ISBNString `json:"isbn"           validate:"required"`
	Title         string          `json:"title"          validate:"required"`
	Author        string          `json:"author"`
	TotalQuantity int             `json:"total_quantity" validate:"gte=0"`
}

type Student struct {
	ID        core.StudentIDString `json:"student_id"   validate:"required"`
	Name      string               `json:"student_name" validate:"required"`
	ClassID   core.ClassIDString   `json:"class_id"     validate:"required"`
	ClassName string               `json:"class_name"`
}

// Loan is a historical loan. Dates are RFC3339 or YYYY-MM-DD; an empty ReturnDate means still lent.
type Loan struct {
	StudentID  core.StudentIDString `json:"student_id"  validate:"required"`
	BookID     core.BookIDInt       `json:"book_id"     validate:"required,gt=0"`
	BorrowDate string               `json:"borrow_date" validate:"required"`
	ReturnDate string               `json:"return_date"`
}

// Summary reports what Load did.
type Summary struct {
	Books        int
	Students     int
	Lends        int
	Returns      int
	LoansSkipped bool
}

// Circulation is the part of the service fixtures are loaded through.
type Circulation interface {
	AddBook(ctx context.Context, newBook service.NewBook) (catalog.Book, error)
	EnrollStudent(ctx context.Context, newStudent service.NewStudent) (roster.Student, error)
	RecordLend(ctx context.Context, studentID core.StudentIDString, bookID core.BookIDInt, borrowedAt time.Time) (service.LendReturnResult, error)
	RecordReturn(ctx context.Context, studentID core.StudentIDString, bookID core.BookIDInt, returnedAt time.Time) (service.LendReturnResult, error)
	Stats() service.Stats
}

// Load decodes the document and seeds it.
func Load(ctx context.Context, circulation Circulation, r io.Reader) (Summary, error) {
	var doc Document
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(r).Decode(&doc); err != nil {
		return Summary{}, errors.Join(ErrInvalidDocument, err)
	}

	return Seed(ctx, circulation, doc)
}

// Seed adds the books and students, which is idempotent, then replays the loans in time order.
// Loans are skipped when the log already holds any, so restarting against a persistent store
// does not lend the same books twice.
func Seed(ctx context.Context, circulation Circulation, doc Document) (Summary, error) {
	if err := validator.New().Struct(doc); err != nil {
		return Summary{}, errors.Join(ErrInvalidDocument, err)
	}

	steps, err := loanSteps(doc.Loans)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary

	for _, book := range doc.Books {
		if _, err = circulation.AddBook(ctx, service.NewBook(book)); err != nil {
			return summary, errors.Join(ErrSeedingFailed, fmt.Errorf("book %d: %w", book.ID, err))
		}
		summary.Books++
	}

	for _, student := range doc.Students {
		if _, err = circulation.EnrollStudent(ctx, service.NewStudent(student)); err != nil {
			return summary, errors.Join(ErrSeedingFailed, fmt.Errorf("student %s: %w", student.ID, err))
		}
		summary.Students++
	}

	if circulation.Stats().TotalLoans > 0 {
		summary.LoansSkipped = len(steps) > 0
		return summary, nil
	}

	for _, step := range steps {
		if step.isReturn {
			_, err = circulation.RecordReturn(ctx, step.studentID, step.bookID, step.at)
		} else {
			_, err = circulation.RecordLend(ctx, step.studentID, step.bookID, step.at)
		}

		if err != nil {
			return summary, errors.Join(
				ErrSeedingFailed,
				fmt.Errorf("loan of book %d by %s at %s: %w", step.bookID, step.studentID, step.at.Format(time.RFC3339), err),
			)
		}

		if step.isReturn {
			summary.Returns++
		} else {
			summary.Lends++
		}
	}

	return summary, nil
}

type loanStep struct {
	studentID core.StudentIDString
	bookID    core.BookIDInt
	at        time.Time
	isReturn  bool
}

// loanSteps turns loans into lends and returns ordered by time. At the same instant returns go
// first, so a copy handed back and lent again that moment is available; otherwise document order holds.
func loanSteps(loans []Loan) ([]loanStep, error) {
	steps := make([]loanStep, 0, 2*len(loans))

	for _, loan := range loans {
		borrowedAt, err := core.ParseDate(loan.BorrowDate)
		if err != nil {
			return nil, errors.Join(ErrInvalidDocument, err)
		}

		steps = append(steps, loanStep{studentID: loan.StudentID, bookID: loan.BookID, at: borrowedAt})

		if strings.TrimSpace(loan.ReturnDate) == "" {
			continue
		}

		returnedAt, err := core.ParseDate(loan.ReturnDate)
		if err != nil {
			return nil, errors.Join(ErrInvalidDocument, err)
		}

		if returnedAt.Before(borrowedAt) {
			return nil, errors.Join(
				ErrInvalidDocument,
				fmt.Errorf("%w: book %d, student %s", core.ErrReturnBeforeBorrow, loan.BookID, loan.StudentID),
			)
		}

		steps = append(steps, loanStep{studentID: loan.StudentID, bookID: loan.BookID, at: returnedAt, isReturn: true})
	}

	slices.SortStableFunc(steps, func(a, b loanStep) int {
		if byTime := a.at.Compare(b.at); byTime != 0 {
			return byTime
		}

		switch {
		case a.isReturn && !b.isReturn:
			return -1
		case !a.isReturn && b.isReturn:
			return 1
		default:
			return 0
		}
	})

	return steps, nil
}
