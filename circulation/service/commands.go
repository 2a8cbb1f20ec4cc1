package service

import (
	"context"
	"fmt"
	"time"

	"github.com/school-library/librarian/circulation/features/command/addbook"
	"github.com/school-library/librarian/circulation/features/command/enrollstudent"
	"github.com/school-library/librarian/circulation/features/command/lendbook"
	"github.com/school-library/librarian/circulation/features/command/restockbook"
	"github.com/school-library/librarian/circulation/features/command/returnbook"
	"github.com/school-library/librarian/circulation/readmodel/catalog"
	"github.com/school-library/librarian/circulation/readmodel/roster"
	"github.com/school-library/librarian/circulation/shared/core"
)

// LendReturnResult is the outcome of a successful Lend or Return. ReturnDate is nil for a lend.
type LendReturnResult struct {
	Book       catalog.Book
	Student    roster.Student
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate *time.Time
}

// NewBook is the input of AddBook.
type NewBook struct {
	ID            core.BookIDInt
	ISBN          core.ISBNString
	Title         string
	Author        string
	TotalQuantity int
}

// NewStudent is the input of EnrollStudent. An empty ClassName defaults to the ClassID.
type NewStudent struct {
	ID        core.StudentIDString
	Name      string
	ClassID   core.ClassIDString
	ClassName string
}

// Lend lends a copy of the book to the student today.
//
// Errors, in this order: core.ErrBookNotFound, core.ErrStudentNotFound, core.ErrOutOfStock,
// core.ErrDuplicateLoan. Nothing changes on failure.
func (s *Service) Lend(ctx context.Context, studentID core.StudentIDString, bookID core.BookIDInt) (LendReturnResult, error) {
	return s.RecordLend(ctx, studentID, bookID, s.clock.Now())
}

// RecordLend is Lend with an explicit borrow date, used to import historical loans.
func (s *Service) RecordLend(
	ctx context.Context,
	studentID core.StudentIDString,
	bookID core.BookIDInt,
	borrowedAt time.Time,
) (LendReturnResult, error) {

	// The directory lookups happen outside the critical section; Decide re-validates inside it.
	s.mu.RLock()
	_, bookErr := s.state.GetBook(bookID)
	_, studentErr := s.state.GetStudent(studentID)
	s.mu.RUnlock()

	if bookErr != nil {
		return LendReturnResult{}, bookErr
	}

	if studentErr != nil {
		return LendReturnResult{}, studentErr
	}

	if err := ctx.Err(); err != nil {
		return LendReturnResult{}, err
	}

	unlock := s.locks.Lock(bookLockKey(bookID))
	defer unlock()

	result, err := s.lendBook.Handle(ctx, lendbook.BuildCommand(bookID, studentID, borrowedAt, s.loanPeriod))
	if err != nil {
		return LendReturnResult{}, err
	}

	event := result.Event.(core.BookLentToStudent)
	if err = s.apply(event); err != nil {
		return LendReturnResult{}, err
	}

	book, student := s.bookAndStudent(bookID, studentID)

	return LendReturnResult{
		Book:       book,
		Student:    student,
		BorrowDate: event.OccurredAt,
		DueDate:    event.DueDate,
	}, nil
}

// Return takes back the student's copy of the book today.
// It fails with core.ErrNoActiveLoan if the student does not hold one. Nothing changes on failure.
func (s *Service) Return(ctx context.Context, studentID core.StudentIDString, bookID core.BookIDInt) (LendReturnResult, error) {
	return s.RecordReturn(ctx, studentID, bookID, s.clock.Now())
}

// RecordReturn is Return with an explicit return date, used to import historical loans.
func (s *Service) RecordReturn(
	ctx context.Context,
	studentID core.StudentIDString,
	bookID core.BookIDInt,
	returnedAt time.Time,
) (LendReturnResult, error) {

	if err := ctx.Err(); err != nil {
		return LendReturnResult{}, err
	}

	unlock := s.locks.Lock(bookLockKey(bookID))
	defer unlock()

	s.mu.RLock()
	loan, _ := s.state.Ledger.GetActiveLoan(bookID, studentID)
	s.mu.RUnlock()

	result, err := s.returnBook.Handle(ctx, returnbook.BuildCommand(bookID, studentID, returnedAt))
	if err != nil {
		return LendReturnResult{}, err
	}

	event := result.Event.(core.BookReturnedByStudent)
	if err = s.apply(event); err != nil {
		return LendReturnResult{}, err
	}

	book, student := s.bookAndStudent(bookID, studentID)
	returned := event.OccurredAt

	return LendReturnResult{
		Book:       book,
		Student:    student,
		BorrowDate: loan.BorrowDate,
		DueDate:    loan.DueDate,
		ReturnDate: &returned,
	}, nil
}

// AddBook adds a book to the catalog. Adding the identical book again returns it unchanged.
// ISBN uniqueness ignores hyphens and spaces.
func (s *Service) AddBook(ctx context.Context, newBook NewBook) (catalog.Book, error) {
	command := addbook.BuildCommand(
		newBook.ID,
		newBook.ISBN,
		newBook.Title,
		newBook.Author,
		newBook.TotalQuantity,
		s.clock.Now(),
	)

	unlockBook := s.locks.Lock(bookLockKey(command.BookID))
	defer unlockBook()

	unlockISBN := s.locks.Lock(isbnLockKey(catalog.NormalizeISBN(command.ISBN)))
	defer unlockISBN()

	s.mu.RLock()
	owner, taken := s.state.Catalog.BookIDForISBN(command.ISBN)
	s.mu.RUnlock()

	if taken && owner != command.BookID {
		return catalog.Book{}, fmt.Errorf("%w: isbn %s belongs to book %d", core.ErrDuplicateISBN, command.ISBN, owner)
	}

	result, err := s.addBook.Handle(ctx, command)
	if err != nil {
		return catalog.Book{}, err
	}

	if !result.Idempotent {
		if err = s.apply(result.Event); err != nil {
			return catalog.Book{}, err
		}
	}

	return s.GetBook(command.BookID)
}

// RestockBook sets the total quantity of a book. It fails with core.ErrRestockBelowActiveLoans
// when fewer copies than currently lent are requested.
func (s *Service) RestockBook(ctx context.Context, bookID core.BookIDInt, totalQuantity int) (catalog.Book, error) {
	unlock := s.locks.Lock(bookLockKey(bookID))
	defer unlock()

	result, err := s.restockBook.Handle(ctx, restockbook.BuildCommand(bookID, totalQuantity, s.clock.Now()))
	if err != nil {
		return catalog.Book{}, err
	}

	if !result.Idempotent {
		if err = s.apply(result.Event); err != nil {
			return catalog.Book{}, err
		}
	}

	return s.GetBook(bookID)
}

// EnrollStudent enrolls a student. Enrolling the identical student again returns it unchanged.
func (s *Service) EnrollStudent(ctx context.Context, newStudent NewStudent) (roster.Student, error) {
	command := enrollstudent.BuildCommand(
		newStudent.ID,
		newStudent.Name,
		newStudent.ClassID,
		newStudent.ClassName,
		s.clock.Now(),
	)

	unlock := s.locks.Lock(studentLockKey(command.StudentID))
	defer unlock()

	result, err := s.enrollStudent.Handle(ctx, command)
	if err != nil {
		return roster.Student{}, err
	}

	if !result.Idempotent {
		if err = s.apply(result.Event); err != nil {
			return roster.Student{}, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state.GetStudent(command.StudentID)
}

func (s *Service) bookAndStudent(bookID core.BookIDInt, studentID core.StudentIDString) (catalog.Book, roster.Student) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book, _ := s.state.GetBook(bookID)
	student, _ := s.state.GetStudent(studentID)

	return s.withBorrowers(book), student
}
