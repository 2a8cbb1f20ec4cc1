package service

import (
	"time"

	"github.com/school-library/librarian/circulation/features/query/classborrowed"
	"github.com/school-library/librarian/circulation/features/query/classusage"
	"github.com/school-library/librarian/circulation/features/query/overdue"
	"github.com/school-library/librarian/circulation/features/query/studentborrowed"
	"github.com/school-library/librarian/circulation/readmodel/catalog"
	"github.com/school-library/librarian/circulation/readmodel/roster"
	"github.com/school-library/librarian/circulation/shared/core"
)

// HistoryEntry is one loan in the history of a book.
type HistoryEntry struct {
	StudentID   core.StudentIDString
	StudentName string
	BorrowDate  time.Time
	DueDate     time.Time
	ReturnDate  *time.Time
}

// BookHistory is every loan of a book, active and returned, ordered by borrow date.
type BookHistory struct {
	Book    catalog.Book
	History []HistoryEntry
}

// Stats summarizes the library state.
type Stats struct {
	Books       int
	Students    int
	ActiveLoans int
	TotalLoans  int
}

// ListBooks returns every book in catalog order with live availability and current borrowers.
func (s *Service) ListBooks() []catalog.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := s.state.ListBooks()
	for i := range books {
		books[i] = s.withBorrowers(books[i])
	}

	return books
}

// GetBook returns one book with live availability and current borrowers.
func (s *Service) GetBook(id core.BookIDInt) (catalog.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book, err := s.state.GetBook(id)
	if err != nil {
		return catalog.Book{}, err
	}

	return s.withBorrowers(book), nil
}

// GetBookHistory fails with core.ErrBookNotFound for unknown books.
func (s *Service) GetBookHistory(id core.BookIDInt) (BookHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book, err := s.state.GetBook(id)
	if err != nil {
		return BookHistory{}, err
	}

	loans := s.state.ListAllLoansForBook(id)
	history := BookHistory{Book: s.withBorrowers(book), History: make([]HistoryEntry, 0, len(loans))}

	for _, loan := range loans {
		student, _ := s.state.GetStudent(loan.StudentID)
		history.History = append(history.History, HistoryEntry{
			StudentID:   loan.StudentID,
			StudentName: student.Name,
			BorrowDate:  loan.BorrowDate,
			DueDate:     loan.DueDate,
			ReturnDate:  loan.ReturnDate,
		})
	}

	return history, nil
}

// ListBorrowedBooks returns the books with at least one active loan, in catalog order.
func (s *Service) ListBorrowedBooks() []catalog.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	borrowed := make([]catalog.Book, 0)
	for _, book := range s.state.ListBooks() {
		if book.ActiveLoans == 0 {
			continue
		}

		borrowed = append(borrowed, s.withBorrowers(book))
	}

	return borrowed
}

// ClassBorrowed fails with core.ErrClassNotFound if no student belongs to the class.
func (s *Service) ClassBorrowed(classID core.ClassIDString) (classborrowed.ClassBorrow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return classborrowed.Project(s.state, classborrowed.BuildQuery(classID))
}

// StudentBorrowed fails with core.ErrStudentNotFound for unknown students.
func (s *Service) StudentBorrowed(studentID core.StudentIDString) (studentborrowed.StudentBorrowOverview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return studentborrowed.Project(s.state, studentborrowed.BuildQuery(studentID))
}

// OverdueReport lists the loans overdue as of asOf. A zero asOf means now, according to the clock.
func (s *Service) OverdueReport(asOf time.Time) []overdue.Entry {
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return overdue.Project(s.state, overdue.BuildQuery(asOf))
}

// ClassUsageReport reports every class, or only classID when it is not empty.
// It fails with core.ErrClassNotFound for an unknown class.
func (s *Service) ClassUsageReport(classID core.ClassIDString) ([]classusage.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return classusage.Project(s.state, classusage.BuildQuery(classID, s.topBooks))
}

// SearchBooks returns matching books; queries shorter than two characters match nothing.
func (s *Service) SearchBooks(query string) []catalog.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.state.Search.SearchBooks(query)
	books := make([]catalog.Book, 0, len(ids))
	for _, id := range ids {
		if book, err := s.state.GetBook(id); err == nil {
			books = append(books, book)
		}
	}

	return books
}

// SearchStudents returns matching students; queries shorter than two characters match nothing.
func (s *Service) SearchStudents(query string) []roster.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.state.Search.SearchStudents(query)
	students := make([]roster.Student, 0, len(ids))
	for _, id := range ids {
		if student, err := s.state.GetStudent(id); err == nil {
			students = append(students, student)
		}
	}

	return students
}

// Stats reads the counters under the read lock. TotalLoans includes returned loans.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		Books:       s.state.Catalog.Len(),
		Students:    len(s.state.Roster.ListStudents()),
		ActiveLoans: len(s.state.ListActiveLoans()),
		TotalLoans:  len(s.state.Ledger.ListAllLoans()),
	}
}

// withBorrowers must be called with the read lock held.
func (s *Service) withBorrowers(book catalog.Book) catalog.Book {
	loans := s.state.ListActiveLoansForBook(book.ID)
	book.BorrowedBy = make([]catalog.Borrower, 0, len(loans))

	for _, loan := range loans {
		student, _ := s.state.GetStudent(loan.StudentID)
		book.BorrowedBy = append(book.BorrowedBy, catalog.Borrower{
			StudentID:   loan.StudentID,
			StudentName: student.Name,
			ClassID:     student.ClassID,
			BorrowDate:  loan.BorrowDate,
			DueDate:     loan.DueDate,
		})
	}

	return book
}
