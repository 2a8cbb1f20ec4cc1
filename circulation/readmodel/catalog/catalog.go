package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/school-library/librarian/circulation/shared/core"
)

// Book is a title in the catalog. ActiveLoans is filled in at read time.
type Book struct {
	ID            core.BookIDInt
	Title         string
	Author        string
	ISBN          core.ISBNString
	TotalQuantity int
	ActiveLoans   int
	BorrowedBy    []Borrower
}

// AvailableQuantity is TotalQuantity minus ActiveLoans, never below zero.
func (b Book) AvailableQuantity() int {
	return max(0, b.TotalQuantity-b.ActiveLoans)
}

// Borrower is a student currently holding a copy of a book.
type Borrower struct {
	StudentID   core.StudentIDString
	StudentName string
	ClassID     core.ClassIDString
	BorrowDate  time.Time
	DueDate     time.Time
}

// ActiveLoanCounter is implemented by the loan ledger.
type ActiveLoanCounter interface {
	CountActiveLoansForBook(bookID core.BookIDInt) int
}

// Store is not safe for concurrent use.
type Store struct {
	counter ActiveLoanCounter
	order   []core.BookIDInt
	books   map[core.BookIDInt]Book
	isbns   map[string]core.BookIDInt
}

func NewStore(counter ActiveLoanCounter) *Store {
	return &Store{
		counter: counter,
		books:   make(map[core.BookIDInt]Book),
		isbns:   make(map[string]core.BookIDInt),
	}
}

// AddBook inserts a book. ISBN uniqueness ignores hyphens, spaces and case.
func (s *Store) AddBook(
	id core.BookIDInt,
	isbn core.ISBNString,
	title string,
	author string,
	totalQuantity int,
) error {

	if _, exists := s.books[id]; exists {
		return fmt.Errorf("%w: book %d", core.ErrBookAlreadyExists, id)
	}

	key := NormalizeISBN(isbn)
	if owner, taken := s.isbns[key]; taken {
		return fmt.Errorf("%w: isbn %s belongs to book %d", core.ErrDuplicateISBN, isbn, owner)
	}

	s.books[id] = Book{ID: id, Title: title, Author: author, ISBN: isbn, TotalQuantity: totalQuantity}
	s.isbns[key] = id
	s.order = append(s.order, id)

	return nil
}

// Restock sets the total quantity of a book.
func (s *Store) Restock(id core.BookIDInt, totalQuantity int) error {
	book, exists := s.books[id]
	if !exists {
		return fmt.Errorf("%w: book %d", core.ErrBookNotFound, id)
	}

	if totalQuantity < 0 {
		return core.ErrNegativeQuantity
	}

	book.TotalQuantity = totalQuantity
	s.books[id] = book

	return nil
}

func (s *Store) GetBook(id core.BookIDInt) (Book, error) {
	book, exists := s.books[id]
	if !exists {
		return Book{}, fmt.Errorf("%w: book %d", core.ErrBookNotFound, id)
	}

	return s.withActiveLoans(book), nil
}

// ListBooks returns all books in insertion order.
func (s *Store) ListBooks() []Book {
	books := make([]Book, 0, len(s.order))
	for _, id := range s.order {
		books = append(books, s.withActiveLoans(s.books[id]))
	}

	return books
}

// BookIDForISBN returns the book using the ISBN, compared like NormalizeISBN does.
func (s *Store) BookIDForISBN(isbn core.ISBNString) (core.BookIDInt, bool) {
	id, taken := s.isbns[NormalizeISBN(isbn)]

	return id, taken
}

func (s *Store) GetActiveLoanCount(bookID core.BookIDInt) int {
	return s.counter.CountActiveLoansForBook(bookID)
}

// SearchBooks matches a case-insensitive substring of title, author or ISBN.
// The ISBN comparison ignores hyphens. An empty query matches nothing.
// It scans the whole catalog; the service answers searches from the search index, which must agree
// with this scan for every query of at least search.MinQueryLength runes.
func (s *Store) SearchBooks(query string) []Book {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return []Book{}
	}

	isbnNeedle := NormalizeISBN(needle)

	matches := make([]Book, 0)
	for _, id := range s.order {
		book := s.books[id]
		if strings.Contains(strings.ToLower(book.Title), needle) ||
			strings.Contains(strings.ToLower(book.Author), needle) ||
			strings.Contains(strings.ToLower(book.ISBN), needle) ||
			(isbnNeedle != "" && strings.Contains(NormalizeISBN(book.ISBN), isbnNeedle)) {

			matches = append(matches, s.withActiveLoans(book))
		}
	}

	return matches
}

func (s *Store) Len() int {
	return len(s.order)
}

func (s *Store) withActiveLoans(book Book) Book {
	book.ActiveLoans = s.counter.CountActiveLoansForBook(book.ID)

	return book
}

// NormalizeISBN lower-cases an ISBN and drops hyphens and spaces.
func NormalizeISBN(isbn string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}

		return r
	}, strings.ToLower(isbn))
}
