package search

import (
	"strings"
	"unicode/utf8"

	"github.com/school-library/librarian/circulation/readmodel/catalog"
	"github.com/school-library/librarian/circulation/shared/core"
)

// MinQueryLength is the number of runes a trimmed query needs before anything matches.
const MinQueryLength = 2

type bookEntry struct {
	id      core.BookIDInt
	text    string // lower-cased title, author and isbn, NUL separated
	isbnKey string
}

type studentEntry struct {
	id   core.StudentIDString
	text string
}

// Index is not safe for concurrent use.
type Index struct {
	books      []bookEntry
	bookPos    map[core.BookIDInt]int
	students   []studentEntry
	studentPos map[core.StudentIDString]int
}

func NewIndex() *Index {
	return &Index{
		bookPos:    make(map[core.BookIDInt]int),
		studentPos: make(map[core.StudentIDString]int),
	}
}

// IndexBook adds or replaces the entry of a book.
func (idx *Index) IndexBook(id core.BookIDInt, title string, author string, isbn core.ISBNString) {
	entry := bookEntry{
		id:      id,
		text:    strings.ToLower(title + "\x00" + author + "\x00" + isbn),
		isbnKey: catalog.NormalizeISBN(isbn),
	}

	if pos, exists := idx.bookPos[id]; exists {
		idx.books[pos] = entry
		return
	}

	idx.bookPos[id] = len(idx.books)
	idx.books = append(idx.books, entry)
}

// IndexStudent adds or replaces the entry of a student.
func (idx *Index) IndexStudent(id core.StudentIDString, name string) {
	entry := studentEntry{id: id, text: strings.ToLower(id + "\x00" + name)}

	if pos, exists := idx.studentPos[id]; exists {
		idx.students[pos] = entry
		return
	}

	idx.studentPos[id] = len(idx.students)
	idx.students = append(idx.students, entry)
}

// SearchBooks returns the ids of matching books in indexing order.
func (idx *Index) SearchBooks(query string) []core.BookIDInt {
	needle, ok := normalizeQuery(query)
	if !ok {
		return []core.BookIDInt{}
	}

	isbnNeedle := catalog.NormalizeISBN(needle)

	ids := make([]core.BookIDInt, 0)
	for _, entry := range idx.books {
		if strings.Contains(entry.text, needle) || (isbnNeedle != "" && strings.Contains(entry.isbnKey, isbnNeedle)) {
			ids = append(ids, entry.id)
		}
	}

	return ids
}

// SearchStudents returns the ids of matching students in indexing order.
func (idx *Index) SearchStudents(query string) []core.StudentIDString {
	needle, ok := normalizeQuery(query)
	if !ok {
		return []core.StudentIDString{}
	}

	ids := make([]core.StudentIDString, 0)
	for _, entry := range idx.students {
		if strings.Contains(entry.text, needle) {
			ids = append(ids, entry.id)
		}
	}

	return ids
}

// ValidateQuery returns core.ErrQueryTooShort for queries that cannot match anything.
func ValidateQuery(query string) error {
	if _, ok := normalizeQuery(query); !ok {
		return core.ErrQueryTooShort
	}

	return nil
}

func normalizeQuery(query string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if utf8.RuneCountInString(needle) < MinQueryLength {
		return "", false
	}

	return needle, true
}
