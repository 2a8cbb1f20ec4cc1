package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/school-library/librarian/circulation/readmodel/catalog"
	"github.com/school-library/librarian/circulation/shared/core"
)

type counterStub map[core.BookIDInt]int

func (c counterStub) CountActiveLoansForBook(bookID core.BookIDInt) int {
	return c[bookID]
}

func givenCatalog(t *testing.T, counter counterStub) *catalog.Store {
	t.Helper()

	store := catalog.NewStore(counter)
	require.NoError(t, store.AddBook(1, "978-0-452-28423-4", "1984", "George Orwell", 2))
	require.NoError(t, store.AddBook(2, "978-0-06-112008-4", "To Kill a Mockingbird", "Harper Lee", 3))
	require.NoError(t, store.AddBook(3, "978-0-7432-7356-5", "The Great Gatsby", "F. Scott Fitzgerald", 3))

	return store
}

func Test_Store_AvailabilityIsDerivedFromActiveLoans(t *testing.T) {
	// arrange
	counter := counterStub{3: 1}
	store := givenCatalog(t, counter)

	// act
	book, err := store.GetBook(3)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, book.ActiveLoans)
	assert.Equal(t, 2, book.AvailableQuantity())

	counter[3] = 3
	book, _ = store.GetBook(3)
	assert.Equal(t, 0, book.AvailableQuantity())
	assert.Equal(t, 3, store.GetActiveLoanCount(3))
}

func Test_Book_AvailableQuantity_NeverNegative(t *testing.T) {
	assert.Equal(t, 0, catalog.Book{TotalQuantity: 1, ActiveLoans: 2}.AvailableQuantity())
}

func Test_Store_GetBook_NotFound(t *testing.T) {
	// act
	_, err := givenCatalog(t, counterStub{}).GetBook(99)

	// assert
	assert.ErrorIs(t, err, core.ErrBookNotFound)
}

func Test_Store_ListBooks_KeepsInsertionOrder(t *testing.T) {
	// arrange
	store := givenCatalog(t, counterStub{})

	// act
	books := store.ListBooks()

	// assert
	require.Len(t, books, 3)
	assert.Equal(t, []core.BookIDInt{1, 2, 3}, []core.BookIDInt{books[0].ID, books[1].ID, books[2].ID})
	assert.Equal(t, books, store.ListBooks())
}

func Test_Store_AddBook_Conflicts(t *testing.T) {
	// arrange
	store := givenCatalog(t, counterStub{})

	// act
	idErr := store.AddBook(1, "other", "Other", "Someone", 1)
	isbnErr := store.AddBook(9, "9780452284234", "1984 again", "George Orwell", 1)

	// assert
	assert.ErrorIs(t, idErr, core.ErrBookAlreadyExists)
	assert.ErrorIs(t, isbnErr, core.ErrDuplicateISBN)
	assert.Equal(t, 3, store.Len())

	owner, taken := store.BookIDForISBN("978 0452 28423 4")
	assert.True(t, taken)
	assert.Equal(t, core.BookIDInt(1), owner)
}

func Test_Store_Restock(t *testing.T) {
	// arrange
	store := givenCatalog(t, counterStub{})

	// act
	err := store.Restock(1, 7)

	// assert
	require.NoError(t, err)
	book, _ := store.GetBook(1)
	assert.Equal(t, 7, book.TotalQuantity)
	assert.ErrorIs(t, store.Restock(99, 1), core.ErrBookNotFound)
	assert.ErrorIs(t, store.Restock(1, -1), core.ErrNegativeQuantity)
}

func Test_Store_SearchBooks(t *testing.T) {
	store := givenCatalog(t, counterStub{})

	testCases := []struct {
		query    string
		expected []core.BookIDInt
	}{
		{query: "1984", expected: []core.BookIDInt{1}},
		{query: "HARPER", expected: []core.BookIDInt{2}},
		{query: "the", expected: []core.BookIDInt{3}},
		{query: "9780061", expected: []core.BookIDInt{2}},
		{query: "0-7432", expected: []core.BookIDInt{3}},
		{query: "", expected: []core.BookIDInt{}},
		{query: "   ", expected: []core.BookIDInt{}},
		{query: "tolkien", expected: []core.BookIDInt{}},
	}

	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			// act
			books := store.SearchBooks(tc.query)

			// assert
			ids := make([]core.BookIDInt, 0, len(books))
			for _, book := range books {
				ids = append(ids, book.ID)
			}
			assert.Equal(t, tc.expected, ids)
		})
	}
}
