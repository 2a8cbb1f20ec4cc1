package studentborrowed_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/school-library/librarian/circulation/features/query/studentborrowed"
	"github.com/school-library/librarian/circulation/readmodel"
	"github.com/school-library/librarian/circulation/shared/core"
)

func Test_Project_SplitsCurrentAndPastLoans(t *testing.T) {
	// arrange
	day := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	state := readmodel.NewState()
	require.NoError(t, state.ApplyAll(core.DomainEvents{
		core.BuildBookAddedToCatalog(1, "isbn-1", "1984", "George Orwell", 5, day),
		core.BuildBookAddedToCatalog(2, "isbn-2", "Dune", "Frank Herbert", 5, day),
		core.BuildStudentEnrolled("S1", "Ana Lima", "2B", "Class 2B", day),
		core.BuildBookLentToStudent(1, "S1", day, core.DefaultLoanPeriod),
		core.BuildBookLentToStudent(2, "S1", day, core.DefaultLoanPeriod),
		core.BuildBookReturnedByStudent(1, "S1", day.Add(24*time.Hour)),
		core.BuildBookReturnedByStudent(2, "S1", day.Add(48*time.Hour)),
		core.BuildBookLentToStudent(1, "S1", day.Add(72*time.Hour), core.DefaultLoanPeriod),
	}))

	// act
	overview, err := studentborrowed.Project(state, studentborrowed.BuildQuery("S1"))

	// assert
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", overview.Student.Name)
	assert.Equal(t, 1, overview.BooksBorrowed)
	assert.Equal(t, 2, overview.BooksReturned)
	require.Len(t, overview.CurrentBorrowed, 1)
	assert.Equal(t, "1984", overview.CurrentBorrowed[0].Title)
	assert.Nil(t, overview.CurrentBorrowed[0].ReturnDate)
	require.Len(t, overview.PastHistory, 2)
	assert.Equal(t, "Dune", overview.PastHistory[0].Title)
	assert.Equal(t, "1984", overview.PastHistory[1].Title)
}

func Test_Project_UnknownStudent(t *testing.T) {
	// act
	_, err := studentborrowed.Project(readmodel.NewState(), studentborrowed.BuildQuery("S9"))

	// assert
	assert.ErrorIs(t, err, core.ErrStudentNotFound)
}
