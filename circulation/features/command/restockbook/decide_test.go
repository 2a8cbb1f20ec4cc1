package restockbook_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/school-library/librarian/circulation/features/command/restockbook"
	"github.com/school-library/librarian/circulation/shared/core"
)

func Test_Decide(t *testing.T) {
	now := time.Now()
	bookWithTwoLoans := core.DomainEvents{
		core.BuildBookAddedToCatalog(3, "isbn-3", "Dune", "Frank Herbert", 3, now),
		core.BuildBookLentToStudent(3, "S1", now, core.DefaultLoanPeriod),
		core.BuildBookLentToStudent(3, "S2", now, core.DefaultLoanPeriod),
		core.BuildBookLentToStudent(3, "S3", now, core.DefaultLoanPeriod),
		core.BuildBookReturnedByStudent(3, "S3", now),
	}

	testCases := []struct {
		name               string
		events             core.DomainEvents
		total              int
		expectedError      error
		expectedIdempotent bool
	}{
		{name: "grow", events: bookWithTwoLoans, total: 5},
		{name: "shrink to the active loans", events: bookWithTwoLoans, total: 2},
		{name: "unchanged", events: bookWithTwoLoans, total: 3, expectedIdempotent: true},
		{name: "below active loans", events: bookWithTwoLoans, total: 1, expectedError: core.ErrRestockBelowActiveLoans},
		{name: "negative", events: bookWithTwoLoans, total: -1, expectedError: core.ErrNegativeQuantity},
		{name: "unknown book", events: core.DomainEvents{}, total: 1, expectedError: core.ErrBookNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			result := restockbook.Decide(tc.events, restockbook.BuildCommand(3, tc.total, now))

			// assert
			switch {
			case tc.expectedError != nil:
				assert.ErrorIs(t, result.HasError(), tc.expectedError)
				assert.False(t, result.HasEventToAppend())
			case tc.expectedIdempotent:
				assert.True(t, result.IsIdempotent())
			default:
				require.True(t, result.HasEventToAppend())
				assert.Equal(t, tc.total, result.Event.(core.BookRestocked).TotalQuantity)
			}
		})
	}
}
