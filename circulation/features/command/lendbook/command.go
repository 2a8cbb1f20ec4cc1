package lendbook

import (
	"time"

	"github.com/school-library/librarian/circulation/shared/core"
)

const (
	commandType = "LendBook"
)

// Command represents the intent to lend a copy of a book to a student.
type Command struct {
	BookID     core.BookIDInt
	StudentID  core.StudentIDString
	OccurredAt core.OccurredAtTS
	LoanPeriod time.Duration
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command. A non-positive loanPeriod falls back to core.DefaultLoanPeriod.
func BuildCommand(
	bookID core.BookIDInt,
	studentID core.StudentIDString,
	occurredAt time.Time,
	loanPeriod time.Duration,
) Command {

	if loanPeriod <= 0 {
		loanPeriod = core.DefaultLoanPeriod
	}

	return Command{
		BookID:     bookID,
		StudentID:  studentID,
		OccurredAt: core.ToOccurredAt(occurredAt),
		LoanPeriod: loanPeriod,
	}
}
