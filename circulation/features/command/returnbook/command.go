package returnbook

import (
	"time"

	"github.com/school-library/librarian/circulation/shared/core"
)

const (
	commandType = "ReturnBook"
)

// Command represents the intent to return a borrowed copy of a book.
type Command struct {
	BookID     core.BookIDInt
	StudentID  core.StudentIDString
	OccurredAt core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(bookID core.BookIDInt, studentID core.StudentIDString, occurredAt time.Time) Command {
	return Command{
		BookID:     bookID,
		StudentID:  studentID,
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}
