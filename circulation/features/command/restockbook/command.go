package restockbook

import (
	"time"

	"github.com/school-library/librarian/circulation/shared/core"
)

const (
	commandType = "RestockBook"
)

// Command represents the intent to set the total quantity of a book.
type Command struct {
	BookID        core.BookIDInt
	TotalQuantity int
	OccurredAt    core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(bookID core.BookIDInt, totalQuantity int, occurredAt time.Time) Command {
	return Command{
		BookID:        bookID,
		TotalQuantity: totalQuantity,
		OccurredAt:    core.ToOccurredAt(occurredAt),
	}
}
