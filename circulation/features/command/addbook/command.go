package addbook

import (
	"strings"
	"time"

	"github.com/school-library/librarian/circulation/shared/core"
)

const (
	commandType = "AddBook"
)

// Command represents the intent to add a title with a number of copies to the catalog.
type Command struct {
	BookID        core.BookIDInt
	ISBN          core.ISBNString
	Title         string
	Author        string
	TotalQuantity int
	OccurredAt    core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command, trimming surrounding whitespace of the text fields.
func BuildCommand(
	bookID core.BookIDInt,
	isbn core.ISBNString,
	title string,
	author string,
	totalQuantity int,
	occurredAt time.Time,
) Command {

	return Command{
		BookID:        bookID,
		ISBN:          strings.TrimSpace(isbn),
		Title:         strings.TrimSpace(title),
		Author:        strings.TrimSpace(author),
		TotalQuantity: totalQuantity,
		OccurredAt:    core.ToOccurredAt(occurredAt),
	}
}
