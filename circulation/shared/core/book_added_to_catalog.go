package core

import (
	"time"
)

// BookAddedToCatalogEventType is the event type identifier.
const BookAddedToCatalogEventType = "BookAddedToCatalog"

// BookAddedToCatalog represents when a title with a number of copies is added to the catalog.
type BookAddedToCatalog struct {
	EventType     EventTypeString
	BookID        BookIDInt `json:"BookID,string"`
	ISBN          ISBNString
	Title         string
	Author        string
	TotalQuantity int
	OccurredAt    OccurredAtTS
}

// BuildBookAddedToCatalog creates a new BookAddedToCatalog event.
func BuildBookAddedToCatalog(
	bookID BookIDInt,
	isbn ISBNString,
	title string,
	author string,
	totalQuantity int,
	occurredAt time.Time,
) BookAddedToCatalog {

	return BookAddedToCatalog{
		EventType:     BookAddedToCatalogEventType,
		BookID:        bookID,
		ISBN:          isbn,
		Title:         title,
		Author:        author,
		TotalQuantity: totalQuantity,
		OccurredAt:    ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e BookAddedToCatalog) IsEventType() string {
	return BookAddedToCatalogEventType
}

// HasOccurredAt returns when this event occurred.
func (e BookAddedToCatalog) HasOccurredAt() time.Time {
	return e.OccurredAt
}
