package core

import (
	"time"
)

// BookRestockedEventType is the event type identifier.
const BookRestockedEventType = "BookRestocked"

// BookRestocked represents a change of the number of copies the library owns of a title.
type BookRestocked struct {
	EventType     EventTypeString
	BookID        BookIDInt `json:"BookID,string"`
	TotalQuantity int
	OccurredAt    OccurredAtTS
}

// BuildBookRestocked creates a new BookRestocked event.
func BuildBookRestocked(bookID BookIDInt, totalQuantity int, occurredAt time.Time) BookRestocked {
	return BookRestocked{
		EventType:     BookRestockedEventType,
		BookID:        bookID,
		TotalQuantity: totalQuantity,
		OccurredAt:    ToOccurredAt(occurredAt),
	}
}

// IsEventType returns the event type identifier.
func (e BookRestocked) IsEventType() string {
	return BookRestockedEventType
}

// HasOccurredAt returns when this event occurred.
func (e BookRestocked) HasOccurredAt() time.Time {
	return e.OccurredAt
}
