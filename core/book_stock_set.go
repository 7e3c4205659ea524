package core

import (
	"time"

	"github.com/google/uuid"
)

// BookStockSetEventType is the event type identifier.
const BookStockSetEventType = "BookStockSet"

// BookStockSet represents an owner-initiated edit of a book's total stock.
type BookStockSet struct {
	BookID     BookIDString
	TotalStock int
	OccurredAt OccurredAtTS
}

// BuildBookStockSet creates a new BookStockSet event.
func BuildBookStockSet(bookID uuid.UUID, totalStock int, occurredAt time.Time) BookStockSet {
	return BookStockSet{
		BookID:     bookID.String(),
		TotalStock: totalStock,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// EventType returns the event type identifier.
func (e BookStockSet) EventType() string {
	return BookStockSetEventType
}

// HasOccurredAt returns when this event occurred.
func (e BookStockSet) HasOccurredAt() time.Time {
	return e.OccurredAt
}
