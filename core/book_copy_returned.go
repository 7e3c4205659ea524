package core

import (
	"time"

	"github.com/google/uuid"
)

// BookCopyReturnedEventType is the event type identifier.
const BookCopyReturnedEventType = "BookCopyReturned"

// BookCopyReturned represents when a reader returns a borrowed copy of a book.
type BookCopyReturned struct {
	BookID     BookIDString
	ReaderID   ReaderIDString
	OccurredAt OccurredAtTS
}

// BuildBookCopyReturned creates a new BookCopyReturned event.
func BuildBookCopyReturned(bookID uuid.UUID, readerID uuid.UUID, occurredAt time.Time) BookCopyReturned {
	return BookCopyReturned{
		BookID:     bookID.String(),
		ReaderID:   readerID.String(),
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// EventType returns the event type identifier.
func (e BookCopyReturned) EventType() string {
	return BookCopyReturnedEventType
}

// HasOccurredAt returns when this event occurred.
func (e BookCopyReturned) HasOccurredAt() time.Time {
	return e.OccurredAt
}
