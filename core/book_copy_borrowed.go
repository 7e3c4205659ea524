package core

import (
	"time"

	"github.com/google/uuid"
)

// BookCopyBorrowedEventType is the event type identifier.
const BookCopyBorrowedEventType = "BookCopyBorrowed"

// BookCopyBorrowed represents when a reader borrows one copy of a book.
// This single event is the entire ledger+holdings transition of a borrow.
type BookCopyBorrowed struct {
	BookID     BookIDString
	ReaderID   ReaderIDString
	OccurredAt OccurredAtTS
}

// BuildBookCopyBorrowed creates a new BookCopyBorrowed event.
func BuildBookCopyBorrowed(bookID uuid.UUID, readerID uuid.UUID, occurredAt time.Time) BookCopyBorrowed {
	return BookCopyBorrowed{
		BookID:     bookID.String(),
		ReaderID:   readerID.String(),
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// EventType returns the event type identifier.
func (e BookCopyBorrowed) EventType() string {
	return BookCopyBorrowedEventType
}

// HasOccurredAt returns when this event occurred.
func (e BookCopyBorrowed) HasOccurredAt() time.Time {
	return e.OccurredAt
}
