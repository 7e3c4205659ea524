package core

import (
	"time"

	"github.com/google/uuid"
)

// BookPublishedEventType is the event type identifier.
const BookPublishedEventType = "BookPublished"

// BookPublished represents when an author publishes a book into the catalog
// with an initial total stock of lendable copies.
type BookPublished struct {
	BookID     BookIDString
	Title      string
	Genre      string
	AuthorID   AuthorIDString
	TotalStock int
	OccurredAt OccurredAtTS
}

// BuildBookPublished creates a new BookPublished event.
func BuildBookPublished(
	bookID uuid.UUID,
	title string,
	genre string,
	authorID uuid.UUID,
	totalStock int,
	occurredAt time.Time,
) BookPublished {

	return BookPublished{
		BookID:     bookID.String(),
		Title:      title,
		Genre:      genre,
		AuthorID:   authorID.String(),
		TotalStock: totalStock,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// EventType returns the event type identifier.
func (e BookPublished) EventType() string {
	return BookPublishedEventType
}

// HasOccurredAt returns when this event occurred.
func (e BookPublished) HasOccurredAt() time.Time {
	return e.OccurredAt
}
