package core

import (
	"time"

	"github.com/google/uuid"
)

// BookWithdrawnEventType is the event type identifier.
const BookWithdrawnEventType = "BookWithdrawn"

// BookWithdrawn represents the removal of a book from the catalog.
// Only legal when no reader holds a copy.
type BookWithdrawn struct {
	BookID     BookIDString
	OccurredAt OccurredAtTS
}

// BuildBookWithdrawn creates a new BookWithdrawn event.
func BuildBookWithdrawn(bookID uuid.UUID, occurredAt time.Time) BookWithdrawn {
	return BookWithdrawn{
		BookID:     bookID.String(),
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// EventType returns the event type identifier.
func (e BookWithdrawn) EventType() string {
	return BookWithdrawnEventType
}

// HasOccurredAt returns when this event occurred.
func (e BookWithdrawn) HasOccurredAt() time.Time {
	return e.OccurredAt
}
