package core

import (
	"time"

	"github.com/google/uuid"
)

// ReaderDeregisteredEventType is the event type identifier.
const ReaderDeregisteredEventType = "ReaderDeregistered"

// ReaderDeregistered represents when a reader leaves the library.
// Only legal when the reader holds no books.
type ReaderDeregistered struct {
	ReaderID   ReaderIDString
	OccurredAt OccurredAtTS
}

// BuildReaderDeregistered creates a new ReaderDeregistered event.
func BuildReaderDeregistered(readerID uuid.UUID, occurredAt time.Time) ReaderDeregistered {
	return ReaderDeregistered{
		ReaderID:   readerID.String(),
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// EventType returns the event type identifier.
func (e ReaderDeregistered) EventType() string {
	return ReaderDeregisteredEventType
}

// HasOccurredAt returns when this event occurred.
func (e ReaderDeregistered) HasOccurredAt() time.Time {
	return e.OccurredAt
}
