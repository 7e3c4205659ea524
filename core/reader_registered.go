package core

import (
	"time"

	"github.com/google/uuid"
)

// ReaderRegisteredEventType is the event type identifier.
const ReaderRegisteredEventType = "ReaderRegistered"

// ReaderRegistered represents when a reader joins the library.
type ReaderRegistered struct {
	ReaderID   ReaderIDString
	Name       string
	OccurredAt OccurredAtTS
}

// BuildReaderRegistered creates a new ReaderRegistered event.
func BuildReaderRegistered(readerID uuid.UUID, name string, occurredAt time.Time) ReaderRegistered {
	return ReaderRegistered{
		ReaderID:   readerID.String(),
		Name:       name,
		OccurredAt: ToOccurredAt(occurredAt),
	}
}

// EventType returns the event type identifier.
func (e ReaderRegistered) EventType() string {
	return ReaderRegisteredEventType
}

// HasOccurredAt returns when this event occurred.
func (e ReaderRegistered) HasOccurredAt() time.Time {
	return e.OccurredAt
}
