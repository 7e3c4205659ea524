package core

import (
	"time"
)

// Instead of implementing full value objects, alias types and helper methods are used here.

// BookIDString represents a book identifier.
type BookIDString = string

// ReaderIDString represents a reader identifier.
type ReaderIDString = string

// AuthorIDString represents an author identifier.
type AuthorIDString = string

// OccurredAtTS represents when an event occurred.
type OccurredAtTS = time.Time

// ToOccurredAt converts a time to OccurredAtTS with UTC normalization and microsecond precision.
func ToOccurredAt(t time.Time) OccurredAtTS {
	return t.UTC().Truncate(time.Microsecond)
}
