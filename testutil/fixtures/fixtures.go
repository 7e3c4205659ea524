// Package fixtures provides event builders and journal seeding helpers for tests.
package fixtures

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/journal"
	"github.com/openshelf/circulation-go/shell"
)

// Appender is the journal surface needed for seeding.
type Appender interface {
	Append(
		ctx context.Context,
		selector journal.Selector,
		expectedMaxSequenceNumber journal.SequenceNumber,
		entry journal.Entry,
		additionalEntries ...journal.Entry,
	) error
}

// FixedTime returns a deterministic timestamp for event fixtures.
func FixedTime() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

// GivenBookPublished builds a BookPublished event with sensible defaults.
func GivenBookPublished(bookID uuid.UUID, totalStock int) core.BookPublished {
	return core.BuildBookPublished(
		bookID,
		"Domain-Driven Design",
		"Software",
		uuid.New(),
		totalStock,
		FixedTime(),
	)
}

// GivenReaderRegistered builds a ReaderRegistered event.
func GivenReaderRegistered(readerID uuid.UUID) core.ReaderRegistered {
	return core.BuildReaderRegistered(readerID, "Pat Reader", FixedTime())
}

// GivenBookCopyBorrowed builds a BookCopyBorrowed event.
func GivenBookCopyBorrowed(bookID, readerID uuid.UUID) core.BookCopyBorrowed {
	return core.BuildBookCopyBorrowed(bookID, readerID, FixedTime())
}

// GivenBookCopyReturned builds a BookCopyReturned event.
func GivenBookCopyReturned(bookID, readerID uuid.UUID) core.BookCopyReturned {
	return core.BuildBookCopyReturned(bookID, readerID, FixedTime())
}

// SeedEvents appends the given events to the journal unconditionally,
// in order, failing the test on any error.
func SeedEvents(t *testing.T, appender Appender, events ...core.DomainEvent) {
	t.Helper()

	ctx := context.Background()

	for _, event := range events {
		entry, err := shell.EntryFrom(event, shell.BuildCommandMetadata())
		require.NoError(t, err)

		// Unconditional append: select the event's own unique message id so
		// the matched stream is always empty and expected max is 0.
		selector := journal.BuildSelector().
			Matching().
			AnyEntryTypeOf(event.EventType()).
			AndAnyPredicateOf(journal.P("MessageID", uuid.NewString())).
			Finalize()

		require.NoError(t, appender.Append(ctx, selector, 0, entry))
	}
}
