package readerholdings

import (
	"github.com/google/uuid"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/holdings"
	"github.com/openshelf/circulation-go/journal"
)

// Project implements the query logic for a reader's current holdings.
// Pure function.
//
// Query Logic:
//
//	GIVEN: All events touching the reader
//	WHEN: ReaderHoldings query is executed
//	THEN: ReaderHoldings is returned, held books sorted by borrow time
//	ERROR: ErrReaderNotFound if the reader is not currently registered
func Project(history core.DomainEvents, query Query) (ReaderHoldings, error) {
	reader := holdings.ProjectReader(history, query.ReaderID.String())

	if !reader.Registered() {
		return ReaderHoldings{}, core.ErrReaderNotFound
	}

	heldBooks := reader.HeldBooks()

	held := make([]HeldBook, 0, len(heldBooks))
	for _, heldBook := range heldBooks {
		held = append(held, HeldBook{
			BookID:     heldBook.BookID,
			BorrowedAt: heldBook.BorrowedAt,
		})
	}

	return ReaderHoldings{
		ReaderID: reader.ID(),
		Name:     reader.Name(),
		Held:     held,
		Count:    len(held),
	}, nil
}

// BuildStreamSelector creates the selector for all events affecting the given
// reader's registration and holdings.
func BuildStreamSelector(readerID uuid.UUID) journal.Selector {
	return journal.BuildSelector().
		Matching().
		AnyEntryTypeOf(
			core.ReaderRegisteredEventType,
			core.ReaderDeregisteredEventType,
			core.BookCopyBorrowedEventType,
			core.BookCopyReturnedEventType,
		).
		AndAnyPredicateOf(
			journal.P("ReaderID", readerID.String()),
		).
		Finalize()
}
