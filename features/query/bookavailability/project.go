package bookavailability

import (
	"github.com/google/uuid"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/journal"
	"github.com/openshelf/circulation-go/ledger"
)

// Project implements the query logic for a single book's availability.
// Pure function.
//
// Query Logic:
//
//	GIVEN: All events touching the book
//	WHEN: BookAvailability query is executed
//	THEN: BookAvailability is returned with total stock and available copies
//	ERROR: ErrBookNotFound if the book is not in the catalog
func Project(history core.DomainEvents, query Query) (BookAvailability, error) {
	book := ledger.ProjectBook(history, query.BookID.String())

	if !book.Exists() {
		return BookAvailability{}, core.ErrBookNotFound
	}

	availability := book.Availability()

	return BookAvailability{
		BookID:     book.ID(),
		Title:      book.Title(),
		TotalStock: availability.TotalStock,
		Available:  availability.Available,
	}, nil
}

// BuildStreamSelector creates the selector for all events affecting the given
// book's availability.
func BuildStreamSelector(bookID uuid.UUID) journal.Selector {
	return journal.BuildSelector().
		Matching().
		AnyEntryTypeOf(
			core.BookPublishedEventType,
			core.BookStockSetEventType,
			core.BookWithdrawnEventType,
			core.BookCopyBorrowedEventType,
			core.BookCopyReturnedEventType,
		).
		AndAnyPredicateOf(
			journal.P("BookID", bookID.String()),
		).
		Finalize()
}
