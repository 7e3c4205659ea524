package setbookstock

import (
	"github.com/google/uuid"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/journal"
	"github.com/openshelf/circulation-go/ledger"
)

// Decide implements the business logic for an owner stock edit. Pure function.
//
// Business Rules:
//
//	GIVEN: A book with BookID
//	WHEN: SetBookStock command is received
//	THEN: BookStockSet event is generated
//	ERROR: ErrBookNotFound if the book is not in the catalog
//	ERROR: ErrInvalidStock if the new stock is outside 0..MaxTotalStock
//	ERROR: ErrStockBelowHeldCount if the cut would drop total stock below
//	       the number of copies currently held by readers
//
// A raise above the holder count simply recomputes availability from the new
// total; copies already held are never recalled.
func Decide(history core.DomainEvents, command Command) core.Decision {
	book := ledger.ProjectBook(history, command.BookID.String())

	if _, err := book.SetTotalStock(command.TotalStock); err != nil {
		return core.Reject(err)
	}

	return core.Accept(
		core.BuildBookStockSet(
			command.BookID,
			command.TotalStock,
			command.OccurredAt,
		),
	)
}

// BuildStreamSelector creates the selector for all events affecting the given
// book's stock and holder set. Including borrow and return events serializes
// stock cuts against concurrent borrows of the same book.
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
