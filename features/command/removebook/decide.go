package removebook

import (
	"github.com/google/uuid"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/journal"
	"github.com/openshelf/circulation-go/ledger"
)

// Decide implements the business logic for withdrawing a book. Pure function.
//
// Business Rules:
//
//	GIVEN: A book with BookID
//	WHEN: RemoveBook command is received
//	THEN: BookWithdrawn event is generated
//	ERROR: ErrBookNotFound if the book is not in the catalog
//	ERROR: ErrBookStillHeld if any reader currently holds a copy
func Decide(history core.DomainEvents, command Command) core.Decision {
	book := ledger.ProjectBook(history, command.BookID.String())

	if !book.Exists() {
		return core.Reject(core.ErrBookNotFound)
	}

	if book.HolderCount() > 0 {
		return core.Reject(core.ErrBookStillHeld)
	}

	return core.Accept(
		core.BuildBookWithdrawn(
			command.BookID,
			command.OccurredAt,
		),
	)
}

// BuildStreamSelector creates the selector for all events affecting the given
// book's existence and holder set. Including borrow and return events means a
// withdrawal races fairly against in-flight borrows.
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
