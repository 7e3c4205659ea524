package returnbook

import (
	"github.com/google/uuid"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/holdings"
	"github.com/openshelf/circulation-go/journal"
	"github.com/openshelf/circulation-go/ledger"
)

// Decide implements the business logic that determines whether a reader may
// return a book copy. Pure function.
//
// Business Rules:
//
//	GIVEN: A book with BookID and a reader with ReaderID
//	WHEN: ReturnBook command is received
//	THEN: BookCopyReturned event is generated
//	ERROR: ErrReaderNotFound if the reader is not currently registered
//	ERROR: ErrBookNotFound if the book is not in the catalog
//	ERROR: ErrNotBorrowed if the reader does not hold a copy of this book
//
// A rejected command generates no event. Returning a book that was never
// borrowed twice in a row fails identically both times.
func Decide(history core.DomainEvents, command Command) core.Decision {
	reader := holdings.ProjectReader(history, command.ReaderID.String())
	book := ledger.ProjectBook(history, command.BookID.String())

	if !reader.Registered() {
		return core.Reject(core.ErrReaderNotFound)
	}

	if !book.Exists() {
		return core.Reject(core.ErrBookNotFound)
	}

	if err := reader.RemoveHeld(command.BookID.String()); err != nil {
		return core.Reject(err)
	}

	if _, err := book.RemoveHolder(command.ReaderID.String()); err != nil {
		return core.Reject(err)
	}

	return core.Accept(
		core.BuildBookCopyReturned(
			command.BookID,
			command.ReaderID,
			command.OccurredAt,
		),
	)
}

// BuildStreamSelector creates the selector for all events touching the given
// book or reader which are relevant for returning.
func BuildStreamSelector(bookID uuid.UUID, readerID uuid.UUID) journal.Selector {
	return journal.BuildSelector().
		Matching().
		AnyEntryTypeOf(
			core.BookPublishedEventType,
			core.BookStockSetEventType,
			core.BookWithdrawnEventType,
			core.BookCopyBorrowedEventType,
			core.BookCopyReturnedEventType,
			core.ReaderRegisteredEventType,
			core.ReaderDeregisteredEventType,
		).
		AndAnyPredicateOf(
			journal.P("BookID", bookID.String()),
			journal.P("ReaderID", readerID.String()),
		).
		Finalize()
}
