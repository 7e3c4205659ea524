package borrowbook

import (
	"github.com/google/uuid"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/holdings"
	"github.com/openshelf/circulation-go/journal"
	"github.com/openshelf/circulation-go/ledger"
)

// Decide implements the business logic that determines whether a reader may
// borrow one copy of a book. Pure function: it projects the ledger and
// holdings state from the event history and validates the preconditions in
// their fixed order.
//
// Business Rules:
//
//	GIVEN: A book with BookID and a reader with ReaderID
//	WHEN: BorrowBook command is received
//	THEN: BookCopyBorrowed event is generated
//	ERROR: ErrReaderNotFound if the reader is not currently registered
//	ERROR: ErrBookNotFound if the book is not in the catalog
//	ERROR: ErrAlreadyBorrowed if the reader already holds a copy of this book
//	ERROR: ErrBorrowLimitReached if the reader already holds 5 books
//	ERROR: ErrOutOfStock if no copy is available
//
// A rejected command generates no event.
func Decide(history core.DomainEvents, command Command) core.Decision {
	reader := holdings.ProjectReader(history, command.ReaderID.String())
	book := ledger.ProjectBook(history, command.BookID.String())

	if !reader.Registered() {
		return core.Reject(core.ErrReaderNotFound)
	}

	if !book.Exists() {
		return core.Reject(core.ErrBookNotFound)
	}

	// Holdings-side checks run through the reader state machine first so the
	// already-borrowed and limit checks precede the stock check.
	if err := reader.AddHeld(command.BookID.String()); err != nil {
		return core.Reject(err)
	}

	if _, err := book.AddHolder(command.ReaderID.String()); err != nil {
		return core.Reject(err)
	}

	return core.Accept(
		core.BuildBookCopyBorrowed(
			command.BookID,
			command.ReaderID,
			command.OccurredAt,
		),
	)
}

// BuildStreamSelector creates the selector for all events touching the given
// book or reader which are relevant for borrowing. The conditional append over
// this union stream serializes same-book and same-reader races.
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
