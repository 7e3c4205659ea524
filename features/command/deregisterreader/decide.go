package deregisterreader

import (
	"github.com/google/uuid"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/holdings"
	"github.com/openshelf/circulation-go/journal"
)

// Decide implements the business logic for deregistering a reader. Pure function.
//
// Business Rules:
//
//	GIVEN: A reader with ReaderID
//	WHEN: DeregisterReader command is received
//	THEN: ReaderDeregistered event is generated
//	ERROR: ErrReaderNotFound if the reader is not currently registered
//	ERROR: ErrReaderStillHoldsBooks if the reader still holds any book
func Decide(history core.DomainEvents, command Command) core.Decision {
	reader := holdings.ProjectReader(history, command.ReaderID.String())

	if !reader.Registered() {
		return core.Reject(core.ErrReaderNotFound)
	}

	if reader.HeldCount() > 0 {
		return core.Reject(core.ErrReaderStillHoldsBooks)
	}

	return core.Accept(
		core.BuildReaderDeregistered(
			command.ReaderID,
			command.OccurredAt,
		),
	)
}

// BuildStreamSelector creates the selector for all events affecting the given
// reader's registration and holdings. Including borrow and return events means
// a deregistration races fairly against in-flight borrows.
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
