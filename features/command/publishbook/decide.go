package publishbook

import (
	"github.com/google/uuid"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/journal"
	"github.com/openshelf/circulation-go/ledger"
)

// Decide implements the business logic for publishing a book. Pure function.
//
// Business Rules:
//
//	GIVEN: A book with BookID
//	WHEN: PublishBook command is received
//	THEN: BookPublished event is generated
//	ERROR: ErrInvalidStock if the initial stock is outside 1..MaxTotalStock
//	ERROR: ErrBookAlreadyPublished if the BookID is already in the catalog
//
// A withdrawn BookID may be published again.
func Decide(history core.DomainEvents, command Command) core.Decision {
	if command.TotalStock < 1 {
		return core.Reject(core.ErrInvalidStock)
	}

	if err := ledger.ValidateStock(command.TotalStock); err != nil {
		return core.Reject(err)
	}

	book := ledger.ProjectBook(history, command.BookID.String())
	if book.Exists() {
		return core.Reject(core.ErrBookAlreadyPublished)
	}

	return core.Accept(
		core.BuildBookPublished(
			command.BookID,
			command.Title,
			command.Genre,
			command.AuthorID,
			command.TotalStock,
			command.OccurredAt,
		),
	)
}

// BuildStreamSelector creates the selector for all catalog events of the given book.
func BuildStreamSelector(bookID uuid.UUID) journal.Selector {
	return journal.BuildSelector().
		Matching().
		AnyEntryTypeOf(
			core.BookPublishedEventType,
			core.BookWithdrawnEventType,
		).
		AndAnyPredicateOf(
			journal.P("BookID", bookID.String()),
		).
		Finalize()
}
