package registerreader

import (
	"github.com/google/uuid"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/holdings"
	"github.com/openshelf/circulation-go/journal"
)

// Decide implements the business logic for registering a reader. Pure function.
//
// Business Rules:
//
//	GIVEN: A reader with ReaderID
//	WHEN: RegisterReader command is received
//	THEN: ReaderRegistered event is generated
//	ERROR: ErrReaderAlreadyRegistered if the ReaderID is already registered
//
// A deregistered ReaderID may register again.
func Decide(history core.DomainEvents, command Command) core.Decision {
	reader := holdings.ProjectReader(history, command.ReaderID.String())

	if reader.Registered() {
		return core.Reject(core.ErrReaderAlreadyRegistered)
	}

	return core.Accept(
		core.BuildReaderRegistered(
			command.ReaderID,
			command.Name,
			command.OccurredAt,
		),
	)
}

// BuildStreamSelector creates the selector for the given reader's lifecycle events.
func BuildStreamSelector(readerID uuid.UUID) journal.Selector {
	return journal.BuildSelector().
		Matching().
		AnyEntryTypeOf(
			core.ReaderRegisteredEventType,
			core.ReaderDeregisteredEventType,
		).
		AndAnyPredicateOf(
			journal.P("ReaderID", readerID.String()),
		).
		Finalize()
}
