package shell

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/journal"
)

// ErrUnmarshalingPayloadFailed is returned when an entry payload cannot be deserialized.
var ErrUnmarshalingPayloadFailed = errors.New("unmarshaling entry payload failed")

// ErrUnknownEntryType is returned when an entry carries a type no domain event maps to.
var ErrUnknownEntryType = errors.New("unknown entry type")

// DomainEventsFrom converts journal entries back into domain events,
// preserving order.
func DomainEventsFrom(entries journal.Entries) ([]core.DomainEvent, error) {
	events := make([]core.DomainEvent, 0, len(entries))

	for _, entry := range entries {
		event, err := DomainEventFrom(entry)
		if err != nil {
			return nil, err
		}

		events = append(events, event)
	}

	return events, nil
}

// DomainEventFrom converts a single journal entry into its domain event.
func DomainEventFrom(entry journal.Entry) (core.DomainEvent, error) {
	switch entry.EntryType {
	case core.BookPublishedEventType:
		return unmarshalEvent[core.BookPublished](entry)

	case core.BookStockSetEventType:
		return unmarshalEvent[core.BookStockSet](entry)

	case core.BookWithdrawnEventType:
		return unmarshalEvent[core.BookWithdrawn](entry)

	case core.BookCopyBorrowedEventType:
		return unmarshalEvent[core.BookCopyBorrowed](entry)

	case core.BookCopyReturnedEventType:
		return unmarshalEvent[core.BookCopyReturned](entry)

	case core.ReaderRegisteredEventType:
		return unmarshalEvent[core.ReaderRegistered](entry)

	case core.ReaderDeregisteredEventType:
		return unmarshalEvent[core.ReaderDeregistered](entry)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntryType, entry.EntryType)
	}
}

func unmarshalEvent[T core.DomainEvent](entry journal.Entry) (core.DomainEvent, error) {
	var event T
	if err := jsoniter.ConfigFastest.Unmarshal(entry.PayloadJSON, &event); err != nil {
		return nil, errors.Join(ErrUnmarshalingPayloadFailed, err)
	}

	return event, nil
}
