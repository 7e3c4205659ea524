package shell

import (
	"errors"

	jsoniter "github.com/json-iterator/go"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/journal"
)

// ErrMarshalingPayloadFailed is returned when a domain event payload cannot be serialized.
var ErrMarshalingPayloadFailed = errors.New("marshaling domain event payload failed")

// EntryFrom converts a domain event plus its metadata into a journal entry
// ready for appending.
func EntryFrom(event core.DomainEvent, metadata EventMetadata) (journal.Entry, error) {
	payloadJSON, err := jsoniter.ConfigFastest.Marshal(event)
	if err != nil {
		return journal.Entry{}, errors.Join(ErrMarshalingPayloadFailed, err)
	}

	metadataJSON, err := marshalMetadata(metadata)
	if err != nil {
		return journal.Entry{}, err
	}

	entry, err := journal.BuildEntry(
		event.EventType(),
		event.HasOccurredAt(),
		payloadJSON,
		metadataJSON,
	)
	if err != nil {
		return journal.Entry{}, err
	}

	return entry, nil
}
