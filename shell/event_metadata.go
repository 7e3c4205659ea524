package shell

import (
	"errors"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

// ErrMarshalingMetadataFailed is returned when event metadata cannot be serialized.
var ErrMarshalingMetadataFailed = errors.New("marshaling event metadata failed")

// EventMetadata carries the message identity and causality chain of a
// recorded domain event. MessageID identifies the event itself,
// CausationID points at the message that directly caused it, and
// CorrelationID ties together all messages of one business transaction.
type EventMetadata struct {
	MessageID     uuid.UUID `json:"messageId"`
	CausationID   uuid.UUID `json:"causationId"`
	CorrelationID uuid.UUID `json:"correlationId"`
}

// BuildEventMetadata creates metadata for a new event caused by the given message.
func BuildEventMetadata(messageID, causationID, correlationID uuid.UUID) EventMetadata {
	return EventMetadata{
		MessageID:     messageID,
		CausationID:   causationID,
		CorrelationID: correlationID,
	}
}

// BuildCommandMetadata creates metadata for an event recorded as the direct
// result of a command: the event is its own cause and starts a new correlation
// unless the caller supplies one.
func BuildCommandMetadata() EventMetadata {
	messageID := uuid.New()

	return EventMetadata{
		MessageID:     messageID,
		CausationID:   messageID,
		CorrelationID: messageID,
	}
}

func marshalMetadata(metadata EventMetadata) ([]byte, error) {
	json, err := jsoniter.ConfigFastest.Marshal(metadata)
	if err != nil {
		return nil, errors.Join(ErrMarshalingMetadataFailed, err)
	}

	return json, nil
}
