package deregisterreader

import (
	"time"

	"github.com/google/uuid"

	"github.com/openshelf/circulation-go/core"
)

const (
	commandType = "DeregisterReader"
)

// Command represents the intent to deregister a reader.
type Command struct {
	ReaderID   uuid.UUID
	OccurredAt core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(readerID uuid.UUID, occurredAt time.Time) Command {
	return Command{
		ReaderID:   readerID,
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}
