package registerreader

import (
	"time"

	"github.com/google/uuid"

	"github.com/openshelf/circulation-go/core"
)

const (
	commandType = "RegisterReader"
)

// Command represents the intent to register a new reader.
type Command struct {
	ReaderID   uuid.UUID
	Name       string
	OccurredAt core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(readerID uuid.UUID, name string, occurredAt time.Time) Command {
	return Command{
		ReaderID:   readerID,
		Name:       name,
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}
