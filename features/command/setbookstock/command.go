package setbookstock

import (
	"time"

	"github.com/google/uuid"

	"github.com/openshelf/circulation-go/core"
)

const (
	commandType = "SetBookStock"
)

// Command represents the owner's intent to change a book's total stock.
type Command struct {
	BookID     uuid.UUID
	TotalStock int
	OccurredAt core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(bookID uuid.UUID, totalStock int, occurredAt time.Time) Command {
	return Command{
		BookID:     bookID,
		TotalStock: totalStock,
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}
