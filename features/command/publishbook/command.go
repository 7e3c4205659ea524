package publishbook

import (
	"time"

	"github.com/google/uuid"

	"github.com/openshelf/circulation-go/core"
)

const (
	commandType = "PublishBook"
)

// Command represents the intent to publish a book into the catalog with an
// initial total stock of lendable copies.
type Command struct {
	BookID     uuid.UUID
	Title      string
	Genre      string
	AuthorID   uuid.UUID
	TotalStock int
	OccurredAt core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(
	bookID uuid.UUID,
	title string,
	genre string,
	authorID uuid.UUID,
	totalStock int,
	occurredAt time.Time,
) Command {

	return Command{
		BookID:     bookID,
		Title:      title,
		Genre:      genre,
		AuthorID:   authorID,
		TotalStock: totalStock,
		OccurredAt: core.ToOccurredAt(occurredAt),
	}
}
