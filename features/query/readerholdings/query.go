package readerholdings

import (
	"time"

	"github.com/google/uuid"
)

const (
	queryType = "ReaderHoldings"
)

// Query asks for the books a reader currently holds.
type Query struct {
	ReaderID uuid.UUID
}

// QueryType returns the type identifier for this query, used for observability.
func (q Query) QueryType() string {
	return queryType
}

// BuildQuery creates a new Query for the given reader.
func BuildQuery(readerID uuid.UUID) Query {
	return Query{ReaderID: readerID}
}

// HeldBook is one book currently held by the reader.
type HeldBook struct {
	BookID     string
	BorrowedAt time.Time
}

// ReaderHoldings is the result of the query.
type ReaderHoldings struct {
	ReaderID string
	Name     string
	Held     []HeldBook
	Count    int
}
