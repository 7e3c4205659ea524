package bookavailability

import (
	"github.com/google/uuid"
)

const (
	queryType = "BookAvailability"
)

// Query asks for the availability of a single book.
type Query struct {
	BookID uuid.UUID
}

// QueryType returns the type identifier for this query, used for observability.
func (q Query) QueryType() string {
	return queryType
}

// BuildQuery creates a new Query for the given book.
func BuildQuery(bookID uuid.UUID) Query {
	return Query{BookID: bookID}
}

// BookAvailability is the result of the query.
type BookAvailability struct {
	BookID     string
	Title      string
	TotalStock int
	Available  int
}
