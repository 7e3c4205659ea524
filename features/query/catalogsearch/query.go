package catalogsearch

const (
	queryType = "CatalogSearch"

	// DefaultLimit caps a page when the caller does not set one.
	DefaultLimit = 50
)

// Filter narrows the catalog by genre and/or a plain title substring.
// Empty fields match everything.
type Filter struct {
	Genre         string
	TitleContains string
}

// Query asks for a page of catalog books matching a filter.
type Query struct {
	Filter Filter
	Offset int
	Limit  int
}

// QueryType returns the type identifier for this query, used for observability.
func (q Query) QueryType() string {
	return queryType
}

// BuildQuery creates a new Query with the provided parameters.
func BuildQuery(filter Filter, offset int, limit int) Query {
	if limit <= 0 {
		limit = DefaultLimit
	}

	if offset < 0 {
		offset = 0
	}

	return Query{
		Filter: filter,
		Offset: offset,
		Limit:  limit,
	}
}

// BookSummary is one catalog book in a search result page.
type BookSummary struct {
	BookID     string
	Title      string
	Genre      string
	AuthorID   string
	TotalStock int
	Available  int
}

// CatalogPage is the result of the query.
type CatalogPage struct {
	Books []BookSummary

	// TotalMatches counts all books matching the filter, not just this page.
	TotalMatches int

	// SequenceNumber is the journal position this page was projected at.
	SequenceNumber uint
}
