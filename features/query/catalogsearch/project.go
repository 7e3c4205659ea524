package catalogsearch

import (
	"slices"
	"strings"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/journal"
)

// ProjectionType identifies catalog snapshots in the snapshot store.
const ProjectionType = "CatalogSearch"

// CatalogBook is the projected per-title state kept in the catalog projection.
// Exported fields keep the projection JSON-serializable for snapshots.
type CatalogBook struct {
	BookID      string
	Title       string
	Genre       string
	AuthorID    string
	TotalStock  int
	HolderCount int
}

// Catalog is the full projected catalog, the base for incremental updates.
type Catalog struct {
	Books          []CatalogBook
	SequenceNumber uint
}

// Project folds catalog events into the Catalog projection. Pure function.
// When a base catalog is supplied only the incremental events since its
// sequence number need to be passed, mirroring a snapshot-and-tail read.
//
// Query Logic:
//
//	GIVEN: All catalog events (or the tail since the base projection)
//	WHEN: CatalogSearch projection is built
//	THEN: Catalog holds every published, non-withdrawn book with its
//	      stock and holder count
func Project(history core.DomainEvents, maxSequence uint, base ...Catalog) Catalog {
	var books map[string]*CatalogBook

	if len(base) > 0 {
		books = catalogToMap(base[0].Books)
	} else {
		books = make(map[string]*CatalogBook)
	}

	for _, event := range history {
		switch e := event.(type) {
		case core.BookPublished:
			books[e.BookID] = &CatalogBook{
				BookID:     e.BookID,
				Title:      e.Title,
				Genre:      e.Genre,
				AuthorID:   e.AuthorID,
				TotalStock: e.TotalStock,
			}

		case core.BookStockSet:
			if book := books[e.BookID]; book != nil {
				book.TotalStock = e.TotalStock
			}

		case core.BookWithdrawn:
			delete(books, e.BookID)

		case core.BookCopyBorrowed:
			if book := books[e.BookID]; book != nil {
				book.HolderCount++
			}

		case core.BookCopyReturned:
			if book := books[e.BookID]; book != nil {
				book.HolderCount--
			}
		}
	}

	bookList := make([]CatalogBook, 0, len(books))
	for _, book := range books {
		bookList = append(bookList, *book)
	}

	slices.SortFunc(bookList, func(a, b CatalogBook) int {
		if c := strings.Compare(a.Title, b.Title); c != 0 {
			return c
		}
		return strings.Compare(a.BookID, b.BookID)
	})

	return Catalog{
		Books:          bookList,
		SequenceNumber: maxSequence,
	}
}

// Search filters and paginates a projected catalog. Pure function.
// Title matching is a plain case-insensitive substring test, genre matching is
// exact. Results stay sorted by title.
func Search(catalog Catalog, query Query) CatalogPage {
	needle := strings.ToLower(query.Filter.TitleContains)

	matches := make([]BookSummary, 0)

	for _, book := range catalog.Books {
		if query.Filter.Genre != "" && book.Genre != query.Filter.Genre {
			continue
		}

		if needle != "" && !strings.Contains(strings.ToLower(book.Title), needle) {
			continue
		}

		matches = append(matches, BookSummary{
			BookID:     book.BookID,
			Title:      book.Title,
			Genre:      book.Genre,
			AuthorID:   book.AuthorID,
			TotalStock: book.TotalStock,
			Available:  book.TotalStock - book.HolderCount,
		})
	}

	total := len(matches)

	// Offset and Limit are exported fields, so bounds cannot be assumed here.
	start := query.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}

	limit := query.Limit
	if limit < 0 {
		limit = 0
	}

	end := start + limit
	if end > total {
		end = total
	}

	return CatalogPage{
		Books:          matches[start:end],
		TotalMatches:   total,
		SequenceNumber: catalog.SequenceNumber,
	}
}

// BuildStreamSelector creates the selector for all catalog events.
func BuildStreamSelector() journal.Selector {
	return journal.BuildSelector().
		Matching().
		AnyEntryTypeOf(
			core.BookPublishedEventType,
			core.BookStockSetEventType,
			core.BookWithdrawnEventType,
			core.BookCopyBorrowedEventType,
			core.BookCopyReturnedEventType,
		).
		Finalize()
}

func catalogToMap(books []CatalogBook) map[string]*CatalogBook {
	result := make(map[string]*CatalogBook, len(books))
	for i := range books {
		book := books[i]
		result[book.BookID] = &book
	}

	return result
}
