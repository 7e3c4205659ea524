package catalogsearch_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/features/query/catalogsearch"
)

func Test_Project_BuildsCatalogSortedByTitle(t *testing.T) {
	// arrange
	now := time.Now()
	zebraID := uuid.New()
	alphaID := uuid.New()

	events := []core.DomainEvent{
		core.BuildBookPublished(zebraID, "Zebra Patterns", "Nature", uuid.New(), 3, now.Add(-2*time.Hour)),
		core.BuildBookPublished(alphaID, "Alpha Go", "Software", uuid.New(), 2, now.Add(-1*time.Hour)),
	}

	// act
	catalog := catalogsearch.Project(events, 2)

	// assert
	require.Len(t, catalog.Books, 2)
	assert.Equal(t, "Alpha Go", catalog.Books[0].Title)
	assert.Equal(t, "Zebra Patterns", catalog.Books[1].Title)
	assert.Equal(t, uint(2), catalog.SequenceNumber)
}

func Test_Project_ExcludesWithdrawnBooksAndTracksHolders(t *testing.T) {
	// arrange
	now := time.Now()
	keptID := uuid.New()
	withdrawnID := uuid.New()
	readerID := uuid.New()

	events := []core.DomainEvent{
		core.BuildBookPublished(keptID, "Kept", "Software", uuid.New(), 3, now.Add(-4*time.Hour)),
		core.BuildBookPublished(withdrawnID, "Gone", "Software", uuid.New(), 1, now.Add(-3*time.Hour)),
		core.BuildBookWithdrawn(withdrawnID, now.Add(-2*time.Hour)),
		core.BuildReaderRegistered(readerID, "Reader", now.Add(-2*time.Hour)),
		core.BuildBookCopyBorrowed(keptID, readerID, now.Add(-1*time.Hour)),
	}

	// act
	catalog := catalogsearch.Project(events, 5)

	// assert
	require.Len(t, catalog.Books, 1)
	assert.Equal(t, "Kept", catalog.Books[0].Title)
	assert.Equal(t, 1, catalog.Books[0].HolderCount)
}

func Test_Project_IncrementalUpdateFromBase(t *testing.T) {
	// arrange
	now := time.Now()
	bookID := uuid.New()
	readerID := uuid.New()

	baseEvents := []core.DomainEvent{
		core.BuildBookPublished(bookID, "Base Book", "Software", uuid.New(), 4, now.Add(-3*time.Hour)),
	}
	base := catalogsearch.Project(baseEvents, 1)

	tail := []core.DomainEvent{
		core.BuildReaderRegistered(readerID, "Reader", now.Add(-2*time.Hour)),
		core.BuildBookCopyBorrowed(bookID, readerID, now.Add(-1*time.Hour)),
		core.BuildBookStockSet(bookID, 6, now),
	}

	// act
	catalog := catalogsearch.Project(tail, 4, base)

	// assert - same result as a full projection
	require.Len(t, catalog.Books, 1)
	assert.Equal(t, 6, catalog.Books[0].TotalStock)
	assert.Equal(t, 1, catalog.Books[0].HolderCount)
	assert.Equal(t, uint(4), catalog.SequenceNumber)
}

func Test_Search_FiltersByGenreAndTitleSubstring(t *testing.T) {
	// arrange
	now := time.Now()

	events := []core.DomainEvent{
		core.BuildBookPublished(uuid.New(), "Distributed Systems", "Software", uuid.New(), 3, now),
		core.BuildBookPublished(uuid.New(), "Database Internals", "Software", uuid.New(), 2, now),
		core.BuildBookPublished(uuid.New(), "Gardening Systems", "Nature", uuid.New(), 1, now),
	}

	catalog := catalogsearch.Project(events, 3)

	// act
	page := catalogsearch.Search(catalog, catalogsearch.BuildQuery(
		catalogsearch.Filter{Genre: "Software", TitleContains: "systems"}, 0, 10))

	// assert - substring match is case-insensitive, genre match is exact
	require.Equal(t, 1, page.TotalMatches)
	assert.Equal(t, "Distributed Systems", page.Books[0].Title)
}

func Test_Search_PaginatesAndCountsAllMatches(t *testing.T) {
	// arrange
	now := time.Now()
	titles := []string{"A", "B", "C", "D", "E"}

	events := make([]core.DomainEvent, 0, len(titles))
	for _, title := range titles {
		events = append(events,
			core.BuildBookPublished(uuid.New(), title, "Software", uuid.New(), 1, now))
	}

	catalog := catalogsearch.Project(events, 5)

	// act
	page := catalogsearch.Search(catalog, catalogsearch.BuildQuery(catalogsearch.Filter{}, 2, 2))

	// assert
	assert.Equal(t, 5, page.TotalMatches)
	require.Len(t, page.Books, 2)
	assert.Equal(t, "C", page.Books[0].Title)
	assert.Equal(t, "D", page.Books[1].Title)
}

func Test_Search_OffsetBeyondMatchesYieldsEmptyPage(t *testing.T) {
	// arrange
	catalog := catalogsearch.Project([]core.DomainEvent{
		core.BuildBookPublished(uuid.New(), "Only One", "Software", uuid.New(), 1, time.Now()),
	}, 1)

	// act
	page := catalogsearch.Search(catalog, catalogsearch.BuildQuery(catalogsearch.Filter{}, 10, 10))

	// assert
	assert.Equal(t, 1, page.TotalMatches)
	assert.Empty(t, page.Books)
}

func Test_Search_ClampsNegativeOffsetAndLimit(t *testing.T) {
	// arrange
	catalog := catalogsearch.Project([]core.DomainEvent{
		core.BuildBookPublished(uuid.New(), "Accelerate", "Software", uuid.New(), 2, time.Now()),
		core.BuildBookPublished(uuid.New(), "Build", "Software", uuid.New(), 1, time.Now()),
	}, 2)

	// act - Query built directly, bypassing BuildQuery's normalization
	negativeOffset := catalogsearch.Search(catalog, catalogsearch.Query{Offset: -1, Limit: 10})
	negativeLimit := catalogsearch.Search(catalog, catalogsearch.Query{Offset: 0, Limit: -5})

	// assert
	assert.Equal(t, 2, negativeOffset.TotalMatches)
	assert.Len(t, negativeOffset.Books, 2)
	assert.Equal(t, 2, negativeLimit.TotalMatches)
	assert.Empty(t, negativeLimit.Books)
}

func Test_Search_NeverShowsNegativeAvailability(t *testing.T) {
	// arrange - stock and holders projected from the same committed events
	now := time.Now()
	bookID := uuid.New()
	readerID := uuid.New()

	events := []core.DomainEvent{
		core.BuildBookPublished(bookID, "Tight Stock", "Software", uuid.New(), 1, now.Add(-2*time.Hour)),
		core.BuildReaderRegistered(readerID, "Reader", now.Add(-2*time.Hour)),
		core.BuildBookCopyBorrowed(bookID, readerID, now.Add(-1*time.Hour)),
	}

	catalog := catalogsearch.Project(events, 3)

	// act
	page := catalogsearch.Search(catalog, catalogsearch.BuildQuery(catalogsearch.Filter{}, 0, 10))

	// assert
	require.Equal(t, 1, page.TotalMatches)
	assert.Equal(t, 0, page.Books[0].Available)
}
