package catalogsearch_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/circulation-go/features/command/borrowbook"
	"github.com/openshelf/circulation-go/features/query/catalogsearch"
	"github.com/openshelf/circulation-go/journal"
	"github.com/openshelf/circulation-go/testutil/fixtures"
	"github.com/openshelf/circulation-go/testutil/memoryjournal"
)

func Test_QueryHandler_SearchesTheCatalog(t *testing.T) {
	// arrange
	ctx := context.Background()
	bookID := uuid.New()

	j := memoryjournal.New()
	fixtures.SeedEvents(t, j, fixtures.GivenBookPublished(bookID, 3))

	handler, err := catalogsearch.NewQueryHandler(j)
	require.NoError(t, err)

	// act
	page, err := handler.Handle(ctx, catalogsearch.BuildQuery(catalogsearch.Filter{}, 0, 10))

	// assert
	require.NoError(t, err)
	require.Equal(t, 1, page.TotalMatches)
	assert.Equal(t, bookID.String(), page.Books[0].BookID)
	assert.Equal(t, 3, page.Books[0].Available)
}

func Test_QueryHandler_CommitPurgesResultCache(t *testing.T) {
	// arrange
	ctx := context.Background()
	bookID := uuid.New()
	readerID := uuid.New()

	j := memoryjournal.New()
	fixtures.SeedEvents(t, j,
		fixtures.GivenBookPublished(bookID, 2),
		fixtures.GivenReaderRegistered(readerID),
	)

	searchHandler, err := catalogsearch.NewQueryHandler(j, catalogsearch.WithResultCache(16))
	require.NoError(t, err)

	query := catalogsearch.BuildQuery(catalogsearch.Filter{}, 0, 10)

	before, err := searchHandler.Handle(ctx, query)
	require.NoError(t, err)
	require.Equal(t, 2, before.Books[0].Available)

	// act - a borrow committed through the listener wiring must be visible
	borrowHandler := borrowbook.NewCommandHandler(j, borrowbook.WithCommitListener(searchHandler))
	_, err = borrowHandler.Handle(ctx, borrowbook.BuildCommand(bookID, readerID, time.Now()))
	require.NoError(t, err)

	after, err := searchHandler.Handle(ctx, query)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, after.Books[0].Available)
}

func Test_QueryHandler_UsesSnapshotAndTailReads(t *testing.T) {
	// arrange
	ctx := context.Background()
	firstBookID := uuid.New()
	secondBookID := uuid.New()

	j := memoryjournal.New()
	fixtures.SeedEvents(t, j, fixtures.GivenBookPublished(firstBookID, 1))

	snapshots := &memorySnapshotStore{}
	handler, err := catalogsearch.NewQueryHandler(j, catalogsearch.WithSnapshots(snapshots))
	require.NoError(t, err)

	query := catalogsearch.BuildQuery(catalogsearch.Filter{}, 0, 10)

	first, err := handler.Handle(ctx, query)
	require.NoError(t, err)
	require.Equal(t, 1, first.TotalMatches)
	require.Equal(t, 1, snapshots.saveCount, "first search must persist a snapshot")

	fixtures.SeedEvents(t, j, fixtures.GivenBookPublished(secondBookID, 1))

	// act - second search projects the tail on top of the stored snapshot
	second, err := handler.Handle(ctx, query)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, second.TotalMatches)
	assert.Equal(t, 2, snapshots.saveCount)
}

type memorySnapshotStore struct {
	mu        sync.Mutex
	snapshots map[string]journal.Snapshot
	saveCount int
}

func (s *memorySnapshotStore) LoadSnapshot(_ context.Context, projectionType string, selectorHash string) (*journal.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, ok := s.snapshots[projectionType+"/"+selectorHash]
	if !ok {
		return nil, nil
	}

	return &snapshot, nil
}

func (s *memorySnapshotStore) SaveSnapshot(_ context.Context, snapshot journal.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshots == nil {
		s.snapshots = make(map[string]journal.Snapshot)
	}

	s.snapshots[snapshot.ProjectionType+"/"+snapshot.SelectorHash] = snapshot
	s.saveCount++

	return nil
}
