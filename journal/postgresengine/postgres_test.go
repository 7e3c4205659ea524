package postgresengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/journal"
	"github.com/openshelf/circulation-go/shell"
	"github.com/openshelf/circulation-go/testutil/fixtures"
	"github.com/openshelf/circulation-go/testutil/postgreswrapper"
)

func Test_Postgres_Append_WhenStreamIsEmpty(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	postgreswrapper.CleanUp(t, wrapper)
	circulationJournal := wrapper.GetJournal()

	// arrange
	bookID := uuid.New()
	selector := givenBookSelector(bookID)
	_, maxSequenceNumber, err := circulationJournal.Read(ctx, selector)
	require.NoError(t, err)
	require.Equal(t, journal.SequenceNumber(0), maxSequenceNumber)

	// act
	err = circulationJournal.Append(ctx, selector, maxSequenceNumber,
		givenEntry(t, fixtures.GivenBookPublished(bookID, 3)))

	// assert
	assert.NoError(t, err, "error in appending the entry")
}

func Test_Postgres_Append_WhenStreamHasEntries(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	postgreswrapper.CleanUp(t, wrapper)
	circulationJournal := wrapper.GetJournal()

	// arrange
	bookID := uuid.New()
	readerID := uuid.New()
	fixtures.SeedEvents(t, circulationJournal,
		fixtures.GivenBookPublished(bookID, 3),
	)
	selector := givenBookSelector(bookID)
	_, maxSequenceNumber, err := circulationJournal.Read(ctx, selector)
	require.NoError(t, err)

	// act
	err = circulationJournal.Append(ctx, selector, maxSequenceNumber,
		givenEntry(t, fixtures.GivenBookCopyBorrowed(bookID, readerID)))

	// assert
	assert.NoError(t, err, "error in appending the entry")
}

func Test_Postgres_Append_WhenConcurrentAppendMovedTheStream(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	postgreswrapper.CleanUp(t, wrapper)
	circulationJournal := wrapper.GetJournal()

	// arrange
	bookID := uuid.New()
	readerID := uuid.New()
	otherReaderID := uuid.New()
	fixtures.SeedEvents(t, circulationJournal,
		fixtures.GivenBookPublished(bookID, 3),
	)
	selector := givenBookSelector(bookID)
	_, staleSequenceNumber, err := circulationJournal.Read(ctx, selector)
	require.NoError(t, err)

	// concurrent append moves the stream past the observed sequence
	fixtures.SeedEvents(t, circulationJournal,
		fixtures.GivenBookCopyBorrowed(bookID, otherReaderID),
	)

	// act
	err = circulationJournal.Append(ctx, selector, staleSequenceNumber,
		givenEntry(t, fixtures.GivenBookCopyBorrowed(bookID, readerID)))

	// assert
	assert.Error(t, err)
	assert.ErrorIs(t, err, journal.ErrConflict)

	entries, _, readErr := circulationJournal.Read(ctx, selector)
	require.NoError(t, readErr)
	assert.Len(t, entries, 2, "the conflicting entry must not be written")
}

func Test_Postgres_Append_MultipleEntriesAtOnce(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	postgreswrapper.CleanUp(t, wrapper)
	circulationJournal := wrapper.GetJournal()

	// arrange
	bookID := uuid.New()
	readerID := uuid.New()
	selector := givenBookSelector(bookID)

	// act
	err := circulationJournal.Append(ctx, selector, 0,
		givenEntry(t, fixtures.GivenBookPublished(bookID, 3)),
		givenEntry(t, fixtures.GivenBookCopyBorrowed(bookID, readerID)),
	)

	// assert
	require.NoError(t, err, "error in appending the entries")

	entries, maxSequenceNumber, readErr := circulationJournal.Read(ctx, selector)
	require.NoError(t, readErr)
	assert.Len(t, entries, 2)
	assert.Equal(t, journal.SequenceNumber(2), maxSequenceNumber)
}

func Test_Postgres_Read_OnlyReturnsMatchingEntries(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	postgreswrapper.CleanUp(t, wrapper)
	circulationJournal := wrapper.GetJournal()

	// arrange
	bookID := uuid.New()
	otherBookID := uuid.New()
	fixtures.SeedEvents(t, circulationJournal,
		fixtures.GivenBookPublished(bookID, 3),
		fixtures.GivenBookPublished(otherBookID, 5),
	)

	// act
	entries, _, err := circulationJournal.Read(ctx, givenBookSelector(bookID))

	// assert
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, core.BookPublishedEventType, entries[0].EntryType)
}

func Test_Postgres_Read_WithAfterSequenceBound(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	postgreswrapper.CleanUp(t, wrapper)
	circulationJournal := wrapper.GetJournal()

	// arrange
	bookID := uuid.New()
	readerID := uuid.New()
	selector := givenBookSelector(bookID)
	fixtures.SeedEvents(t, circulationJournal,
		fixtures.GivenBookPublished(bookID, 3),
	)
	_, sequenceAfterFirst, err := circulationJournal.Read(ctx, selector)
	require.NoError(t, err)

	fixtures.SeedEvents(t, circulationJournal,
		fixtures.GivenBookCopyBorrowed(bookID, readerID),
	)

	// act - only the tail after the first read
	entries, _, err := circulationJournal.Read(ctx, selector.AfterSequence(sequenceAfterFirst))

	// assert
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, core.BookCopyBorrowedEventType, entries[0].EntryType)
}

func Test_Postgres_Snapshot_RoundTrip(t *testing.T) {
	// setup
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := postgreswrapper.CreateWrapperWithTestConfig(t)
	defer wrapper.Close()
	postgreswrapper.CleanUp(t, wrapper)
	circulationJournal := wrapper.GetJournal()

	selectorHash := givenBookSelector(uuid.New()).Hash()

	snapshot, err := journal.BuildSnapshot(
		"BookAvailability", selectorHash, 7, []byte(`{"totalStock":3,"available":2}`))
	require.NoError(t, err)

	// act
	require.NoError(t, circulationJournal.SaveSnapshot(ctx, snapshot))
	loaded, err := circulationJournal.LoadSnapshot(ctx, "BookAvailability", selectorHash)

	// assert
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, journal.SequenceNumber(7), loaded.SequenceNumber)
	assert.JSONEq(t, `{"totalStock":3,"available":2}`, string(loaded.Data))

	// replacing an existing snapshot keeps one row per projection and selector
	replacement, err := journal.BuildSnapshot(
		"BookAvailability", selectorHash, 9, []byte(`{"totalStock":3,"available":1}`))
	require.NoError(t, err)
	require.NoError(t, circulationJournal.SaveSnapshot(ctx, replacement))

	loaded, err = circulationJournal.LoadSnapshot(ctx, "BookAvailability", selectorHash)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, journal.SequenceNumber(9), loaded.SequenceNumber)

	// delete, then a miss returns nil without error
	require.NoError(t, circulationJournal.DeleteSnapshot(ctx, "BookAvailability", selectorHash))
	loaded, err = circulationJournal.LoadSnapshot(ctx, "BookAvailability", selectorHash)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func givenBookSelector(bookID uuid.UUID) journal.Selector {
	return journal.BuildSelector().
		Matching().
		AnyEntryTypeOf(
			core.BookPublishedEventType,
			core.BookStockSetEventType,
			core.BookWithdrawnEventType,
			core.BookCopyBorrowedEventType,
			core.BookCopyReturnedEventType,
		).
		AndAnyPredicateOf(journal.P("BookID", bookID.String())).
		Finalize()
}

func givenEntry(t *testing.T, event core.DomainEvent) journal.Entry {
	t.Helper()

	entry, err := shell.EntryFrom(event, shell.BuildCommandMetadata())
	require.NoError(t, err)

	return entry
}
