package borrowbook_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/features/command/borrowbook"
	"github.com/openshelf/circulation-go/shell"
	"github.com/openshelf/circulation-go/testutil/fixtures"
	"github.com/openshelf/circulation-go/testutil/memoryjournal"
)

func Test_CommandHandler_BorrowsACopyAndReportsAvailability(t *testing.T) {
	// arrange
	ctx := context.Background()
	bookID := uuid.New()
	readerID := uuid.New()

	j := memoryjournal.New()
	fixtures.SeedEvents(t, j,
		fixtures.GivenBookPublished(bookID, 3),
		fixtures.GivenReaderRegistered(readerID),
	)

	handler := borrowbook.NewCommandHandler(j)

	// act
	result, err := handler.Handle(ctx, borrowbook.BuildCommand(bookID, readerID, time.Now()))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 3, result.Availability.TotalStock)
	assert.Equal(t, 2, result.Availability.Available)
	assert.Equal(t, 1, result.Execution.RetryStats.Attempts)
	assert.Equal(t, 3, j.EntryCount())
}

func Test_CommandHandler_RejectionAppendsNothing(t *testing.T) {
	// arrange
	ctx := context.Background()
	bookID := uuid.New()
	readerID := uuid.New()

	j := memoryjournal.New()
	fixtures.SeedEvents(t, j, fixtures.GivenReaderRegistered(readerID))
	entriesBefore := j.EntryCount()

	handler := borrowbook.NewCommandHandler(j)

	// act
	_, err := handler.Handle(ctx, borrowbook.BuildCommand(bookID, readerID, time.Now()))

	// assert
	assert.ErrorIs(t, err, core.ErrBookNotFound)
	assert.Equal(t, entriesBefore, j.EntryCount())
}

func Test_CommandHandler_SecondBorrowOfSameTitleIsRejected(t *testing.T) {
	// arrange
	ctx := context.Background()
	bookID := uuid.New()
	readerID := uuid.New()

	j := memoryjournal.New()
	fixtures.SeedEvents(t, j,
		fixtures.GivenBookPublished(bookID, 3),
		fixtures.GivenReaderRegistered(readerID),
	)

	handler := borrowbook.NewCommandHandler(j)

	first, err := handler.Handle(ctx, borrowbook.BuildCommand(bookID, readerID, time.Now()))
	require.NoError(t, err)
	require.Equal(t, 2, first.Availability.Available)
	entriesAfterFirst := j.EntryCount()

	// act
	_, err = handler.Handle(ctx, borrowbook.BuildCommand(bookID, readerID, time.Now()))

	// assert - availability unchanged, nothing appended
	assert.ErrorIs(t, err, core.ErrAlreadyBorrowed)
	assert.Equal(t, entriesAfterFirst, j.EntryCount())
}

func Test_CommandHandler_TwoReadersRaceForLastCopy_ExactlyOneWins(t *testing.T) {
	// arrange
	ctx := context.Background()
	bookID := uuid.New()
	firstReaderID := uuid.New()
	secondReaderID := uuid.New()

	j := memoryjournal.New()
	fixtures.SeedEvents(t, j,
		fixtures.GivenBookPublished(bookID, 1),
		fixtures.GivenReaderRegistered(firstReaderID),
		fixtures.GivenReaderRegistered(secondReaderID),
	)

	handler := borrowbook.NewCommandHandler(j)

	// act - both readers try to borrow the last copy concurrently
	var wg sync.WaitGroup
	errs := make([]error, 2)

	for i, readerID := range []uuid.UUID{firstReaderID, secondReaderID} {
		wg.Add(1)
		go func(idx int, rid uuid.UUID) {
			defer wg.Done()
			_, errs[idx] = handler.Handle(ctx, borrowbook.BuildCommand(bookID, rid, time.Now()))
		}(i, readerID)
	}
	wg.Wait()

	// assert - exactly one borrow committed, the other saw the empty shelf
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, core.ErrOutOfStock)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 4, j.EntryCount())
}

func Test_CommandHandler_NotifiesCommitListener(t *testing.T) {
	// arrange
	ctx := context.Background()
	bookID := uuid.New()
	readerID := uuid.New()

	j := memoryjournal.New()
	fixtures.SeedEvents(t, j,
		fixtures.GivenBookPublished(bookID, 1),
		fixtures.GivenReaderRegistered(readerID),
	)

	listener := &recordingListener{}
	handler := borrowbook.NewCommandHandler(j, borrowbook.WithCommitListener(listener))

	// act
	_, err := handler.Handle(ctx, borrowbook.BuildCommand(bookID, readerID, time.Now()))

	// assert
	require.NoError(t, err)
	require.Len(t, listener.events, 1)
	assert.Equal(t, core.BookCopyBorrowedEventType, listener.events[0].EventType())
}

func Test_CommandHandler_DoesNotNotifyListenerOnRejection(t *testing.T) {
	// arrange
	ctx := context.Background()
	bookID := uuid.New()
	readerID := uuid.New()

	j := memoryjournal.New()

	listener := &recordingListener{}
	handler := borrowbook.NewCommandHandler(j, borrowbook.WithCommitListener(listener))

	// act
	_, err := handler.Handle(ctx, borrowbook.BuildCommand(bookID, readerID, time.Now()))

	// assert
	assert.ErrorIs(t, err, core.ErrReaderNotFound)
	assert.Empty(t, listener.events)
}

type recordingListener struct {
	mu     sync.Mutex
	events []core.DomainEvent
}

func (l *recordingListener) OnCommit(_ context.Context, event core.DomainEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, event)
}

var _ shell.CommitListener = (*recordingListener)(nil)
