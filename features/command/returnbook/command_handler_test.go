package returnbook_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/features/command/borrowbook"
	"github.com/openshelf/circulation-go/features/command/returnbook"
	"github.com/openshelf/circulation-go/testutil/fixtures"
	"github.com/openshelf/circulation-go/testutil/memoryjournal"
)

func Test_CommandHandler_ReturnRestoresAvailability(t *testing.T) {
	// arrange
	ctx := context.Background()
	bookID := uuid.New()
	readerID := uuid.New()

	j := memoryjournal.New()
	fixtures.SeedEvents(t, j,
		fixtures.GivenBookPublished(bookID, 2),
		fixtures.GivenReaderRegistered(readerID),
		fixtures.GivenBookCopyBorrowed(bookID, readerID),
	)

	handler := returnbook.NewCommandHandler(j)

	// act
	result, err := handler.Handle(ctx, returnbook.BuildCommand(bookID, readerID, time.Now()))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.Availability.TotalStock)
	assert.Equal(t, 2, result.Availability.Available)
}

func Test_CommandHandler_ReturnOfNonHeldBookAppendsNothing(t *testing.T) {
	// arrange
	ctx := context.Background()
	bookID := uuid.New()
	readerID := uuid.New()

	j := memoryjournal.New()
	fixtures.SeedEvents(t, j,
		fixtures.GivenBookPublished(bookID, 2),
		fixtures.GivenReaderRegistered(readerID),
	)
	entriesBefore := j.EntryCount()

	handler := returnbook.NewCommandHandler(j)

	// act - twice, both must fail identically with no journal growth
	_, firstErr := handler.Handle(ctx, returnbook.BuildCommand(bookID, readerID, time.Now()))
	_, secondErr := handler.Handle(ctx, returnbook.BuildCommand(bookID, readerID, time.Now()))

	// assert
	assert.ErrorIs(t, firstErr, core.ErrNotBorrowed)
	assert.ErrorIs(t, secondErr, core.ErrNotBorrowed)
	assert.Equal(t, entriesBefore, j.EntryCount())
}

func Test_CommandHandler_BorrowThenReturnRoundTrip(t *testing.T) {
	// arrange
	ctx := context.Background()
	bookID := uuid.New()
	readerID := uuid.New()

	j := memoryjournal.New()
	fixtures.SeedEvents(t, j,
		fixtures.GivenBookPublished(bookID, 3),
		fixtures.GivenReaderRegistered(readerID),
	)

	borrowHandler := borrowbook.NewCommandHandler(j)
	returnHandler := returnbook.NewCommandHandler(j)

	// act
	borrowed, err := borrowHandler.Handle(ctx, borrowbook.BuildCommand(bookID, readerID, time.Now()))
	require.NoError(t, err)
	require.Equal(t, 2, borrowed.Availability.Available)

	returned, err := returnHandler.Handle(ctx, returnbook.BuildCommand(bookID, readerID, time.Now()))

	// assert - the round trip restores full availability
	require.NoError(t, err)
	assert.Equal(t, 3, returned.Availability.Available)
	assert.Equal(t, 3, returned.Availability.TotalStock)
}
