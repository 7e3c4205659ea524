package setbookstock_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/features/command/setbookstock"
	"github.com/openshelf/circulation-go/testutil/fixtures"
	"github.com/openshelf/circulation-go/testutil/memoryjournal"
)

func Test_CommandHandler_SetsStockAndReportsAvailability(t *testing.T) {
	// arrange
	ctx := context.Background()
	bookID := uuid.New()
	readerID := uuid.New()

	j := memoryjournal.New()
	fixtures.SeedEvents(t, j,
		fixtures.GivenBookPublished(bookID, 3),
		fixtures.GivenReaderRegistered(readerID),
		fixtures.GivenBookCopyBorrowed(bookID, readerID),
	)

	handler := setbookstock.NewCommandHandler(j)

	// act
	result, err := handler.Handle(ctx, setbookstock.BuildCommand(bookID, 10, time.Now()))

	// assert - availability recomputed from the new total minus held copies
	require.NoError(t, err)
	assert.Equal(t, 10, result.Availability.TotalStock)
	assert.Equal(t, 9, result.Availability.Available)
}

func Test_CommandHandler_CutBelowHolderCountLeavesStockUnchanged(t *testing.T) {
	// arrange
	ctx := context.Background()
	bookID := uuid.New()
	readerID := uuid.New()
	otherReaderID := uuid.New()

	j := memoryjournal.New()
	fixtures.SeedEvents(t, j,
		fixtures.GivenBookPublished(bookID, 5),
		fixtures.GivenReaderRegistered(readerID),
		fixtures.GivenReaderRegistered(otherReaderID),
		fixtures.GivenBookCopyBorrowed(bookID, readerID),
		fixtures.GivenBookCopyBorrowed(bookID, otherReaderID),
	)
	entriesBefore := j.EntryCount()

	handler := setbookstock.NewCommandHandler(j)

	// act
	_, err := handler.Handle(ctx, setbookstock.BuildCommand(bookID, 1, time.Now()))

	// assert
	assert.ErrorIs(t, err, core.ErrStockBelowHeldCount)
	assert.Equal(t, entriesBefore, j.EntryCount())
}
