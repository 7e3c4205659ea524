package bookavailability_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/features/query/bookavailability"
)

func Test_Project_ReportsStockAndAvailability(t *testing.T) {
	// arrange
	bookID := uuid.New()
	firstReaderID := uuid.New()
	secondReaderID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		core.BuildBookPublished(bookID, "The Availability", "Software", uuid.New(), 5, now.Add(-4*time.Hour)),
		core.BuildReaderRegistered(firstReaderID, "First", now.Add(-3*time.Hour)),
		core.BuildReaderRegistered(secondReaderID, "Second", now.Add(-3*time.Hour)),
		core.BuildBookCopyBorrowed(bookID, firstReaderID, now.Add(-2*time.Hour)),
		core.BuildBookCopyBorrowed(bookID, secondReaderID, now.Add(-1*time.Hour)),
	}

	// act
	result, err := bookavailability.Project(events, bookavailability.BuildQuery(bookID))

	// assert
	require.NoError(t, err)
	assert.Equal(t, "The Availability", result.Title)
	assert.Equal(t, 5, result.TotalStock)
	assert.Equal(t, 3, result.Available)
}

func Test_Project_ReflectsStockEditsAndReturns(t *testing.T) {
	// arrange
	bookID := uuid.New()
	readerID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		core.BuildBookPublished(bookID, "Title", "Genre", uuid.New(), 2, now.Add(-5*time.Hour)),
		core.BuildReaderRegistered(readerID, "Reader", now.Add(-4*time.Hour)),
		core.BuildBookCopyBorrowed(bookID, readerID, now.Add(-3*time.Hour)),
		core.BuildBookStockSet(bookID, 7, now.Add(-2*time.Hour)),
		core.BuildBookCopyReturned(bookID, readerID, now.Add(-1*time.Hour)),
	}

	// act
	result, err := bookavailability.Project(events, bookavailability.BuildQuery(bookID))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 7, result.TotalStock)
	assert.Equal(t, 7, result.Available)
}

func Test_Project_FailsForUnknownBook(t *testing.T) {
	// act
	_, err := bookavailability.Project(nil, bookavailability.BuildQuery(uuid.New()))

	// assert
	assert.ErrorIs(t, err, core.ErrBookNotFound)
}

func Test_Project_FailsForWithdrawnBook(t *testing.T) {
	// arrange
	bookID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		core.BuildBookPublished(bookID, "Title", "Genre", uuid.New(), 2, now.Add(-2*time.Hour)),
		core.BuildBookWithdrawn(bookID, now.Add(-1*time.Hour)),
	}

	// act
	_, err := bookavailability.Project(events, bookavailability.BuildQuery(bookID))

	// assert
	assert.ErrorIs(t, err, core.ErrBookNotFound)
}
