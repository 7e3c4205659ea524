package publishbook_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/features/command/publishbook"
	"github.com/openshelf/circulation-go/ledger"
)

func Test_Decide_Success_WhenBookIsNew(t *testing.T) {
	// arrange
	bookID := uuid.New()
	authorID := uuid.New()
	now := time.Now()

	command := publishbook.BuildCommand(bookID, "Effective Concurrency", "Software", authorID, 10, now)

	// act
	decision := publishbook.Decide(nil, command)

	// assert
	assert.True(t, decision.Accepted())

	publishedEvent, ok := decision.Event().(core.BookPublished)
	assert.True(t, ok, "Expected BookPublished event")
	assert.Equal(t, bookID.String(), publishedEvent.BookID)
	assert.Equal(t, "Effective Concurrency", publishedEvent.Title)
	assert.Equal(t, 10, publishedEvent.TotalStock)
}

func Test_Decide_Success_WhenBookWasWithdrawnBefore(t *testing.T) {
	// arrange
	bookID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		core.BuildBookPublished(bookID, "First Edition", "Software", uuid.New(), 5, now.Add(-2*time.Hour)),
		core.BuildBookWithdrawn(bookID, now.Add(-1*time.Hour)),
	}

	command := publishbook.BuildCommand(bookID, "Second Edition", "Software", uuid.New(), 5, now)

	// act
	decision := publishbook.Decide(events, command)

	// assert
	assert.True(t, decision.Accepted())
}

func Test_Decide_Rejects_DuplicateBookID(t *testing.T) {
	// arrange
	bookID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		core.BuildBookPublished(bookID, "Original", "Software", uuid.New(), 5, now.Add(-1*time.Hour)),
	}

	command := publishbook.BuildCommand(bookID, "Impostor", "Software", uuid.New(), 5, now)

	// act
	decision := publishbook.Decide(events, command)

	// assert
	assert.False(t, decision.Accepted())
	assert.Nil(t, decision.Event())
	assert.ErrorIs(t, decision.Err(), core.ErrBookAlreadyPublished)
}

func Test_Decide_Rejects_InvalidInitialStock(t *testing.T) {
	// arrange
	now := time.Now()

	testCases := []struct {
		name       string
		totalStock int
	}{
		{"zero stock", 0},
		{"negative stock", -1},
		{"above maximum", ledger.MaxTotalStock + 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			command := publishbook.BuildCommand(uuid.New(), "Title", "Genre", uuid.New(), tc.totalStock, now)

			// act
			decision := publishbook.Decide(nil, command)

			// assert
			assert.False(t, decision.Accepted())
			assert.ErrorIs(t, decision.Err(), core.ErrInvalidStock)
		})
	}
}
