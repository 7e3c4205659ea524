package relay_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/relay"
)

func Test_RoutingKeyFor_MapsEveryEventType(t *testing.T) {
	// arrange
	bookID := uuid.New()
	readerID := uuid.New()
	now := time.Now()

	testCases := []struct {
		event       core.DomainEvent
		expectedKey string
	}{
		{core.BuildBookPublished(bookID, "T", "G", uuid.New(), 1, now), "circulation.book.published"},
		{core.BuildBookStockSet(bookID, 2, now), "circulation.book.stock_set"},
		{core.BuildBookWithdrawn(bookID, now), "circulation.book.withdrawn"},
		{core.BuildBookCopyBorrowed(bookID, readerID, now), "circulation.book.borrowed"},
		{core.BuildBookCopyReturned(bookID, readerID, now), "circulation.book.returned"},
		{core.BuildReaderRegistered(readerID, "N", now), "circulation.reader.registered"},
		{core.BuildReaderDeregistered(readerID, now), "circulation.reader.deregistered"},
	}

	for _, tc := range testCases {
		t.Run(tc.expectedKey, func(t *testing.T) {
			// act + assert
			assert.Equal(t, tc.expectedKey, relay.RoutingKeyFor(tc.event))
		})
	}
}

func Test_NewRabbitRelay_EmptyURLDisablesTheRelay(t *testing.T) {
	// act
	r, err := relay.NewRabbitRelay("", "circulation", nil)

	// assert
	require.NoError(t, err)
	require.Nil(t, r)

	// a nil relay must be safe to notify and to close
	r.OnCommit(context.Background(), core.BuildBookWithdrawn(uuid.New(), time.Now()))
	assert.NoError(t, r.Close())
}
