package deregisterreader_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/features/command/deregisterreader"
)

func Test_Decide_Success_WhenReaderHoldsNothing(t *testing.T) {
	// arrange
	readerID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		core.BuildReaderRegistered(readerID, "Pat Reader", now.Add(-2*time.Hour)),
	}

	command := deregisterreader.BuildCommand(readerID, now)

	// act
	decision := deregisterreader.Decide(events, command)

	// assert
	assert.True(t, decision.Accepted())

	deregisteredEvent, ok := decision.Event().(core.ReaderDeregistered)
	assert.True(t, ok, "Expected ReaderDeregistered event")
	assert.Equal(t, readerID.String(), deregisteredEvent.ReaderID)
}

func Test_Decide_Success_AfterAllBooksReturned(t *testing.T) {
	// arrange
	readerID := uuid.New()
	bookID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		core.BuildReaderRegistered(readerID, "Pat Reader", now.Add(-4*time.Hour)),
		core.BuildBookPublished(bookID, "Title", "Genre", uuid.New(), 1, now.Add(-3*time.Hour)),
		core.BuildBookCopyBorrowed(bookID, readerID, now.Add(-2*time.Hour)),
		core.BuildBookCopyReturned(bookID, readerID, now.Add(-1*time.Hour)),
	}

	command := deregisterreader.BuildCommand(readerID, now)

	// act
	decision := deregisterreader.Decide(events, command)

	// assert
	assert.True(t, decision.Accepted())
}

func Test_Decide_Rejects_WhenReaderStillHoldsBooks(t *testing.T) {
	// arrange
	readerID := uuid.New()
	bookID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		core.BuildReaderRegistered(readerID, "Pat Reader", now.Add(-3*time.Hour)),
		core.BuildBookPublished(bookID, "Title", "Genre", uuid.New(), 1, now.Add(-2*time.Hour)),
		core.BuildBookCopyBorrowed(bookID, readerID, now.Add(-1*time.Hour)),
	}

	command := deregisterreader.BuildCommand(readerID, now)

	// act
	decision := deregisterreader.Decide(events, command)

	// assert
	assert.False(t, decision.Accepted())
	assert.Nil(t, decision.Event())
	assert.ErrorIs(t, decision.Err(), core.ErrReaderStillHoldsBooks)
}

func Test_Decide_Rejects_UnknownReader(t *testing.T) {
	// arrange
	command := deregisterreader.BuildCommand(uuid.New(), time.Now())

	// act
	decision := deregisterreader.Decide(nil, command)

	// assert
	assert.False(t, decision.Accepted())
	assert.ErrorIs(t, decision.Err(), core.ErrReaderNotFound)
}
