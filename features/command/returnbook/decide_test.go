package returnbook_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/features/command/returnbook"
)

func Test_Decide_Success_WhenReaderHoldsTheBook(t *testing.T) {
	// arrange
	bookID := uuid.New()
	readerID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		givenBookPublished(t, bookID, 2, now.Add(-3*time.Hour)),
		givenReaderRegistered(t, readerID, now.Add(-2*time.Hour)),
		givenBookCopyBorrowed(t, bookID, readerID, now.Add(-1*time.Hour)),
	}

	command := returnbook.BuildCommand(bookID, readerID, now)

	// act
	decision := returnbook.Decide(events, command)

	// assert
	assert.True(t, decision.Accepted())

	returnedEvent, ok := decision.Event().(core.BookCopyReturned)
	assert.True(t, ok, "Expected BookCopyReturned event")
	assert.Equal(t, bookID.String(), returnedEvent.BookID)
	assert.Equal(t, readerID.String(), returnedEvent.ReaderID)
}

func Test_Decide_Rejects_WhenBookNotBorrowed(t *testing.T) {
	// arrange
	bookID := uuid.New()
	readerID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		givenBookPublished(t, bookID, 2, now.Add(-3*time.Hour)),
		givenReaderRegistered(t, readerID, now.Add(-2*time.Hour)),
	}

	command := returnbook.BuildCommand(bookID, readerID, now)

	// act
	decision := returnbook.Decide(events, command)

	// assert
	assertRejectedDecision(t, decision, core.ErrNotBorrowed)
}

func Test_Decide_Rejects_WhenBookAlreadyReturned(t *testing.T) {
	// arrange
	bookID := uuid.New()
	readerID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		givenBookPublished(t, bookID, 2, now.Add(-4*time.Hour)),
		givenReaderRegistered(t, readerID, now.Add(-3*time.Hour)),
		givenBookCopyBorrowed(t, bookID, readerID, now.Add(-2*time.Hour)),
		core.BuildBookCopyReturned(bookID, readerID, now.Add(-1*time.Hour)),
	}

	command := returnbook.BuildCommand(bookID, readerID, now)

	// act - returning twice fails identically the second time
	decision := returnbook.Decide(events, command)

	// assert
	assertRejectedDecision(t, decision, core.ErrNotBorrowed)
}

func Test_Decide_Rejects_WhenReaderNotRegistered(t *testing.T) {
	// arrange
	bookID := uuid.New()
	readerID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		givenBookPublished(t, bookID, 2, now.Add(-3*time.Hour)),
	}

	command := returnbook.BuildCommand(bookID, readerID, now)

	// act
	decision := returnbook.Decide(events, command)

	// assert
	assertRejectedDecision(t, decision, core.ErrReaderNotFound)
}

func Test_Decide_Rejects_WhenBookNotInCatalog(t *testing.T) {
	// arrange
	bookID := uuid.New()
	readerID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		givenReaderRegistered(t, readerID, now.Add(-2*time.Hour)),
	}

	command := returnbook.BuildCommand(bookID, readerID, now)

	// act
	decision := returnbook.Decide(events, command)

	// assert
	assertRejectedDecision(t, decision, core.ErrBookNotFound)
}

func givenBookPublished(t *testing.T, bookID uuid.UUID, totalStock int, at time.Time) core.DomainEvent {
	t.Helper()
	return core.BuildBookPublished(bookID, "Test Title", "Test Genre", uuid.New(), totalStock, at)
}

func givenReaderRegistered(t *testing.T, readerID uuid.UUID, at time.Time) core.DomainEvent {
	t.Helper()
	return core.BuildReaderRegistered(readerID, "Test Reader", at)
}

func givenBookCopyBorrowed(t *testing.T, bookID, readerID uuid.UUID, at time.Time) core.DomainEvent {
	t.Helper()
	return core.BuildBookCopyBorrowed(bookID, readerID, at)
}

func assertRejectedDecision(t *testing.T, decision core.Decision, expectedErr error) {
	t.Helper()
	assert.False(t, decision.Accepted(), "Expected rejected decision")
	assert.Nil(t, decision.Event(), "Rejected decision must not carry an event")
	assert.ErrorIs(t, decision.Err(), expectedErr)
}
