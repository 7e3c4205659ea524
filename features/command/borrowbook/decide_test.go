package borrowbook_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/features/command/borrowbook"
	"github.com/openshelf/circulation-go/holdings"
)

func Test_Decide_Success_WhenAllPreconditionsMet(t *testing.T) {
	// arrange
	bookID := uuid.New()
	readerID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		givenBookPublished(t, bookID, 2, now.Add(-3*time.Hour)),
		givenReaderRegistered(t, readerID, now.Add(-2*time.Hour)),
	}

	command := borrowbook.BuildCommand(bookID, readerID, now)

	// act
	decision := borrowbook.Decide(events, command)

	// assert
	assertAcceptedDecision(t, decision, bookID, readerID)
}

func Test_Decide_Success_WhenReaderHasFourBooks_BorrowingFifth(t *testing.T) {
	// arrange
	bookID := uuid.New()
	readerID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		givenBookPublished(t, bookID, 1, now.Add(-10*time.Hour)),
		givenReaderRegistered(t, readerID, now.Add(-9*time.Hour)),
	}

	for i := 0; i < holdings.BorrowLimit-1; i++ {
		otherBookID := uuid.New()
		events = append(events,
			givenBookPublished(t, otherBookID, 1, now.Add(-8*time.Hour+time.Duration(i)*time.Minute)),
			givenBookCopyBorrowed(t, otherBookID, readerID, now.Add(-7*time.Hour+time.Duration(i)*time.Minute)),
		)
	}

	command := borrowbook.BuildCommand(bookID, readerID, now)

	// act
	decision := borrowbook.Decide(events, command)

	// assert
	assertAcceptedDecision(t, decision, bookID, readerID)
}

func Test_Decide_Success_AfterReturnCanBorrowAgain(t *testing.T) {
	// arrange
	bookID := uuid.New()
	readerID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		givenBookPublished(t, bookID, 1, now.Add(-5*time.Hour)),
		givenReaderRegistered(t, readerID, now.Add(-4*time.Hour)),
		givenBookCopyBorrowed(t, bookID, readerID, now.Add(-3*time.Hour)),
		givenBookCopyReturned(t, bookID, readerID, now.Add(-1*time.Hour)),
	}

	command := borrowbook.BuildCommand(bookID, readerID, now)

	// act
	decision := borrowbook.Decide(events, command)

	// assert
	assertAcceptedDecision(t, decision, bookID, readerID)
}

func Test_Decide_Rejects_WhenReaderNotRegistered(t *testing.T) {
	// arrange
	bookID := uuid.New()
	readerID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		givenBookPublished(t, bookID, 2, now.Add(-3*time.Hour)),
	}

	command := borrowbook.BuildCommand(bookID, readerID, now)

	// act
	decision := borrowbook.Decide(events, command)

	// assert
	assertRejectedDecision(t, decision, core.ErrReaderNotFound)
}

func Test_Decide_Rejects_WhenReaderDeregistered(t *testing.T) {
	// arrange
	bookID := uuid.New()
	readerID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		givenBookPublished(t, bookID, 2, now.Add(-3*time.Hour)),
		givenReaderRegistered(t, readerID, now.Add(-2*time.Hour)),
		core.BuildReaderDeregistered(readerID, now.Add(-1*time.Hour)),
	}

	command := borrowbook.BuildCommand(bookID, readerID, now)

	// act
	decision := borrowbook.Decide(events, command)

	// assert
	assertRejectedDecision(t, decision, core.ErrReaderNotFound)
}

func Test_Decide_Rejects_WhenBookDoesNotExist(t *testing.T) {
	// arrange
	bookID := uuid.New()
	readerID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		givenReaderRegistered(t, readerID, now.Add(-2*time.Hour)),
	}

	command := borrowbook.BuildCommand(bookID, readerID, now)

	// act
	decision := borrowbook.Decide(events, command)

	// assert
	assertRejectedDecision(t, decision, core.ErrBookNotFound)
}

func Test_Decide_Rejects_WhenBookWasWithdrawn(t *testing.T) {
	// arrange
	bookID := uuid.New()
	readerID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		givenBookPublished(t, bookID, 2, now.Add(-3*time.Hour)),
		givenReaderRegistered(t, readerID, now.Add(-2*time.Hour)),
		core.BuildBookWithdrawn(bookID, now.Add(-1*time.Hour)),
	}

	command := borrowbook.BuildCommand(bookID, readerID, now)

	// act
	decision := borrowbook.Decide(events, command)

	// assert
	assertRejectedDecision(t, decision, core.ErrBookNotFound)
}

func Test_Decide_Rejects_WhenReaderAlreadyHoldsACopy(t *testing.T) {
	// arrange
	bookID := uuid.New()
	readerID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		givenBookPublished(t, bookID, 5, now.Add(-3*time.Hour)),
		givenReaderRegistered(t, readerID, now.Add(-2*time.Hour)),
		givenBookCopyBorrowed(t, bookID, readerID, now.Add(-1*time.Hour)),
	}

	command := borrowbook.BuildCommand(bookID, readerID, now)

	// act
	decision := borrowbook.Decide(events, command)

	// assert - a second borrow of the same title is rejected, not a no-op
	assertRejectedDecision(t, decision, core.ErrAlreadyBorrowed)
}

func Test_Decide_Rejects_WhenBorrowLimitReached(t *testing.T) {
	// arrange
	bookID := uuid.New()
	readerID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		givenBookPublished(t, bookID, 1, now.Add(-10*time.Hour)),
		givenReaderRegistered(t, readerID, now.Add(-9*time.Hour)),
	}

	for i := 0; i < holdings.BorrowLimit; i++ {
		otherBookID := uuid.New()
		events = append(events,
			givenBookPublished(t, otherBookID, 1, now.Add(-8*time.Hour+time.Duration(i)*time.Minute)),
			givenBookCopyBorrowed(t, otherBookID, readerID, now.Add(-7*time.Hour+time.Duration(i)*time.Minute)),
		)
	}

	command := borrowbook.BuildCommand(bookID, readerID, now)

	// act
	decision := borrowbook.Decide(events, command)

	// assert
	assertRejectedDecision(t, decision, core.ErrBorrowLimitReached)
}

func Test_Decide_Rejects_WhenNoCopyAvailable(t *testing.T) {
	// arrange
	bookID := uuid.New()
	readerID := uuid.New()
	otherReaderID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		givenBookPublished(t, bookID, 1, now.Add(-3*time.Hour)),
		givenReaderRegistered(t, otherReaderID, now.Add(-2*time.Hour)),
		givenReaderRegistered(t, readerID, now.Add(-2*time.Hour)),
		givenBookCopyBorrowed(t, bookID, otherReaderID, now.Add(-1*time.Hour)),
	}

	command := borrowbook.BuildCommand(bookID, readerID, now)

	// act
	decision := borrowbook.Decide(events, command)

	// assert
	assertRejectedDecision(t, decision, core.ErrOutOfStock)
}

func Test_Decide_BookNotFoundWinsOverBorrowLimit(t *testing.T) {
	// arrange
	bookID := uuid.New()
	readerID := uuid.New()
	now := time.Now()

	events := []core.DomainEvent{
		givenReaderRegistered(t, readerID, now.Add(-9*time.Hour)),
	}

	for i := 0; i < holdings.BorrowLimit; i++ {
		otherBookID := uuid.New()
		events = append(events,
			givenBookPublished(t, otherBookID, 1, now.Add(-8*time.Hour+time.Duration(i)*time.Minute)),
			givenBookCopyBorrowed(t, otherBookID, readerID, now.Add(-7*time.Hour+time.Duration(i)*time.Minute)),
		)
	}

	command := borrowbook.BuildCommand(bookID, readerID, now)

	// act
	decision := borrowbook.Decide(events, command)

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

func givenBookCopyReturned(t *testing.T, bookID, readerID uuid.UUID, at time.Time) core.DomainEvent {
	t.Helper()
	return core.BuildBookCopyReturned(bookID, readerID, at)
}

func assertAcceptedDecision(t *testing.T, decision core.Decision, bookID, readerID uuid.UUID) {
	t.Helper()
	assert.True(t, decision.Accepted(), "Expected accepted decision")
	assert.NoError(t, decision.Err(), "Expected no error for accepted decision")

	borrowedEvent, ok := decision.Event().(core.BookCopyBorrowed)
	assert.True(t, ok, "Expected BookCopyBorrowed event")
	assert.Equal(t, bookID.String(), borrowedEvent.BookID, "Event should have correct BookID")
	assert.Equal(t, readerID.String(), borrowedEvent.ReaderID, "Event should have correct ReaderID")
}

func assertRejectedDecision(t *testing.T, decision core.Decision, expectedErr error) {
	t.Helper()
	assert.False(t, decision.Accepted(), "Expected rejected decision")
	assert.Nil(t, decision.Event(), "Rejected decision must not carry an event")
	assert.ErrorIs(t, decision.Err(), expectedErr)
}
