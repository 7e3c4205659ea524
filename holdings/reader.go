package holdings

import (
	"slices"
	"time"

	"github.com/openshelf/circulation-go/core"
)

// BorrowLimit is the maximum number of distinct titles a single reader may hold concurrently.
const BorrowLimit = 5

// HeldBook is one entry of a reader's held-book set.
type HeldBook struct {
	BookID     core.BookIDString
	BorrowedAt time.Time
}

// Reader is the projected holdings state for a single reader.
type Reader struct {
	id         core.ReaderIDString
	name       string
	held       map[core.BookIDString]time.Time
	registered bool
}

// ProjectReader folds the event history into the holdings state of the given reader.
// Events concerning other readers are ignored.
func ProjectReader(history core.DomainEvents, readerID core.ReaderIDString) Reader {
	reader := Reader{
		id:   readerID,
		held: make(map[core.BookIDString]time.Time),
	}

	for _, event := range history {
		switch e := event.(type) {
		case core.ReaderRegistered:
			if e.ReaderID == readerID {
				reader.registered = true
				reader.name = e.Name
			}

		case core.ReaderDeregistered:
			if e.ReaderID == readerID {
				reader.registered = false
			}

		case core.BookCopyBorrowed:
			if e.ReaderID == readerID {
				reader.held[e.BookID] = e.OccurredAt
			}

		case core.BookCopyReturned:
			if e.ReaderID == readerID {
				delete(reader.held, e.BookID)
			}
		}
	}

	return reader
}

// Registered reports whether the reader is currently registered.
func (r Reader) Registered() bool {
	return r.registered
}

// ID returns the reader identifier this projection was built for.
func (r Reader) ID() core.ReaderIDString {
	return r.id
}

// Name returns the reader's name.
func (r Reader) Name() string {
	return r.name
}

// Holds reports whether the reader currently holds a copy of the given title.
func (r Reader) Holds(bookID core.BookIDString) bool {
	_, held := r.held[bookID]
	return held
}

// HeldCount returns the number of titles the reader currently holds.
func (r Reader) HeldCount() int {
	return len(r.held)
}

// HeldBooks returns the reader's held-book set sorted by borrow time, oldest
// first, with the book ID as tie-breaker.
func (r Reader) HeldBooks() []HeldBook {
	heldBooks := make([]HeldBook, 0, len(r.held))
	for bookID, borrowedAt := range r.held {
		heldBooks = append(heldBooks, HeldBook{BookID: bookID, BorrowedAt: borrowedAt})
	}

	slices.SortFunc(heldBooks, func(a, b HeldBook) int {
		if c := a.BorrowedAt.Compare(b.BorrowedAt); c != 0 {
			return c
		}

		return slices.Compare([]byte(a.BookID), []byte(b.BookID))
	})

	return heldBooks
}

// AddHeld validates adding the given title to the reader's held set.
// It has no side effects; committing the transition is the caller's concern.
func (r Reader) AddHeld(bookID core.BookIDString) error {
	if !r.registered {
		return core.ErrReaderNotFound
	}

	if r.Holds(bookID) {
		return core.ErrAlreadyBorrowed
	}

	if len(r.held) >= BorrowLimit {
		return core.ErrBorrowLimitReached
	}

	return nil
}

// RemoveHeld validates removing the given title from the reader's held set.
func (r Reader) RemoveHeld(bookID core.BookIDString) error {
	if !r.registered {
		return core.ErrReaderNotFound
	}

	if !r.Holds(bookID) {
		return core.ErrNotBorrowed
	}

	return nil
}
