package ledger

import (
	"slices"

	"github.com/openshelf/circulation-go/core"
)

// MaxTotalStock is the largest total stock a single title may carry.
const MaxTotalStock = 10000

// Availability is the read model of a book's stock situation.
type Availability struct {
	TotalStock int
	Available  int
}

// Book is the projected ledger state for a single title.
type Book struct {
	id         core.BookIDString
	title      string
	genre      string
	authorID   core.AuthorIDString
	totalStock int
	holders    map[core.ReaderIDString]struct{}
	exists     bool
}

// ProjectBook folds the event history into the ledger state of the given book.
// Events concerning other books are ignored, so the same history can feed
// multiple projections.
func ProjectBook(history core.DomainEvents, bookID core.BookIDString) Book {
	book := Book{
		id:      bookID,
		holders: make(map[core.ReaderIDString]struct{}),
	}

	for _, event := range history {
		switch e := event.(type) {
		case core.BookPublished:
			if e.BookID == bookID {
				book.exists = true
				book.title = e.Title
				book.genre = e.Genre
				book.authorID = e.AuthorID
				book.totalStock = e.TotalStock
			}

		case core.BookStockSet:
			if e.BookID == bookID {
				book.totalStock = e.TotalStock
			}

		case core.BookWithdrawn:
			if e.BookID == bookID {
				book.exists = false
				book.totalStock = 0
				book.holders = make(map[core.ReaderIDString]struct{})
			}

		case core.BookCopyBorrowed:
			if e.BookID == bookID {
				book.holders[e.ReaderID] = struct{}{}
			}

		case core.BookCopyReturned:
			if e.BookID == bookID {
				delete(book.holders, e.ReaderID)
			}
		}
	}

	return book
}

// Exists reports whether the book is currently in the catalog.
func (b Book) Exists() bool {
	return b.exists
}

// ID returns the book identifier this projection was built for.
func (b Book) ID() core.BookIDString {
	return b.id
}

// Title returns the book's title.
func (b Book) Title() string {
	return b.title
}

// Genre returns the book's genre.
func (b Book) Genre() string {
	return b.genre
}

// AuthorID returns the identity of the publishing author.
func (b Book) AuthorID() core.AuthorIDString {
	return b.authorID
}

// Availability returns the book's current stock situation.
func (b Book) Availability() Availability {
	return Availability{
		TotalStock: b.totalStock,
		Available:  b.totalStock - len(b.holders),
	}
}

// HoldsCopy reports whether the given reader currently holds a copy.
func (b Book) HoldsCopy(readerID core.ReaderIDString) bool {
	_, held := b.holders[readerID]
	return held
}

// HolderCount returns the number of readers currently holding a copy.
func (b Book) HolderCount() int {
	return len(b.holders)
}

// Holders returns the identities of all current holders, sorted.
func (b Book) Holders() []core.ReaderIDString {
	holders := make([]core.ReaderIDString, 0, len(b.holders))
	for readerID := range b.holders {
		holders = append(holders, readerID)
	}
	slices.Sort(holders)

	return holders
}

// AddHolder validates lending one copy to the given reader and returns the
// availability after the transition. It has no side effects; committing the
// transition is the caller's concern.
func (b Book) AddHolder(readerID core.ReaderIDString) (Availability, error) {
	if !b.exists {
		return Availability{}, core.ErrBookNotFound
	}

	if b.HoldsCopy(readerID) {
		return Availability{}, core.ErrAlreadyBorrowed
	}

	availability := b.Availability()
	if availability.Available <= 0 {
		return Availability{}, core.ErrOutOfStock
	}

	availability.Available--

	return availability, nil
}

// RemoveHolder validates taking back a copy from the given reader and returns
// the availability after the transition.
func (b Book) RemoveHolder(readerID core.ReaderIDString) (Availability, error) {
	if !b.exists {
		return Availability{}, core.ErrBookNotFound
	}

	if !b.HoldsCopy(readerID) {
		return Availability{}, core.ErrNotBorrowed
	}

	availability := b.Availability()
	availability.Available++

	return availability, nil
}

// SetTotalStock validates an owner stock edit and returns the availability
// after the transition. A raise simply recomputes availability from the new
// total; a cut must not drop total stock below the current holder count.
func (b Book) SetTotalStock(newStock int) (Availability, error) {
	if !b.exists {
		return Availability{}, core.ErrBookNotFound
	}

	if newStock < 0 || newStock > MaxTotalStock {
		return Availability{}, core.ErrInvalidStock
	}

	if newStock < len(b.holders) {
		return Availability{}, core.ErrStockBelowHeldCount
	}

	return Availability{
		TotalStock: newStock,
		Available:  newStock - len(b.holders),
	}, nil
}

// ValidateStock reports whether a total stock value is within the allowed
// bounds for publishing.
func ValidateStock(totalStock int) error {
	if totalStock < 0 || totalStock > MaxTotalStock {
		return core.ErrInvalidStock
	}

	return nil
}
