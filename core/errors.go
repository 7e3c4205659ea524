package core

import (
	"errors"
)

// Stable error kinds surfaced by the circulation features. Callers match them
// with errors.Is and map them to transport-level statuses.
var (
	// ErrBookNotFound is returned when the referenced book is not in the catalog.
	ErrBookNotFound = errors.New("book not found")

	// ErrReaderNotFound is returned when the referenced reader is not registered.
	ErrReaderNotFound = errors.New("reader not found")

	// ErrOutOfStock is returned when a borrow finds no available copies.
	ErrOutOfStock = errors.New("no copies available")

	// ErrAlreadyBorrowed is returned when the reader already holds a copy of this title.
	ErrAlreadyBorrowed = errors.New("book already borrowed by this reader")

	// ErrNotBorrowed is returned when a return is attempted for a title the reader does not hold.
	ErrNotBorrowed = errors.New("book not borrowed by this reader")

	// ErrBorrowLimitReached is returned when the reader already holds the maximum number of titles.
	ErrBorrowLimitReached = errors.New("borrow limit reached")

	// ErrStockBelowHeldCount is returned when a stock edit would drop total stock
	// below the number of current holders.
	ErrStockBelowHeldCount = errors.New("total stock below held copy count")

	// ErrInvalidStock is returned when a stock value is negative or above the allowed maximum.
	ErrInvalidStock = errors.New("invalid total stock")

	// ErrBookAlreadyPublished is returned when publishing a book ID that already exists.
	ErrBookAlreadyPublished = errors.New("book already published")

	// ErrBookStillHeld is returned when withdrawing a book that still has holders.
	ErrBookStillHeld = errors.New("book still held by readers")

	// ErrReaderAlreadyRegistered is returned when registering a reader ID that already exists.
	ErrReaderAlreadyRegistered = errors.New("reader already registered")

	// ErrReaderStillHoldsBooks is returned when deregistering a reader who still holds books.
	ErrReaderStillHoldsBooks = errors.New("reader still holds books")
)

// Boundary error kinds. These never carry storage detail verbatim.
var (
	// ErrTransient is returned when concurrency conflict retries are exhausted.
	// The request may be safely retried by the caller.
	ErrTransient = errors.New("transient failure, please retry")

	// ErrInternal is returned when a storage or marshaling failure occurs.
	// The underlying cause is logged, not surfaced.
	ErrInternal = errors.New("internal error")
)

var domainErrors = []error{
	ErrBookNotFound,
	ErrReaderNotFound,
	ErrOutOfStock,
	ErrAlreadyBorrowed,
	ErrNotBorrowed,
	ErrBorrowLimitReached,
	ErrStockBelowHeldCount,
	ErrInvalidStock,
	ErrBookAlreadyPublished,
	ErrBookStillHeld,
	ErrReaderAlreadyRegistered,
	ErrReaderStillHoldsBooks,
}

// IsDomainError reports whether err is one of the stable domain error kinds.
// Domain errors are terminal for a request and must not be retried.
func IsDomainError(err error) bool {
	for _, domainErr := range domainErrors {
		if errors.Is(err, domainErr) {
			return true
		}
	}

	return false
}
