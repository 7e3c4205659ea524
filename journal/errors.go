package journal

import (
	"errors"
)

var (
	// ErrConflict is returned by Append when a concurrent commit advanced the
	// selected stream and the conditional insert affected zero rows.
	ErrConflict = errors.New("concurrency conflict, no rows were affected")

	// ErrNilDatabaseConnection is returned when a nil database handle is supplied
	// to an engine constructor.
	ErrNilDatabaseConnection = errors.New("nil database connection supplied")

	// ErrEmptyTableName is returned when an empty table name is supplied.
	ErrEmptyTableName = errors.New("empty table name supplied")

	// ErrBuildingQueryFailed is returned when SQL generation fails.
	ErrBuildingQueryFailed = errors.New("building query failed")

	// ErrReadingEntriesFailed is returned when the select query fails.
	ErrReadingEntriesFailed = errors.New("reading journal entries failed")

	// ErrScanningDBRowFailed is returned when a database row cannot be scanned.
	ErrScanningDBRowFailed = errors.New("scanning database row failed")

	// ErrBuildingEntryFailed is returned when a database row does not yield a valid Entry.
	ErrBuildingEntryFailed = errors.New("building journal entry from database row failed")

	// ErrAppendingEntryFailed is returned when the conditional insert fails to execute.
	ErrAppendingEntryFailed = errors.New("appending journal entry failed")

	// ErrGettingRowsAffectedFailed is returned when the rows-affected count cannot be determined.
	ErrGettingRowsAffectedFailed = errors.New("getting rows affected count failed")
)

// SequenceNumber is the maximum committed sequence number of a dynamic stream
// at the time of a Read, and the expected value supplied to a conditional Append.
type SequenceNumber = uint
