package sqliteengine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure-Go driver

	"github.com/openshelf/circulation-go/journal"
)

const (
	defaultEntryTableName    = "journal_entries"
	defaultSnapshotTableName = "journal_snapshots"

	driverName = "sqlite"

	logMsgReadCompleted       = "read completed"
	logMsgEntriesAppended     = "entries appended"
	logMsgConcurrencyConflict = "concurrency conflict detected"
	logAttrEntryCount         = "entry_count"
	logAttrExpectedSequence   = "expected_sequence"
)

// Journal is the SQLite-backed circulation journal.
type Journal struct {
	db                *sql.DB
	entryTableName    string
	snapshotTableName string
	logger            journal.Logger
}

// Option defines a functional option for configuring a Journal.
type Option func(*Journal) error

// WithTableName sets the entry table name for the Journal.
func WithTableName(tableName string) Option {
	return func(j *Journal) error {
		if tableName == "" {
			return journal.ErrEmptyTableName
		}

		j.entryTableName = tableName

		return nil
	}
}

// WithSnapshotTableName sets the snapshot table name for the Journal.
func WithSnapshotTableName(tableName string) Option {
	return func(j *Journal) error {
		if tableName == "" {
			return journal.ErrEmptyTableName
		}

		j.snapshotTableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the Journal.
func WithLogger(logger journal.Logger) Option {
	return func(j *Journal) error {
		j.logger = logger
		return nil
	}
}

// Open opens a SQLite database at the given path with WAL mode and a busy
// timeout, limited to a single open connection. Use ":memory:" for an
// in-memory database.
func Open(dbPath string) (*sql.DB, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(2 * time.Minute)

	return db, nil
}

// NewJournal creates a new Journal on the given database handle with optional configuration.
func NewJournal(db *sql.DB, options ...Option) (Journal, error) {
	if db == nil {
		return Journal{}, journal.ErrNilDatabaseConnection
	}

	j := Journal{
		db:                db,
		entryTableName:    defaultEntryTableName,
		snapshotTableName: defaultSnapshotTableName,
	}

	for _, option := range options {
		if err := option(&j); err != nil {
			return Journal{}, err
		}
	}

	return j, nil
}

// Bootstrap creates the entry and snapshot tables if they do not exist yet.
func (j Journal) Bootstrap(ctx context.Context) error {
	schema := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  sequence_number INTEGER PRIMARY KEY AUTOINCREMENT,
  entry_type      TEXT NOT NULL,
  recorded_at     TEXT NOT NULL,
  payload         TEXT NOT NULL,
  metadata        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_%s_entry_type ON %s(entry_type);
CREATE TABLE IF NOT EXISTS %s (
  projection_type TEXT NOT NULL,
  selector_hash   TEXT NOT NULL,
  sequence_number INTEGER NOT NULL,
  data            TEXT NOT NULL,
  taken_at        TEXT NOT NULL,
  PRIMARY KEY (projection_type, selector_hash)
);`,
		j.entryTableName, j.entryTableName, j.entryTableName, j.snapshotTableName)

	_, err := j.db.ExecContext(ctx, schema)

	return err
}

// Read retrieves the entries of the dynamic stream described by the provided
// journal.Selector, ordered by sequence number, together with the stream's
// maximum sequence number at the time of the read.
func (j Journal) Read(ctx context.Context, selector journal.Selector) (
	journal.Entries,
	journal.SequenceNumber,
	error,
) {

	var empty journal.Entries

	whereClause, args := buildWhereClause(selector)

	sqlQuery := fmt.Sprintf(
		`SELECT entry_type, recorded_at, payload, metadata, sequence_number FROM %s WHERE %s ORDER BY sequence_number ASC`,
		j.entryTableName, whereClause)

	rows, queryErr := j.db.QueryContext(ctx, sqlQuery, args...)
	if queryErr != nil {
		return empty, 0, errors.Join(journal.ErrReadingEntriesFailed, queryErr)
	}
	defer func() { _ = rows.Close() }()

	entries := make(journal.Entries, 0)
	maxSequenceNumber := journal.SequenceNumber(0)

	for rows.Next() {
		var entryType, recordedAt string
		var payload, metadata []byte
		var sequenceNumber uint

		if scanErr := rows.Scan(&entryType, &recordedAt, &payload, &metadata, &sequenceNumber); scanErr != nil {
			return empty, 0, errors.Join(journal.ErrScanningDBRowFailed, scanErr)
		}

		recordedAtTS, parseErr := time.Parse(time.RFC3339Nano, recordedAt)
		if parseErr != nil {
			return empty, 0, errors.Join(journal.ErrBuildingEntryFailed, parseErr)
		}

		entry, buildErr := journal.BuildEntry(entryType, recordedAtTS, payload, metadata)
		if buildErr != nil {
			return empty, 0, errors.Join(journal.ErrBuildingEntryFailed, buildErr)
		}

		entries = append(entries, entry)
		maxSequenceNumber = sequenceNumber
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return empty, 0, errors.Join(journal.ErrReadingEntriesFailed, rowsErr)
	}

	j.logOperation(logMsgReadCompleted, logAttrEntryCount, len(entries))

	return entries, maxSequenceNumber, nil
}

// Append attempts to append one or multiple journal.Entry(s) onto the journal
// respecting the concurrency constraint of the dynamic stream described by the
// provided journal.Selector and the expected journal.SequenceNumber.
func (j Journal) Append(
	ctx context.Context,
	selector journal.Selector,
	expectedMaxSequenceNumber journal.SequenceNumber,
	entry journal.Entry,
	additionalEntries ...journal.Entry,
) error {

	allEntries := journal.Entries{entry}
	allEntries = append(allEntries, additionalEntries...)

	whereClause, whereArgs := buildWhereClause(selector)

	selects := make([]string, 0, len(allEntries))
	args := make([]any, 0, len(allEntries)*4+len(whereArgs)+1)

	for _, e := range allEntries {
		selects = append(selects, `SELECT ? AS entry_type, ? AS recorded_at, ? AS payload, ? AS metadata`)
		args = append(args, e.EntryType, e.RecordedAt.UTC().Format(time.RFC3339Nano), string(e.PayloadJSON), string(e.MetadataJSON))
	}

	args = append(args, whereArgs...)
	args = append(args, expectedMaxSequenceNumber)

	sqlQuery := fmt.Sprintf(
		`INSERT INTO %s (entry_type, recorded_at, payload, metadata)
SELECT entry_type, recorded_at, payload, metadata FROM (%s)
WHERE (SELECT COALESCE(MAX(sequence_number), 0) FROM %s WHERE %s) = ?`,
		j.entryTableName, strings.Join(selects, " UNION ALL "), j.entryTableName, whereClause)

	result, execErr := j.db.ExecContext(ctx, sqlQuery, args...)
	if execErr != nil {
		return errors.Join(journal.ErrAppendingEntryFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		return errors.Join(journal.ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	if rowsAffected < int64(len(allEntries)) {
		j.logOperation(logMsgConcurrencyConflict, logAttrExpectedSequence, expectedMaxSequenceNumber)

		return journal.ErrConflict
	}

	j.logOperation(logMsgEntriesAppended, logAttrEntryCount, len(allEntries))

	return nil
}

// SaveSnapshot stores a projection snapshot, replacing any existing snapshot
// with the same projection type and selector hash.
func (j Journal) SaveSnapshot(ctx context.Context, snapshot journal.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return errors.Join(journal.ErrSavingSnapshotFailed, err)
	}

	sqlQuery := fmt.Sprintf(
		`INSERT INTO %s (projection_type, selector_hash, sequence_number, data, taken_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (projection_type, selector_hash)
DO UPDATE SET sequence_number = excluded.sequence_number, data = excluded.data, taken_at = excluded.taken_at`,
		j.snapshotTableName)

	_, execErr := j.db.ExecContext(ctx, sqlQuery,
		snapshot.ProjectionType,
		snapshot.SelectorHash,
		snapshot.SequenceNumber,
		string(snapshot.Data),
		snapshot.TakenAt.UTC().Format(time.RFC3339Nano),
	)
	if execErr != nil {
		return errors.Join(journal.ErrSavingSnapshotFailed, execErr)
	}

	return nil
}

// LoadSnapshot retrieves a projection snapshot by projection type and selector
// hash. It returns (nil, nil) when no snapshot exists.
func (j Journal) LoadSnapshot(ctx context.Context, projectionType string, selectorHash string) (*journal.Snapshot, error) {
	sqlQuery := fmt.Sprintf(
		`SELECT sequence_number, data, taken_at FROM %s WHERE projection_type = ? AND selector_hash = ?`,
		j.snapshotTableName)

	var sequenceNumber uint
	var data []byte
	var takenAt string

	scanErr := j.db.QueryRowContext(ctx, sqlQuery, projectionType, selectorHash).Scan(&sequenceNumber, &data, &takenAt)
	if errors.Is(scanErr, sql.ErrNoRows) {
		return nil, nil // no snapshot yet
	}

	if scanErr != nil {
		return nil, errors.Join(journal.ErrLoadingSnapshotFailed, scanErr)
	}

	takenAtTS, parseErr := time.Parse(time.RFC3339Nano, takenAt)
	if parseErr != nil {
		return nil, errors.Join(journal.ErrLoadingSnapshotFailed, parseErr)
	}

	return &journal.Snapshot{
		ProjectionType: projectionType,
		SelectorHash:   selectorHash,
		SequenceNumber: sequenceNumber,
		Data:           json.RawMessage(data),
		TakenAt:        takenAtTS,
	}, nil
}

// DeleteSnapshot removes a projection snapshot. Deleting a nonexistent snapshot is a no-op.
func (j Journal) DeleteSnapshot(ctx context.Context, projectionType string, selectorHash string) error {
	sqlQuery := fmt.Sprintf(
		`DELETE FROM %s WHERE projection_type = ? AND selector_hash = ?`,
		j.snapshotTableName)

	if _, execErr := j.db.ExecContext(ctx, sqlQuery, projectionType, selectorHash); execErr != nil {
		return errors.Join(journal.ErrDeletingSnapshotFailed, execErr)
	}

	return nil
}

// buildWhereClause renders the selector into a SQL condition with placeholder args.
// An empty selector matches every entry.
func buildWhereClause(selector journal.Selector) (string, []any) {
	itemConditions := make([]string, 0)
	args := make([]any, 0)

	for _, item := range selector.Items() {
		conditions := make([]string, 0, 2)

		if entryTypes := item.EntryTypes(); len(entryTypes) > 0 {
			placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(entryTypes)), ", ")
			conditions = append(conditions, fmt.Sprintf("entry_type IN (%s)", placeholders))

			for _, entryType := range entryTypes {
				args = append(args, entryType)
			}
		}

		if predicates := item.Predicates(); len(predicates) > 0 {
			predicateConditions := make([]string, 0, len(predicates))

			for _, predicate := range predicates {
				predicateConditions = append(predicateConditions, fmt.Sprintf("json_extract(payload, '$.%s') = ?", predicate.Key()))
				args = append(args, predicate.Val())
			}

			operator := " OR "
			if item.AllPredicatesMustMatch() {
				operator = " AND "
			}

			conditions = append(conditions, "("+strings.Join(predicateConditions, operator)+")")
		}

		if len(conditions) > 0 {
			itemConditions = append(itemConditions, "("+strings.Join(conditions, " AND ")+")")
		}
	}

	whereClause := "1 = 1"
	if len(itemConditions) > 0 {
		whereClause = "(" + strings.Join(itemConditions, " OR ") + ")"
	}

	if selector.AfterSequenceNumber() > 0 {
		whereClause += " AND sequence_number > ?"
		args = append(args, selector.AfterSequenceNumber())
	}

	return whereClause, args
}

// logOperation logs operational information at info level if a logger is configured.
func (j Journal) logOperation(action string, args ...any) {
	if j.logger != nil {
		j.logger.Info("journal operation: "+action, args...)
	}
}
