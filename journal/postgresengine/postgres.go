package postgresengine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/openshelf/circulation-go/journal"
	"github.com/openshelf/circulation-go/journal/postgresengine/internal/adapters"
)

const (
	defaultEntryTableName    = "journal_entries"
	defaultSnapshotTableName = "journal_snapshots"

	colEntryType      = "entry_type"
	colRecordedAt     = "recorded_at"
	colPayload        = "payload"
	colMetadata       = "metadata"
	colSequenceNumber = "sequence_number"

	colProjectionType = "projection_type"
	colSelectorHash   = "selector_hash"
	colData           = "data"
	colTakenAt        = "taken_at"

	cteContext      = "context"
	cteVals         = "vals"
	dialectPostgres = "postgres"
	aliasMaxSeq     = "max_seq"
	castText        = "?::text"
	castTimestamp   = "?::timestamp with time zone"
	castJsonb       = "?::jsonb"
)

type (
	sqlQueryString    = string
	rowsAffectedInt64 = int64
	queryDuration     = time.Duration
)

// Journal is the PostgreSQL-backed circulation journal.
// It leverages a database adapter and supports customizable logging, metrics,
// tracing and table configuration.
type Journal struct {
	db                adapters.DBAdapter
	entryTableName    string
	snapshotTableName string
	logger            journal.Logger
	metricsCollector  journal.MetricsCollector
	tracingCollector  journal.TracingCollector
	contextualLogger  journal.ContextualLogger
}

type queryResultRow struct {
	entryType         string
	payload           []byte
	metadata          []byte
	recordedAt        time.Time
	maxSequenceNumber journal.SequenceNumber
}

// NewJournalFromPGXPool creates a new Journal using a pgx pool with optional configuration.
func NewJournalFromPGXPool(db *pgxpool.Pool, options ...Option) (Journal, error) {
	if db == nil {
		return Journal{}, journal.ErrNilDatabaseConnection
	}

	return applyOptions(Journal{
		db:                adapters.NewPGXAdapter(db),
		entryTableName:    defaultEntryTableName,
		snapshotTableName: defaultSnapshotTableName,
	}, options)
}

// NewJournalFromPGXPoolAndReplica creates a new Journal using a primary pgx pool
// for writes and strongly consistent reads, and a replica pool for eventually
// consistent reads (selected per operation via journal.WithEventualConsistency).
func NewJournalFromPGXPoolAndReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (Journal, error) {
	if db == nil || replica == nil {
		return Journal{}, journal.ErrNilDatabaseConnection
	}

	return applyOptions(Journal{
		db:                adapters.NewPGXAdapterWithReplica(db, replica),
		entryTableName:    defaultEntryTableName,
		snapshotTableName: defaultSnapshotTableName,
	}, options)
}

// NewJournalFromSQLDB creates a new Journal using a sql.DB with optional configuration.
func NewJournalFromSQLDB(db *sql.DB, options ...Option) (Journal, error) {
	if db == nil {
		return Journal{}, journal.ErrNilDatabaseConnection
	}

	return applyOptions(Journal{
		db:                adapters.NewSQLAdapter(db),
		entryTableName:    defaultEntryTableName,
		snapshotTableName: defaultSnapshotTableName,
	}, options)
}

// NewJournalFromSQLX creates a new Journal using a sqlx.DB with optional configuration.
func NewJournalFromSQLX(db *sqlx.DB, options ...Option) (Journal, error) {
	if db == nil {
		return Journal{}, journal.ErrNilDatabaseConnection
	}

	return applyOptions(Journal{
		db:                adapters.NewSQLXAdapter(db),
		entryTableName:    defaultEntryTableName,
		snapshotTableName: defaultSnapshotTableName,
	}, options)
}

func applyOptions(j Journal, options []Option) (Journal, error) {
	for _, option := range options {
		if err := option(&j); err != nil {
			return Journal{}, err
		}
	}

	return j, nil
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

	ctx, span := j.startSpan(ctx, spanRead)

	sqlQuery, buildQueryErr := j.buildSelectQuery(selector)
	if buildQueryErr != nil {
		j.logError(ctx, logMsgBuildSelectQueryFailed, buildQueryErr)
		j.finishSpan(span, statusError)
		return empty, 0, buildQueryErr
	}

	rows, duration, queryErr := j.executeQuery(ctx, sqlQuery)
	if queryErr != nil {
		j.recordOperationOutcome(ctx, opRead, statusError, duration)
		j.finishSpan(span, statusError)
		return empty, 0, queryErr
	}
	defer j.closeRows(rows)

	entries, maxSequenceNumber, scanErr := j.processQueryResults(ctx, rows)
	if scanErr != nil {
		j.recordOperationOutcome(ctx, opRead, statusError, duration)
		j.finishSpan(span, statusError)
		return empty, 0, scanErr
	}

	j.recordOperationOutcome(ctx, opRead, statusSuccess, duration)
	j.finishSpan(span, statusSuccess)

	j.logOperation(ctx, logMsgReadCompleted,
		logAttrEntryCount, len(entries),
		logAttrDurationMS, toMilliseconds(duration))

	return entries, maxSequenceNumber, nil
}

// executeQuery executes the SQL query and returns rows with timing information.
func (j Journal) executeQuery(ctx context.Context, sqlQuery string) (
	adapters.DBRows,
	time.Duration,
	error,
) {

	start := time.Now()
	rows, queryErr := j.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	j.logQueryWithDuration(ctx, sqlQuery, logActionRead, duration)

	if queryErr != nil {
		j.logError(ctx, logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)

		return nil, duration, errors.Join(journal.ErrReadingEntriesFailed, queryErr)
	}

	return rows, duration, nil
}

// closeRows safely closes database rows and logs any errors.
func (j Journal) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		j.logWarn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

// processQueryResults converts database rows to journal entries.
func (j Journal) processQueryResults(ctx context.Context, rows adapters.DBRows) (
	journal.Entries,
	journal.SequenceNumber,
	error,
) {

	var empty journal.Entries
	result := queryResultRow{}
	entries := make(journal.Entries, 0)
	maxSequenceNumber := journal.SequenceNumber(0)

	for rows.Next() {
		rowScanErr := rows.Scan(&result.entryType, &result.recordedAt, &result.payload, &result.metadata, &result.maxSequenceNumber)
		if rowScanErr != nil {
			j.logError(ctx, logMsgScanRowFailed, rowScanErr)

			return empty, 0, errors.Join(journal.ErrScanningDBRowFailed, rowScanErr)
		}

		entry, buildEntryErr := journal.BuildEntry(result.entryType, result.recordedAt, result.payload, result.metadata)
		if buildEntryErr != nil {
			j.logError(ctx, logMsgBuildEntryFailed, buildEntryErr, logAttrEntryType, result.entryType)

			return empty, 0, errors.Join(journal.ErrBuildingEntryFailed, buildEntryErr)
		}

		entries = append(entries, entry)
		maxSequenceNumber = result.maxSequenceNumber
	}

	return entries, maxSequenceNumber, nil
}

// Append attempts to append one or multiple journal.Entry(s) onto the journal
// respecting the concurrency constraint of the dynamic stream described by the
// provided journal.Selector and the expected journal.SequenceNumber.
//
// The provided selector should be the same as the one used for the Read before
// making the business decision.
//
// The insert query to append multiple entries atomically is heavier than the one
// built to append a single entry. One command should typically only produce one
// entry - only supply multiple entries if you are sure you need them appended at once.
func (j Journal) Append(
	ctx context.Context,
	selector journal.Selector,
	expectedMaxSequenceNumber journal.SequenceNumber,
	entry journal.Entry,
	additionalEntries ...journal.Entry,
) error {

	allEntries := journal.Entries{entry}
	allEntries = append(allEntries, additionalEntries...)

	ctx, span := j.startSpan(ctx, spanAppend)

	sqlQuery, buildQueryErr := j.buildAppendQuery(ctx, allEntries, selector, expectedMaxSequenceNumber)
	if buildQueryErr != nil {
		j.finishSpan(span, statusError)
		return buildQueryErr
	}

	rowsAffected, duration, execErr := j.executeAppendQuery(ctx, sqlQuery)
	if execErr != nil {
		j.recordOperationOutcome(ctx, opAppend, statusError, duration)
		j.finishSpan(span, statusError)
		return execErr
	}

	if err := j.validateAppendResult(ctx, rowsAffected, len(allEntries), expectedMaxSequenceNumber); err != nil {
		j.recordOperationOutcome(ctx, opAppend, statusConflict, duration)
		j.finishSpan(span, statusConflict)
		return err
	}

	j.recordOperationOutcome(ctx, opAppend, statusSuccess, duration)
	j.finishSpan(span, statusSuccess)

	j.logOperation(ctx, logMsgEntriesAppended,
		logAttrEntryCount, len(allEntries),
		logAttrDurationMS, toMilliseconds(duration),
	)

	return nil
}

// buildAppendQuery builds the appropriate SQL query for single or multiple entries.
func (j Journal) buildAppendQuery(
	ctx context.Context,
	allEntries journal.Entries,
	selector journal.Selector,
	expectedMaxSequenceNumber journal.SequenceNumber,
) (sqlQueryString, error) {

	var sqlQuery sqlQueryString
	var buildQueryErr error

	switch len(allEntries) {
	case 1:
		sqlQuery, buildQueryErr = j.buildInsertQueryForSingleEntry(allEntries[0], selector, expectedMaxSequenceNumber)

	default:
		sqlQuery, buildQueryErr = j.buildInsertQueryForMultipleEntries(allEntries, selector, expectedMaxSequenceNumber)
	}

	if buildQueryErr != nil {
		j.logError(ctx, logMsgBuildInsertQueryFailed, buildQueryErr, logAttrEntryCount, len(allEntries))

		return "", buildQueryErr
	}

	return sqlQuery, nil
}

// executeAppendQuery executes the SQL append query and returns rows affected and duration.
func (j Journal) executeAppendQuery(ctx context.Context, sqlQuery string) (
	rowsAffectedInt64,
	queryDuration,
	error,
) {

	start := time.Now()
	tag, execErr := j.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	j.logQueryWithDuration(ctx, sqlQuery, logActionAppend, duration)

	if execErr != nil {
		j.logError(ctx, logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)

		return 0, duration, errors.Join(journal.ErrAppendingEntryFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := tag.RowsAffected()
	if rowsAffectedErr != nil {
		j.logError(ctx, logMsgRowsAffectedFailed, rowsAffectedErr)

		return 0, duration, errors.Join(journal.ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	return rowsAffected, duration, nil
}

// validateAppendResult checks if the append operation was successful and detects concurrency conflicts.
func (j Journal) validateAppendResult(
	ctx context.Context,
	rowsAffected int64,
	expectedEntryCount int,
	expectedMaxSequenceNumber journal.SequenceNumber,
) error {

	if rowsAffected < int64(expectedEntryCount) {
		j.logOperation(ctx, logMsgConcurrencyConflict,
			logAttrExpectedEntries, expectedEntryCount,
			logAttrRowsAffected, rowsAffected,
			logAttrExpectedSequence, expectedMaxSequenceNumber,
		)

		return journal.ErrConflict
	}

	return nil
}

func (j Journal) buildSelectQuery(selector journal.Selector) (sqlQueryString, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(j.entryTableName).
		Select(colEntryType, colRecordedAt, colPayload, colMetadata, colSequenceNumber).
		Order(goqu.I(colSequenceNumber).Asc())

	selectStmt = j.addWhereClause(selector, selectStmt)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(journal.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (j Journal) buildInsertQueryForSingleEntry(
	entry journal.Entry,
	selector journal.Selector,
	expectedMaxSequenceNumber journal.SequenceNumber,
) (sqlQueryString, error) {

	builder := goqu.Dialect(dialectPostgres)

	// The CTE computes the stream's current max sequence number
	cteStmt := builder.
		From(j.entryTableName).
		Select(goqu.MAX(colSequenceNumber).As(aliasMaxSeq))

	cteStmt = j.addWhereClause(selector, cteStmt)

	// The SELECT feeding the INSERT only yields a row when the expectation holds
	selectStmt := builder.
		From(cteContext).
		Select(goqu.V(entry.EntryType), goqu.V(entry.RecordedAt), goqu.V(entry.PayloadJSON), goqu.V(entry.MetadataJSON)).
		Where(goqu.COALESCE(goqu.C(aliasMaxSeq), 0).Eq(goqu.V(expectedMaxSequenceNumber)))

	insertStmt := builder.
		Insert(j.entryTableName).
		Cols(colEntryType, colRecordedAt, colPayload, colMetadata).
		FromQuery(selectStmt).
		With(cteContext, cteStmt)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		j.logWarn(logMsgSingleEntrySQLFailed, logAttrError, toSQLErr.Error(), logAttrEntryType, entry.EntryType)
		return "", errors.Join(journal.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (j Journal) buildInsertQueryForMultipleEntries(
	entries journal.Entries,
	selector journal.Selector,
	expectedMaxSequenceNumber journal.SequenceNumber,
) (sqlQueryString, error) {

	builder := goqu.Dialect(dialectPostgres)

	// The CTE computes the stream's current max sequence number
	cteStmt := builder.
		From(j.entryTableName).
		Select(goqu.MAX(colSequenceNumber).As(aliasMaxSeq))

	cteStmt = j.addWhereClause(selector, cteStmt)

	// Individual SELECT statements for each entry, combined with UNION ALL
	unionStatements := make([]*goqu.SelectDataset, len(entries))
	for i, entry := range entries {
		unionStatements[i] = builder.
			Select(
				goqu.L(castText, entry.EntryType).As(colEntryType),
				goqu.L(castTimestamp, entry.RecordedAt).As(colRecordedAt),
				goqu.L(castJsonb, entry.PayloadJSON).As(colPayload),
				goqu.L(castJsonb, entry.MetadataJSON).As(colMetadata),
			)
	}

	valuesStmt := unionStatements[0]
	for i := 1; i < len(unionStatements); i++ {
		valuesStmt = valuesStmt.UnionAll(unionStatements[i])
	}

	valsEntryType := fmt.Sprintf("%s.%s", cteVals, colEntryType)
	valsRecordedAt := fmt.Sprintf("%s.%s", cteVals, colRecordedAt)
	valsPayload := fmt.Sprintf("%s.%s", cteVals, colPayload)
	valsMetadata := fmt.Sprintf("%s.%s", cteVals, colMetadata)

	insertStmt := builder.
		Insert(j.entryTableName).
		Cols(colEntryType, colRecordedAt, colPayload, colMetadata).
		With(cteContext, cteStmt).
		With(cteVals, valuesStmt).
		FromQuery(
			builder.From(cteContext, cteVals).
				Select(valsEntryType, valsRecordedAt, valsPayload, valsMetadata).
				Where(goqu.COALESCE(goqu.C(aliasMaxSeq), 0).Eq(goqu.V(expectedMaxSequenceNumber))),
		)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		j.logWarn(logMsgMultiEntrySQLFailed, logAttrError, toSQLErr.Error(), logAttrEntryCount, len(entries))
		return "", errors.Join(journal.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (j Journal) addWhereClause(selector journal.Selector, selectStmt *goqu.SelectDataset) *goqu.SelectDataset {
	itemsExpressions := make([]goqu.Expression, 0)

	for _, item := range selector.Items() {
		entryTypeExpressions := make([]goqu.Expression, 0)
		predicateExpressions := make([]goqu.Expression, 0)

		for _, entryType := range item.EntryTypes() {
			entryTypeExpressions = append(
				entryTypeExpressions,
				goqu.Ex{colEntryType: entryType},
			)
		}

		// entry types are always filtered with OR
		entryTypesExpressionList := goqu.Or(entryTypeExpressions...)

		for _, predicate := range item.Predicates() {
			predicateExpressions = append(
				predicateExpressions,
				goqu.L(fmt.Sprintf(`%s @> '{"%s": "%s"}'`, colPayload, predicate.Key(), predicate.Val())),
			)
		}

		var predicatesExpressionList exp.ExpressionList

		if item.AllPredicatesMustMatch() {
			predicatesExpressionList = goqu.And(predicateExpressions...)
		} else {
			predicatesExpressionList = goqu.Or(predicateExpressions...)
		}

		itemsExpressions = append(
			itemsExpressions,
			goqu.And(entryTypesExpressionList, predicatesExpressionList),
		)
	}

	sequenceExpressions := make([]goqu.Expression, 0)

	if selector.AfterSequenceNumber() > 0 {
		sequenceExpressions = append(
			sequenceExpressions,
			goqu.C(colSequenceNumber).Gt(selector.AfterSequenceNumber()),
		)
	}

	selectStmt = selectStmt.Where(
		goqu.And(
			goqu.Or(itemsExpressions...),
			goqu.And(sequenceExpressions...),
		),
	)

	return selectStmt
}

// SaveSnapshot stores a projection snapshot, replacing any existing snapshot
// with the same projection type and selector hash.
func (j Journal) SaveSnapshot(ctx context.Context, snapshot journal.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return errors.Join(journal.ErrSavingSnapshotFailed, err)
	}

	conflictTarget := fmt.Sprintf("%s, %s", colProjectionType, colSelectorHash)

	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(j.snapshotTableName).
		Cols(colProjectionType, colSelectorHash, colSequenceNumber, colData, colTakenAt).
		Vals(goqu.Vals{snapshot.ProjectionType, snapshot.SelectorHash, snapshot.SequenceNumber, snapshot.Data, snapshot.TakenAt}).
		OnConflict(goqu.DoUpdate(conflictTarget, goqu.Record{
			colSequenceNumber: snapshot.SequenceNumber,
			colData:           snapshot.Data,
			colTakenAt:        snapshot.TakenAt,
		}))

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return errors.Join(journal.ErrSavingSnapshotFailed, journal.ErrBuildingQueryFailed, toSQLErr)
	}

	start := time.Now()
	_, execErr := j.db.Exec(ctx, sqlQuery)
	j.logQueryWithDuration(ctx, sqlQuery, logActionSaveSnapshot, time.Since(start))

	if execErr != nil {
		j.logError(ctx, logMsgSaveSnapshotFailed, execErr, logAttrProjectionType, snapshot.ProjectionType)
		return errors.Join(journal.ErrSavingSnapshotFailed, execErr)
	}

	return nil
}

// LoadSnapshot retrieves a projection snapshot by projection type and selector
// hash. It returns (nil, nil) when no snapshot exists.
func (j Journal) LoadSnapshot(ctx context.Context, projectionType string, selectorHash string) (*journal.Snapshot, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(j.snapshotTableName).
		Select(colSequenceNumber, colData, colTakenAt).
		Where(goqu.Ex{
			colProjectionType: projectionType,
			colSelectorHash:   selectorHash,
		})

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return nil, errors.Join(journal.ErrLoadingSnapshotFailed, journal.ErrBuildingQueryFailed, toSQLErr)
	}

	start := time.Now()
	rows, queryErr := j.db.Query(ctx, sqlQuery)
	j.logQueryWithDuration(ctx, sqlQuery, logActionLoadSnapshot, time.Since(start))

	if queryErr != nil {
		j.logError(ctx, logMsgLoadSnapshotFailed, queryErr, logAttrProjectionType, projectionType)
		return nil, errors.Join(journal.ErrLoadingSnapshotFailed, queryErr)
	}
	defer j.closeRows(rows)

	if !rows.Next() {
		return nil, nil // no snapshot yet
	}

	var sequenceNumber journal.SequenceNumber
	var data json.RawMessage
	var takenAt time.Time

	if scanErr := rows.Scan(&sequenceNumber, &data, &takenAt); scanErr != nil {
		j.logError(ctx, logMsgScanRowFailed, scanErr)
		return nil, errors.Join(journal.ErrLoadingSnapshotFailed, journal.ErrScanningDBRowFailed, scanErr)
	}

	return &journal.Snapshot{
		ProjectionType: projectionType,
		SelectorHash:   selectorHash,
		SequenceNumber: sequenceNumber,
		Data:           data,
		TakenAt:        takenAt,
	}, nil
}

// DeleteSnapshot removes a projection snapshot. Deleting a nonexistent snapshot is a no-op.
func (j Journal) DeleteSnapshot(ctx context.Context, projectionType string, selectorHash string) error {
	deleteStmt := goqu.Dialect(dialectPostgres).
		Delete(j.snapshotTableName).
		Where(goqu.Ex{
			colProjectionType: projectionType,
			colSelectorHash:   selectorHash,
		})

	sqlQuery, _, toSQLErr := deleteStmt.ToSQL()
	if toSQLErr != nil {
		return errors.Join(journal.ErrDeletingSnapshotFailed, journal.ErrBuildingQueryFailed, toSQLErr)
	}

	start := time.Now()
	_, execErr := j.db.Exec(ctx, sqlQuery)
	j.logQueryWithDuration(ctx, sqlQuery, logActionDeleteSnapshot, time.Since(start))

	if execErr != nil {
		j.logError(ctx, logMsgDeleteSnapshotFailed, execErr, logAttrProjectionType, projectionType)
		return errors.Join(journal.ErrDeletingSnapshotFailed, execErr)
	}

	return nil
}
