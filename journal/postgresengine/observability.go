package postgresengine

import (
	"context"
	"math"
	"time"

	"github.com/openshelf/circulation-go/journal"
)

const (
	logMsgBuildSelectQueryFailed = "failed to build select query"
	logMsgDBQueryFailed          = "database query execution failed"
	logMsgCloseRowsFailed        = "failed to close database rows"
	logMsgScanRowFailed          = "failed to scan database row"
	logMsgBuildEntryFailed       = "failed to build journal entry from database row"
	logMsgBuildInsertQueryFailed = "failed to build insert query"
	logMsgDBExecFailed           = "database execution failed during append"
	logMsgRowsAffectedFailed     = "failed to get rows affected count"
	logMsgSingleEntrySQLFailed   = "failed to convert single entry insert statement to SQL"
	logMsgMultiEntrySQLFailed    = "failed to convert multiple entries insert statement to SQL"
	logMsgReadCompleted          = "read completed"
	logMsgEntriesAppended        = "entries appended"
	logMsgConcurrencyConflict    = "concurrency conflict detected"
	logMsgSaveSnapshotFailed     = "failed to save snapshot"
	logMsgLoadSnapshotFailed     = "failed to load snapshot"
	logMsgDeleteSnapshotFailed   = "failed to delete snapshot"
	logMsgSQLExecuted            = "executed sql for: "
	logMsgOperation              = "journal operation: "

	logAttrError            = "error"
	logAttrQuery            = "query"
	logAttrEntryType        = "entry_type"
	logAttrEntryCount       = "entry_count"
	logAttrDurationMS       = "duration_ms"
	logAttrExpectedEntries  = "expected_entries"
	logAttrRowsAffected     = "rows_affected"
	logAttrExpectedSequence = "expected_sequence"
	logAttrProjectionType   = "projection_type"

	logActionRead           = "read"
	logActionAppend         = "append"
	logActionSaveSnapshot   = "save_snapshot"
	logActionLoadSnapshot   = "load_snapshot"
	logActionDeleteSnapshot = "delete_snapshot"

	opRead   = "read"
	opAppend = "append"

	spanRead   = "journal.read"
	spanAppend = "journal.append"

	statusSuccess  = "success"
	statusError    = "error"
	statusConflict = "conflict"

	metricOperationDuration = "journal_operation_duration_seconds"
	metricOperationOutcomes = "journal_operation_outcomes_total"

	labelOperation = "operation"
	labelStatus    = "status"
)

// logQueryWithDuration logs SQL queries with execution time at debug level if a logger is configured.
// The contextual logger takes precedence to keep trace correlation.
func (j Journal) logQueryWithDuration(ctx context.Context, sqlQuery string, action string, duration time.Duration) {
	if j.contextualLogger != nil {
		j.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
		return
	}

	if j.logger != nil {
		j.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (j Journal) logOperation(ctx context.Context, action string, args ...any) {
	if j.contextualLogger != nil {
		j.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
		return
	}

	if j.logger != nil {
		j.logger.Info(logMsgOperation+action, args...)
	}
}

// logError logs error information at the error level if a logger is configured.
func (j Journal) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if j.contextualLogger != nil {
		j.contextualLogger.ErrorContext(ctx, message, allArgs...)
		return
	}

	if j.logger != nil {
		j.logger.Error(message, allArgs...)
	}
}

// logWarn logs non-critical issues at warn level if a logger is configured.
func (j Journal) logWarn(message string, args ...any) {
	if j.logger != nil {
		j.logger.Warn(message, args...)
	}
}

// recordOperationOutcome records duration and outcome metrics for a read or append.
func (j Journal) recordOperationOutcome(ctx context.Context, operation string, status string, duration time.Duration) {
	if j.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		labelOperation: operation,
		labelStatus:    status,
	}

	if contextualCollector, ok := j.metricsCollector.(journal.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricOperationDuration, duration, labels)
		contextualCollector.IncrementCounterContext(ctx, metricOperationOutcomes, labels)
		return
	}

	j.metricsCollector.RecordDuration(metricOperationDuration, duration, labels)
	j.metricsCollector.IncrementCounter(metricOperationOutcomes, labels)
}

// startSpan starts a tracing span if a tracing collector is configured.
func (j Journal) startSpan(ctx context.Context, name string) (context.Context, journal.SpanContext) {
	if j.tracingCollector == nil {
		return ctx, nil
	}

	return j.tracingCollector.StartSpan(ctx, name, map[string]string{labelOperation: name})
}

// finishSpan finishes a tracing span if one was started.
func (j Journal) finishSpan(span journal.SpanContext, status string) {
	if j.tracingCollector == nil || span == nil {
		return
	}

	j.tracingCollector.FinishSpan(span, status, nil)
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
