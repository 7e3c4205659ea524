package postgresengine

import (
	"github.com/openshelf/circulation-go/journal"
)

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
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL queries with execution timing (development use)
// Info level: Entry counts, durations, concurrency conflicts (production-safe)
// Warn level: Non-critical issues like cleanup failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger journal.Logger) Option {
	return func(j *Journal) error {
		j.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Journal.
// The collector will receive read/append durations, outcome counters and
// concurrency conflict counts.
func WithMetrics(collector journal.MetricsCollector) Option {
	return func(j *Journal) error {
		j.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Journal.
// The collector will receive spans for read/append operations with outcome status.
func WithTracing(collector journal.TracingCollector) Option {
	return func(j *Journal) error {
		j.tracingCollector = collector
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Journal.
// The contextual logger will receive log messages with context information,
// enabling automatic trace/span correlation when tracing is enabled.
func WithContextualLogger(logger journal.ContextualLogger) Option {
	return func(j *Journal) error {
		j.contextualLogger = logger
		return nil
	}
}
