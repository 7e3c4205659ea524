package shell

import (
	"github.com/openshelf/circulation-go/journal"
)

// The handlers instrument themselves through the same dependency-free
// interfaces the journal engines use, so one set of adapters serves both.

// Logger is the basic leveled logger used by handlers.
type Logger = journal.Logger

// MetricsCollector collects handler performance and outcome metrics.
type MetricsCollector = journal.MetricsCollector

// ContextualMetricsCollector extends MetricsCollector with context-aware methods.
type ContextualMetricsCollector = journal.ContextualMetricsCollector

// TracingCollector collects distributed tracing spans for handler operations.
type TracingCollector = journal.TracingCollector

// SpanContext represents an active tracing span.
type SpanContext = journal.SpanContext

// ContextualLogger is a context-aware logger with automatic trace correlation.
type ContextualLogger = journal.ContextualLogger
