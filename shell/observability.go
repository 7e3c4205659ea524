package shell

import (
	"context"
	"time"

	"github.com/openshelf/circulation-go/core"
)

// Metric names and label keys used by command and query handlers.
const (
	MetricCommandHandlerDuration          = "commandhandler_duration_seconds"
	MetricCommandHandlerRetries           = "commandhandler_retries_total"
	MetricCommandHandlerRetryDelay        = "commandhandler_retry_delay_seconds"
	MetricCommandHandlerMaxRetriesReached = "commandhandler_max_retries_reached_total"
	MetricQueryHandlerDuration            = "queryhandler_duration_seconds"

	LabelCommandType = "command_type"
	LabelQueryType   = "query_type"
	LabelStatus      = "status"

	StatusSuccess  = "success"
	StatusRejected = "rejected"
	StatusError    = "error"
)

// Span names and attribute keys for handler tracing.
const (
	SpanCommandHandler = "commandhandler.handle"
	SpanQueryHandler   = "queryhandler.handle"

	AttrCommandType = "command.type"
	AttrQueryType   = "query.type"
	AttrStatus      = "status"
	AttrErrorType   = "error.type"
)

// Instrumentation bundles the optional observability collaborators of a
// handler. Zero value is valid: every field may be nil.
type Instrumentation struct {
	Logger           Logger
	ContextualLogger ContextualLogger
	Metrics          MetricsCollector
	Tracing          TracingCollector
}

// StartSpan begins a handler span when tracing is configured.
// Returns a possibly enriched context and a finish function that is safe to
// call unconditionally.
func (i Instrumentation) StartSpan(ctx context.Context, spanName string, attrs map[string]string) (context.Context, func(status string)) {
	if i.Tracing == nil {
		return ctx, func(string) {}
	}

	spanCtx, span := i.Tracing.StartSpan(ctx, spanName, attrs)

	return spanCtx, func(status string) {
		i.Tracing.FinishSpan(span, status, nil)
	}
}

// RecordHandlerOutcome records the duration histogram for a finished handler
// execution, labeled with its status.
func (i Instrumentation) RecordHandlerOutcome(ctx context.Context, metric string, labelKey, labelValue string, status string, duration time.Duration) {
	if i.Metrics == nil {
		return
	}

	labels := map[string]string{
		labelKey:    labelValue,
		LabelStatus: status,
	}

	if contextual, ok := i.Metrics.(ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	i.Metrics.RecordDuration(metric, duration, labels)
}

// LogInfo logs via the contextual logger when configured, falling back to the
// plain logger.
func (i Instrumentation) LogInfo(ctx context.Context, msg string, args ...any) {
	if i.ContextualLogger != nil {
		i.ContextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if i.Logger != nil {
		i.Logger.Info(msg, args...)
	}
}

// LogError logs via the contextual logger when configured, falling back to the
// plain logger.
func (i Instrumentation) LogError(ctx context.Context, msg string, args ...any) {
	if i.ContextualLogger != nil {
		i.ContextualLogger.ErrorContext(ctx, msg, args...)
		return
	}

	if i.Logger != nil {
		i.Logger.Error(msg, args...)
	}
}

// StatusOf maps a handler error to a metric status label.
func StatusOf(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case core.IsDomainError(err):
		return StatusRejected
	default:
		return StatusError
	}
}
