package bookavailability

import (
	"context"
	"time"

	"github.com/openshelf/circulation-go/journal"
	"github.com/openshelf/circulation-go/shell"
)

// Journal defines the journal operations needed by the QueryHandler.
type Journal interface {
	Read(ctx context.Context, selector journal.Selector) (
		journal.Entries,
		journal.SequenceNumber,
		error,
	)
}

// QueryHandler orchestrates the availability read: read the book's stream and
// project. Catalog reads tolerate staleness, so the read runs with eventual
// consistency unless the caller's context says otherwise.
type QueryHandler struct {
	journal         Journal
	instrumentation shell.Instrumentation
}

// Option configures a QueryHandler.
type Option func(*QueryHandler)

// WithInstrumentation sets the observability collaborators for the handler.
func WithInstrumentation(instrumentation shell.Instrumentation) Option {
	return func(h *QueryHandler) {
		h.instrumentation = instrumentation
	}
}

// NewQueryHandler creates a new QueryHandler with optional configuration.
func NewQueryHandler(j Journal, opts ...Option) QueryHandler {
	handler := QueryHandler{journal: j}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the query workflow: Read -> Decode -> Project.
func (h QueryHandler) Handle(ctx context.Context, query Query) (BookAvailability, error) {
	started := time.Now()

	ctx, finishSpan := h.instrumentation.StartSpan(ctx, shell.SpanQueryHandler, map[string]string{
		shell.AttrQueryType: query.QueryType(),
	})

	if !journal.HasReadConsistency(ctx) {
		ctx = journal.WithEventualConsistency(ctx)
	}

	result, err := h.execute(ctx, query)

	duration := time.Since(started)
	mappedErr := shell.MapError(err)
	status := shell.StatusOf(mappedErr)

	h.instrumentation.RecordHandlerOutcome(
		ctx, shell.MetricQueryHandlerDuration, shell.LabelQueryType, query.QueryType(), status, duration)
	finishSpan(status)

	if mappedErr != nil {
		h.instrumentation.LogError(ctx, "availability query failed",
			"query_type", query.QueryType(), "error", err.Error())

		return BookAvailability{}, mappedErr
	}

	return result, nil
}

func (h QueryHandler) execute(ctx context.Context, query Query) (BookAvailability, error) {
	selector := BuildStreamSelector(query.BookID)

	entries, _, err := h.journal.Read(ctx, selector)
	if err != nil {
		return BookAvailability{}, err
	}

	history, err := shell.DomainEventsFrom(entries)
	if err != nil {
		return BookAvailability{}, err
	}

	return Project(history, query)
}
