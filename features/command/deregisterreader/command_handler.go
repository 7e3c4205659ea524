package deregisterreader

import (
	"context"
	"time"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/journal"
	"github.com/openshelf/circulation-go/shell"
)

// Journal defines the journal operations needed by the CommandHandler.
type Journal interface {
	Read(ctx context.Context, selector journal.Selector) (
		journal.Entries,
		journal.SequenceNumber,
		error,
	)
	Append(
		ctx context.Context,
		selector journal.Selector,
		expectedMaxSequenceNumber journal.SequenceNumber,
		entry journal.Entry,
		additionalEntries ...journal.Entry,
	) error
}

// Result carries execution metadata of a deregistration back to the caller.
type Result struct {
	Execution shell.HandlerResult
}

// CommandHandler orchestrates the deregistration workflow.
type CommandHandler struct {
	journal         Journal
	commitListener  shell.CommitListener
	instrumentation shell.Instrumentation
	retryOptions    []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// WithCommitListener sets a listener notified after each durable append.
func WithCommitListener(listener shell.CommitListener) Option {
	return func(h *CommandHandler) {
		h.commitListener = listener
	}
}

// WithInstrumentation sets the observability collaborators for the handler.
func WithInstrumentation(instrumentation shell.Instrumentation) Option {
	return func(h *CommandHandler) {
		h.instrumentation = instrumentation
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(j Journal, opts ...Option) CommandHandler {
	handler := CommandHandler{journal: j}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the deregistration workflow with retry on concurrency conflicts.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, error) {
	started := time.Now()

	ctx, finishSpan := h.instrumentation.StartSpan(ctx, shell.SpanCommandHandler, map[string]string{
		shell.AttrCommandType: command.CommandType(),
	})

	var committedEvent core.DomainEvent

	retryStats, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var execErr error
		committedEvent, execErr = h.executeCommand(retryCtx, command)

		return execErr
	}, h.retryOptions...)

	duration := time.Since(started)
	mappedErr := shell.MapError(err)
	status := shell.StatusOf(mappedErr)

	h.instrumentation.RecordHandlerOutcome(
		ctx, shell.MetricCommandHandlerDuration, shell.LabelCommandType, command.CommandType(), status, duration)
	finishSpan(status)

	if mappedErr != nil {
		h.instrumentation.LogError(ctx, "deregistration rejected",
			"command_type", command.CommandType(), "error", err.Error())

		return Result{Execution: shell.BuildHandlerResult(retryStats, duration)}, mappedErr
	}

	if h.commitListener != nil && committedEvent != nil {
		h.commitListener.OnCommit(ctx, committedEvent)
	}

	h.instrumentation.LogInfo(ctx, "reader deregistered",
		"reader_id", command.ReaderID.String())

	return Result{Execution: shell.BuildHandlerResult(retryStats, duration)}, nil
}

// executeCommand contains the core workflow that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (core.DomainEvent, error) {
	selector := BuildStreamSelector(command.ReaderID)

	ctx = journal.WithStrongConsistency(ctx)

	entries, maxSequenceNumber, err := h.journal.Read(ctx, selector)
	if err != nil {
		return nil, err
	}

	history, err := shell.DomainEventsFrom(entries)
	if err != nil {
		return nil, err
	}

	decision := Decide(history, command)
	if !decision.Accepted() {
		return nil, decision.Err()
	}

	entry, err := shell.EntryFrom(decision.Event(), shell.BuildCommandMetadata())
	if err != nil {
		return nil, err
	}

	if err := h.journal.Append(ctx, selector, maxSequenceNumber, entry); err != nil {
		return nil, err
	}

	return decision.Event(), nil
}
