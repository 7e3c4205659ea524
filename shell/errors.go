package shell

import (
	"context"
	"errors"

	"github.com/openshelf/circulation-go/core"
	"github.com/openshelf/circulation-go/journal"
)

// MapError translates low-level failures into the error taxonomy callers see.
// Domain rule violations and context errors pass through unchanged, exhausted
// concurrency conflicts become core.ErrTransient, and everything else becomes
// core.ErrInternal so storage details never leak across the boundary.
func MapError(err error) error {
	switch {
	case err == nil:
		return nil

	case core.IsDomainError(err):
		return err

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err

	case errors.Is(err, journal.ErrConflict):
		return errors.Join(core.ErrTransient, err)

	default:
		// The cause is logged by the handler; callers only see the opaque kind.
		return core.ErrInternal
	}
}

// IsCancellationError checks if an error indicates client disconnection.
func IsCancellationError(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsTimeoutError checks if an error indicates a timeout occurred.
func IsTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
