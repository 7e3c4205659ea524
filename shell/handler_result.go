package shell

import "time"

// HandlerResult carries execution metadata from a command handler back to
// its caller, for logging and metrics at the edge.
type HandlerResult struct {
	// RetryStats describes the optimistic concurrency retries of this execution.
	RetryStats RetryStats

	// Duration is the total handler execution time including retries.
	Duration time.Duration
}

// BuildHandlerResult creates a HandlerResult from retry stats and total duration.
func BuildHandlerResult(stats RetryStats, duration time.Duration) HandlerResult {
	return HandlerResult{
		RetryStats: stats,
		Duration:   duration,
	}
}
