package journal

import "context"

// ConsistencyLevel defines the consistency requirements for journal reads.
type ConsistencyLevel int

const (
	// StrongConsistency requires reads from the primary database to ensure
	// read-after-write consistency. This is the default, so command handlers
	// performing read-check-append cycles always see their own writes.
	StrongConsistency ConsistencyLevel = iota

	// EventualConsistency allows reads from replica databases, trading
	// consistency for performance. Suitable for pure query operations that can
	// tolerate slightly stale data, such as catalog searches.
	EventualConsistency
)

// contextKey is a private type to prevent context key collisions.
type contextKey string

// ConsistencyLevelKey is the context key used to store consistency level preferences.
const ConsistencyLevelKey contextKey = "journal.consistency_level"

// WithStrongConsistency returns a context that signals journal reads should use
// the primary database.
func WithStrongConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, ConsistencyLevelKey, StrongConsistency)
}

// WithEventualConsistency returns a context that signals journal reads may be
// served by a replica.
func WithEventualConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, ConsistencyLevelKey, EventualConsistency)
}

// ReadConsistencyFrom extracts the consistency level from the context.
// If no consistency level is set, it returns StrongConsistency as the safe default.
func ReadConsistencyFrom(ctx context.Context) ConsistencyLevel {
	if level, ok := ctx.Value(ConsistencyLevelKey).(ConsistencyLevel); ok {
		return level
	}

	return StrongConsistency
}

// HasReadConsistency reports whether the context carries an explicit
// consistency level. Query handlers use this to apply their eventual-read
// default without overriding a caller's explicit choice.
func HasReadConsistency(ctx context.Context) bool {
	_, ok := ctx.Value(ConsistencyLevelKey).(ConsistencyLevel)

	return ok
}

// String provides a string representation of ConsistencyLevel for logging.
func (c ConsistencyLevel) String() string {
	switch c {
	case StrongConsistency:
		return "strong"
	case EventualConsistency:
		return "eventual"
	default:
		return "unknown"
	}
}
