package core

// Decision represents the outcome of a decide function: either a single new
// domain event to append, or a typed rejection carrying no event at all.
//
// IMPORTANT: Decision should only be constructed using the Accept and Reject
// factory methods.
type Decision struct {
	event DomainEvent
	err   error
}

// Accept creates a Decision carrying the event to append.
func Accept(event DomainEvent) Decision {
	return Decision{event: event}
}

// Reject creates a Decision carrying the rejection error. No event is
// produced, so a rejected command never mutates state.
func Reject(err error) Decision {
	return Decision{err: err}
}

// Accepted reports whether the command was accepted.
func (d Decision) Accepted() bool {
	return d.err == nil
}

// Event returns the event to append, nil for rejected decisions.
func (d Decision) Event() DomainEvent {
	return d.event
}

// Err returns the rejection error, nil for accepted decisions.
func (d Decision) Err() error {
	return d.err
}
