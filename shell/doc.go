// Package shell is the imperative side shared by all feature slices: mapping
// between domain events and journal entries, conflict retry with exponential
// backoff, the error boundary towards callers, commit notification fan-out,
// and observability helpers for command and query handlers.
package shell
