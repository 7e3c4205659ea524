// Package core contains the pure domain model of the circulation system:
// domain events, the decision type returned by the feature decide functions,
// and the stable error kinds surfaced to callers.
//
// Nothing in this package performs I/O. State is always a fold over domain
// events, and decisions either accept exactly one new event or reject the
// command with a typed error and no event, so a rejected command can never
// mutate state.
package core
