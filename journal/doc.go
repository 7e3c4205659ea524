// Package journal defines the storage-agnostic building blocks of the
// circulation journal: storable entries, stream selectors, snapshots,
// read-consistency levels and the observability interfaces implemented
// by the engine packages.
//
// The journal is an append-only log of domain events. A "dynamic stream"
// is not declared upfront but selected on every operation by a Selector
// combining entry types and payload predicates. Appends are conditional
// on the maximum sequence number of that stream, which gives optimistic
// concurrency control without locks: a conflicting commit makes the
// append affect zero rows and surface ErrConflict.
package journal
