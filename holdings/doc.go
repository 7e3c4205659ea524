// Package holdings is the authoritative model of each reader's held-book set,
// bounded by the borrow limit.
//
// A Reader is projected from the journal's domain events; its operation
// methods validate the borrow-limit preconditions without side effects. The
// invariant 0 <= held <= BorrowLimit holds by construction.
package holdings
