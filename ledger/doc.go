// Package ledger is the authoritative model of per-book stock and holder sets.
//
// A Book is projected from the journal's domain events; its operation methods
// validate the circulation preconditions and compute the resulting
// availability without side effects. The invariant 0 <= available <= total
// stock holds by construction: availability is always total stock minus the
// size of the holder set, and no operation can grow the holder set past the
// stock or shrink stock below the holder count.
package ledger
