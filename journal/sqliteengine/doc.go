// Package sqliteengine implements the circulation journal on SQLite using the
// pure-Go modernc.org/sqlite driver.
//
// It offers the same Read/Append/snapshot contract as postgresengine with the
// same optimistic concurrency discipline: appends are conditional inserts
// guarded by the selected stream's expected maximum sequence number. Payload
// predicates are matched with json_extract instead of jsonb containment.
//
// Intended for tests, demos and single-node embedding; there is no replica
// support, reads always see the latest committed state.
package sqliteengine
