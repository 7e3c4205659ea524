// Package postgresengine implements the circulation journal on PostgreSQL.
//
// Entries live in a single append-only table. Reads select the dynamic stream
// described by a journal.Selector ordered by sequence number; appends are
// conditional inserts guarded by the stream's expected maximum sequence number,
// so concurrent commits to the same stream are detected via rows-affected and
// surfaced as journal.ErrConflict.
//
// The engine can be constructed from a pgxpool.Pool (optionally with a replica
// pool for eventually consistent reads), a database/sql DB, or a sqlx.DB.
package postgresengine
