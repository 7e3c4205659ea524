// Package adapters wraps the supported database client libraries (pgxpool,
// database/sql, sqlx) behind small interfaces so the engine can build and
// execute its queries without caring which client is in use.
package adapters
