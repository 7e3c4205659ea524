// Package config provides database configuration for journal testing.
//
// DSNs come from the environment with sensible localhost defaults; a .env
// file in the working directory is honored for local development. Factory
// functions build connections for every supported Postgres adapter
// (pgx.Pool, sql.DB, sqlx.DB), for single-node and primary/replica setups.
package config
