// Package postgreswrapper provides helpers for running journal integration
// tests against any of the supported Postgres adapters. The adapter is chosen
// via the ADAPTER_TYPE environment variable (pgx.pool, sql.db, sqlx.db) and
// the schema is bootstrapped on demand. Tests skip when no database is
// reachable.
package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/openshelf/circulation-go/journal/postgresengine"
	"github.com/openshelf/circulation-go/testutil/config"
)

// Adapter type constants.
const (
	TypePGXPool = "pgx.pool"
	TypeSQLDB   = "sql.db"
	TypeSQLXDB  = "sqlx.db"
)

const createEntriesTableDDL = `
CREATE TABLE IF NOT EXISTS %s (
	sequence_number BIGSERIAL PRIMARY KEY,
	entry_type TEXT NOT NULL,
	recorded_at TIMESTAMP WITH TIME ZONE NOT NULL,
	payload JSONB NOT NULL,
	metadata JSONB NOT NULL
)`

const createSnapshotsTableDDL = `
CREATE TABLE IF NOT EXISTS %s (
	projection_type TEXT NOT NULL,
	selector_hash TEXT NOT NULL,
	sequence_number BIGINT NOT NULL,
	data JSONB NOT NULL,
	taken_at TIMESTAMP WITH TIME ZONE NOT NULL,
	PRIMARY KEY (projection_type, selector_hash)
)`

// Wrapper abstracts over the adapter-specific connection handling.
type Wrapper interface {
	GetJournal() postgresengine.Journal
	Close()
}

type pgxPoolWrapper struct {
	pool *pgxpool.Pool
	j    postgresengine.Journal
}

func (w *pgxPoolWrapper) GetJournal() postgresengine.Journal { return w.j }
func (w *pgxPoolWrapper) Close()                             { w.pool.Close() }

type sqlDBWrapper struct {
	db *sql.DB
	j  postgresengine.Journal
}

func (w *sqlDBWrapper) GetJournal() postgresengine.Journal { return w.j }
func (w *sqlDBWrapper) Close()                             { _ = w.db.Close() }

type sqlxWrapper struct {
	db *sqlx.DB
	j  postgresengine.Journal
}

func (w *sqlxWrapper) GetJournal() postgresengine.Journal { return w.j }
func (w *sqlxWrapper) Close()                             { _ = w.db.Close() }

// CreateWrapperWithTestConfig builds a journal wrapper for the configured
// adapter type, bootstrapping the schema. Skips the test when the database is
// not reachable.
func CreateWrapperWithTestConfig(t testing.TB) Wrapper {
	t.Helper()

	adapterType := strings.ToLower(config.AdapterType())

	switch adapterType {
	case TypePGXPool, "":
		pool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolSingleConfig())
		require.NoError(t, err, "error building DB pool in test setup")

		skipUnlessReachablePGX(t, pool)
		bootstrapSchemaPGX(t, pool)

		j, err := postgresengine.NewJournalFromPGXPool(pool)
		require.NoError(t, err, "error creating journal")

		return &pgxPoolWrapper{pool: pool, j: j}

	case TypeSQLDB:
		db, err := config.PostgresSQLDBSingleConfig()
		require.NoError(t, err, "error opening DB in test setup")

		skipUnlessReachableSQL(t, db)
		bootstrapSchemaSQL(t, db)

		j, err := postgresengine.NewJournalFromSQLDB(db)
		require.NoError(t, err, "error creating journal")

		return &sqlDBWrapper{db: db, j: j}

	case TypeSQLXDB:
		db, err := config.PostgresSQLXSingleConfig()
		require.NoError(t, err, "error opening DB in test setup")

		skipUnlessReachableSQL(t, db.DB)
		bootstrapSchemaSQL(t, db.DB)

		j, err := postgresengine.NewJournalFromSQLX(db)
		require.NoError(t, err, "error creating journal")

		return &sqlxWrapper{db: db, j: j}

	default:
		t.Fatalf("unsupported adapter type from env: %s", adapterType)
		return nil
	}
}

// CleanUp truncates the journal tables between tests.
func CleanUp(t testing.TB, wrapper Wrapper) {
	t.Helper()

	adapterType := strings.ToLower(config.AdapterType())

	switch w := wrapper.(type) {
	case *pgxPoolWrapper:
		_, err := w.pool.Exec(context.Background(), "TRUNCATE TABLE journal_entries, journal_snapshots")
		require.NoError(t, err, "error cleaning up journal tables")

	case *sqlDBWrapper:
		_, err := w.db.Exec("TRUNCATE TABLE journal_entries, journal_snapshots")
		require.NoError(t, err, "error cleaning up journal tables")

	case *sqlxWrapper:
		_, err := w.db.Exec("TRUNCATE TABLE journal_entries, journal_snapshots")
		require.NoError(t, err, "error cleaning up journal tables")

	default:
		t.Fatalf("unsupported wrapper for adapter type: %s", adapterType)
	}
}

func skipUnlessReachablePGX(t testing.TB, pool *pgxpool.Pool) {
	t.Helper()

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		t.Skipf("postgres not reachable, skipping integration test: %v", err)
	}
}

func skipUnlessReachableSQL(t testing.TB, db *sql.DB) {
	t.Helper()

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		t.Skipf("postgres not reachable, skipping integration test: %v", err)
	}
}

func bootstrapSchemaPGX(t testing.TB, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	_, err := pool.Exec(ctx, fmt.Sprintf(createEntriesTableDDL, "journal_entries"))
	require.NoError(t, err, "error creating journal_entries table")

	_, err = pool.Exec(ctx, fmt.Sprintf(createSnapshotsTableDDL, "journal_snapshots"))
	require.NoError(t, err, "error creating journal_snapshots table")
}

func bootstrapSchemaSQL(t testing.TB, db *sql.DB) {
	t.Helper()

	_, err := db.Exec(fmt.Sprintf(createEntriesTableDDL, "journal_entries"))
	require.NoError(t, err, "error creating journal_entries table")

	_, err = db.Exec(fmt.Sprintf(createSnapshotsTableDDL, "journal_snapshots"))
	require.NoError(t, err, "error creating journal_snapshots table")
}
