// Package testutil provides shared helpers for the Postgres integration tests.
// Every helper that takes a *testing.T skips the test when TEST_DATABASE_URL
// is unset, so `go test ./...` stays green on machines without a database.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/pkordes/footsteps/migrations"
)

// DSNEnv names the environment variable holding the test database URL.
const DSNEnv = "TEST_DATABASE_URL"

// NewPool returns a pinged pool for the test database, closed on cleanup.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	pool, err := openPool(context.Background(), requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewPool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// NewTx begins a transaction on a fresh pool and rolls it back when the test
// finishes. Repos built on it see an isolated view of the database.
func NewTx(t *testing.T) pgx.Tx {
	t.Helper()

	pool := NewPool(t)
	tx, err := pool.Begin(context.Background())
	if err != nil {
		t.Fatalf("testutil.NewTx: begin: %v", err)
	}
	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})
	return tx
}

// NewSQLDB returns a database/sql handle over a pgx pool, for driving goose.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()

	pool := NewPool(t)
	db := stdlib.OpenDBFromPool(pool)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// MustMigrate applies every pending migration to the database named by
// TEST_DATABASE_URL. It is meant for TestMain, which has no *testing.T, and
// reports false when no test database is configured.
func MustMigrate() bool {
	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		return false
	}

	ctx := context.Background()
	pool, err := openPool(ctx, dsn)
	if err != nil {
		panic("testutil.MustMigrate: " + err.Error())
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if _, err := migrations.Up(ctx, db); err != nil {
		panic("testutil.MustMigrate: " + err.Error())
	}
	return true
}

func openPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv(DSNEnv)
	if dsn == "" {
		t.Skip(DSNEnv + " not set; skipping integration test")
	}
	return dsn
}
