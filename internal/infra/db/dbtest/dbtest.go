// Package dbtest connects tests to a real Postgres named by KINO_TEST_POSTGRES_DSN.
package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Spok95/kino-bot/internal/infra/db"
)

const dsnEnv = "KINO_TEST_POSTGRES_DSN"

// Pool migrates the test database and returns a pool over empty tables.
// The test is skipped when the DSN is not set.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skip(dsnEnv + " not set")
	}
	if err := db.Migrate(dsn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE users, admins, channels, submissions, catalog_entries, settings, dialog_states`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}
