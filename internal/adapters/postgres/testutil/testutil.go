// Package testutil provides database fixtures for postgres adapter tests.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/sair-explore/quest-api/internal/adapters/postgres"
	"github.com/sair-explore/quest-api/internal/adapters/postgres/migrations"
)

// OpenMigratedPool connects to TEST_DATABASE_URL, applies migrations, and
// truncates workflow tables so every test starts clean. Tests are skipped
// when no test database is configured.
func OpenMigratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres contract tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := migrations.Run(dsn); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolOptions{})
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, `TRUNCATE quests, users`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return pool
}
