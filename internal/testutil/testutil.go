// Package testutil opens migrated databases for tests: a file-backed SQLite
// database per test, and a shared PostgreSQL container when enabled.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/folio-app/folio/internal/db"
)

// PostgresEnabledEnv turns on the container-backed tests when set to 1.
const PostgresEnabledEnv = "FOLIO_TEST_POSTGRES"

// PostgresDSNEnv points the tests at an existing database instead of a container.
const PostgresDSNEnv = "TEST_POSTGRES_DSN"

var (
	singletonOnce sync.Once
	singletonDSN  string
	singletonErr  error
)

// SQLite returns a migrated database in the test's temp directory.
func SQLite(t testing.TB) *db.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "folio.db")
	return open(t, &db.Config{
		Driver:       "sqlite",
		DSN:          "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		MaxOpenConns: 1,
	})
}

// Postgres returns a migrated PostgreSQL database, or skips the test when
// neither FOLIO_TEST_POSTGRES=1 nor TEST_POSTGRES_DSN is set.
func Postgres(t testing.TB) *db.DB {
	t.Helper()
	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		if os.Getenv(PostgresEnabledEnv) != "1" {
			t.Skipf("set %s=1 or %s to run PostgreSQL tests", PostgresEnabledEnv, PostgresDSNEnv)
		}
		var err error
		dsn, err = ensureContainer()
		if err != nil {
			t.Fatalf("postgres container: %v", err)
		}
	}

	d := open(t, &db.Config{Driver: "pgx", DSN: dsn, MaxOpenConns: 5})
	truncate(t, d)
	return d
}

func open(t testing.TB, cfg *db.Config) *db.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	d, err := db.Open(ctx, cfg)
	if err != nil {
		t.Fatalf("open %s: %v", cfg.Driver, err)
	}
	t.Cleanup(func() { d.Close() })

	if err := d.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return d
}

func truncate(t testing.TB, d *db.DB) {
	t.Helper()
	ctx := context.Background()
	for _, table := range []string{"portfolios", "users"} {
		if _, err := d.Exec(ctx, db.Delete(table, nil)); err != nil {
			t.Fatalf("clean %s: %v", table, err)
		}
	}
}

// ensureContainer starts one PostgreSQL container per test binary.
// Ryuk removes it when the process exits.
func ensureContainer() (string, error) {
	singletonOnce.Do(func() {
		ctx := context.Background()

		container, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("folio"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			singletonErr = fmt.Errorf("failed to start PostgreSQL container: %w", err)
			return
		}

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			_ = container.Terminate(ctx)
			singletonErr = fmt.Errorf("failed to get PostgreSQL connection string: %w", err)
			return
		}
		singletonDSN = dsn
	})
	return singletonDSN, singletonErr
}
