//go:build integration

package migrations

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sqlask/sqlask/internal/store"
)

func TestRunnerAppliesDemoSchemaOnServerStores(t *testing.T) {
	targets := []struct {
		driver string
		env    string
	}{
		{driver: "postgres", env: "SQLASK_TEST_POSTGRES_DSN"},
		{driver: "mysql", env: "SQLASK_TEST_MYSQL_DSN"},
	}
	for _, target := range targets {
		t.Run(target.driver, func(t *testing.T) {
			dsn := strings.TrimSpace(os.Getenv(target.env))
			if dsn == "" {
				t.Skipf("%s is not set", target.env)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
			defer cancel()

			db, err := store.Open(ctx, store.Config{Driver: target.driver, DSN: dsn})
			if err != nil {
				t.Fatalf("store.Open() error = %v", err)
			}
			defer func() { _ = db.Close() }()

			runner := NewRunner(target.driver)
			if _, err := runner.Up(ctx, db, 0); err != nil {
				t.Fatalf("runner.Up() error = %v", err)
			}
			var count int
			if err := db.QueryRowContext(ctx, `SELECT count(*) FROM batch`).Scan(&count); err != nil {
				t.Fatalf("count batch rows: %v", err)
			}
			if count != 5 {
				t.Fatalf("batch rows = %d, want 5", count)
			}
			if _, err := runner.Down(ctx, db, 2); err != nil {
				t.Fatalf("runner.Down() error = %v", err)
			}
		})
	}
}
