package store

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/sqlask/sqlask/internal/config"
)

func TestOpenRequiresDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	if err == nil {
		t.Fatal("expected error for empty driver")
	}
}

func TestDataSourcePostgres(t *testing.T) {
	driver, dsn, err := DataSource(Config{
		Driver:   config.DriverPostgres,
		Host:     "db.internal",
		User:     "analyst",
		Password: "it's secret",
		Database: "warehouse",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("DataSource() error = %v", err)
	}
	if driver != "pgx" {
		t.Fatalf("driver = %q", driver)
	}
	want := `host=db.internal port=5432 user=analyst password='it\'s secret' dbname=warehouse sslmode=disable`
	if dsn != want {
		t.Fatalf("dsn = %q, want %q", dsn, want)
	}
}

func TestDataSourceMySQL(t *testing.T) {
	driver, dsn, err := DataSource(Config{
		Driver:   config.DriverMySQL,
		Host:     "127.0.0.1",
		Port:     3307,
		User:     "root",
		Password: "pw",
		Database: "sqlask_demo",
	})
	if err != nil {
		t.Fatalf("DataSource() error = %v", err)
	}
	if driver != "mysql" || dsn != "root:pw@127.0.0.1:3307/sqlask_demo" {
		t.Fatalf("driver/dsn = %q/%q", driver, dsn)
	}
}

func TestDataSourceMySQLEscapesCredentials(t *testing.T) {
	_, dsn, err := DataSource(Config{
		Driver:   config.DriverMySQL,
		Host:     "db.internal",
		User:     "app@ops",
		Password: "p@ss:w/rd?%",
		Database: "sqlask_demo",
	})
	if err != nil {
		t.Fatalf("DataSource() error = %v", err)
	}
	if strings.Count(dsn, "@") != 1 {
		t.Fatalf("dsn = %q, want a single @ separator", dsn)
	}
	parsed, err := url.Parse("mysql://" + dsn)
	if err != nil {
		t.Fatalf("url.Parse(%q) error = %v", dsn, err)
	}
	password, _ := parsed.User.Password()
	if parsed.User.Username() != "app@ops" || password != "p@ss:w/rd?%" {
		t.Fatalf("credentials = %q/%q from %q", parsed.User.Username(), password, dsn)
	}
	if parsed.Host != "db.internal:3306" || parsed.Path != "/sqlask_demo" {
		t.Fatalf("host/path = %q/%q from %q", parsed.Host, parsed.Path, dsn)
	}
}

func TestDataSourcePrefersExplicitDSN(t *testing.T) {
	_, dsn, err := DataSource(Config{Driver: config.DriverPostgres, DSN: "postgres://x@y/z"})
	if err != nil {
		t.Fatalf("DataSource() error = %v", err)
	}
	if dsn != "postgres://x@y/z" {
		t.Fatalf("dsn = %q", dsn)
	}
}

func TestDataSourceRejectsUnknownDriver(t *testing.T) {
	if _, _, err := DataSource(Config{Driver: "oracle"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if _, _, err := DataSource(Config{Driver: config.DriverMySQL}); err == nil {
		t.Fatal("expected error for missing mysql host")
	}
}

func TestOpenInMemoryDuckDBUsesSingleConnection(t *testing.T) {
	db, err := Open(context.Background(), Config{Driver: config.DriverDuckDB})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	if got := db.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("MaxOpenConnections = %d", got)
	}
	var one int
	if err := db.QueryRowContext(context.Background(), "SELECT 1").Scan(&one); err != nil {
		t.Fatalf("query error = %v", err)
	}
}

func TestOpenUnreachableStoreReturnsConnectionError(t *testing.T) {
	_, err := Open(context.Background(), Config{
		Driver:      config.DriverPostgres,
		Host:        "127.0.0.1",
		Port:        1,
		User:        "nobody",
		Password:    "wrong",
		Database:    "missing",
		SSLMode:     "disable",
		PingTimeout: 2 * time.Second,
	})
	if err == nil {
		t.Fatal("expected connection error")
	}
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("error = %v, want ErrConnection", err)
	}
}
