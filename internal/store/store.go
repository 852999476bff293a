// Package store opens the single relational connection a session runs on.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-mysql-org/go-mysql/driver"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/sqlask/sqlask/internal/config"
)

// ErrConnection marks an unreachable store or rejected credentials.
var ErrConnection = errors.New("store: connection failed")

const defaultPingTimeout = 5 * time.Second

type Config struct {
	Driver      string
	DSN         string
	Host        string
	Port        int
	User        string
	Password    string
	Database    string
	SSLMode     string
	PingTimeout time.Duration
}

// FromConfig maps the application database settings to a store Config.
func FromConfig(db config.DatabaseConfig) Config {
	return Config{
		Driver:   db.Driver,
		DSN:      db.DSN,
		Host:     db.Host,
		Port:     db.Port,
		User:     db.User,
		Password: db.Password,
		Database: db.Name,
		SSLMode:  db.SSLMode,
	}
}

// Open connects eagerly and caps the pool at one connection, so every
// statement of the session shares the same server session.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	driverName, dsn, err := DataSource(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrConnection, cfg.Driver, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", ErrConnection, cfg.Driver, err)
	}

	return db, nil
}

// DataSource returns the database/sql driver name and DSN for cfg.
func DataSource(cfg Config) (string, string, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		if cfg.DSN != "" {
			return "pgx", cfg.DSN, nil
		}
		if cfg.Host == "" {
			return "", "", fmt.Errorf("postgres host is required")
		}
		parts := []string{
			"host=" + quoteKeywordValue(cfg.Host),
			"port=" + strconv.Itoa(portOr(cfg.Port, 5432)),
		}
		if cfg.User != "" {
			parts = append(parts, "user="+quoteKeywordValue(cfg.User))
		}
		if cfg.Password != "" {
			parts = append(parts, "password="+quoteKeywordValue(cfg.Password))
		}
		if cfg.Database != "" {
			parts = append(parts, "dbname="+quoteKeywordValue(cfg.Database))
		}
		if cfg.SSLMode != "" {
			parts = append(parts, "sslmode="+quoteKeywordValue(cfg.SSLMode))
		}
		return "pgx", strings.Join(parts, " "), nil
	case config.DriverMySQL:
		if cfg.DSN != "" {
			return "mysql", cfg.DSN, nil
		}
		if cfg.Host == "" {
			return "", "", fmt.Errorf("mysql host is required")
		}
		return "mysql", mysqlDSN(cfg), nil
	case config.DriverDuckDB:
		if cfg.DSN != "" {
			return "duckdb", cfg.DSN, nil
		}
		// An empty database name opens an in-memory instance.
		return "duckdb", cfg.Database, nil
	case "":
		return "", "", fmt.Errorf("store driver is required")
	default:
		return "", "", fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

// mysqlDSN builds user:password@addr/db. The go-mysql driver parses DSNs as
// URLs, so the credentials and database name are percent-encoded.
func mysqlDSN(cfg Config) string {
	var dsn strings.Builder
	if cfg.User != "" || cfg.Password != "" {
		info := url.User(cfg.User)
		if cfg.Password != "" {
			info = url.UserPassword(cfg.User, cfg.Password)
		}
		dsn.WriteString(info.String())
		dsn.WriteString("@")
	}
	dsn.WriteString(net.JoinHostPort(cfg.Host, strconv.Itoa(portOr(cfg.Port, 3306))))
	if cfg.Database != "" {
		dsn.WriteString("/" + url.PathEscape(cfg.Database))
	}
	return dsn.String()
}

func portOr(port, fallback int) int {
	if port > 0 {
		return port
	}
	return fallback
}

// quoteKeywordValue quotes a libpq keyword/value entry when needed.
func quoteKeywordValue(value string) string {
	if value != "" && !strings.ContainsAny(value, ` '\`) {
		return value
	}
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `'`, `\'`)
	return `'` + escaped + `'`
}
