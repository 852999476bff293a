package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sqlask/sqlask/internal/config"
	"github.com/sqlask/sqlask/internal/store"
)

// ErrMetadataQuery marks a rejected or unreadable catalog query.
var ErrMetadataQuery = errors.New("schema: metadata query failed")

const columnsQueryTemplate = `
SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = %s
ORDER BY table_name, ordinal_position`

type Introspector struct {
	DB     *sql.DB
	Driver string
	Schema string
	Logger *slog.Logger
}

// Describe reads the column catalog for the configured schema. A store that
// cannot be reached yields store.ErrConnection; a rejected catalog query
// yields ErrMetadataQuery.
func (i *Introspector) Describe(ctx context.Context) (Map, error) {
	if i.DB == nil {
		return Map{}, fmt.Errorf("%w: no database handle", store.ErrConnection)
	}
	logger := i.logger()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := i.DB.PingContext(pingCtx); err != nil {
		return Map{}, fmt.Errorf("%w: %v", store.ErrConnection, err)
	}

	rows, err := i.DB.QueryContext(ctx, columnsQuery(i.Driver), i.Schema)
	if err != nil {
		return Map{}, fmt.Errorf("%w: %v", ErrMetadataQuery, err)
	}
	defer func() { _ = rows.Close() }()

	var m Map
	columns := 0
	for rows.Next() {
		var table string
		var col ColumnInfo
		if err := rows.Scan(&table, &col.Name, &col.DataType); err != nil {
			return Map{}, fmt.Errorf("%w: scan column row: %v", ErrMetadataQuery, err)
		}
		m.Append(table, col)
		columns++
	}
	if err := rows.Err(); err != nil {
		return Map{}, fmt.Errorf("%w: iterate column rows: %v", ErrMetadataQuery, err)
	}

	if m.Len() == 0 {
		logger.Warn("schema has no tables", slog.String("schema", i.Schema))
	}
	logger.Info("schema introspected",
		slog.String("schema", i.Schema),
		slog.Int("tables", m.Len()),
		slog.Int("columns", columns),
	)
	return m, nil
}

func (i *Introspector) logger() *slog.Logger {
	if i.Logger != nil {
		return i.Logger
	}
	return slog.Default()
}

func columnsQuery(driver string) string {
	placeholder := "$1"
	if driver == config.DriverMySQL {
		placeholder = "?"
	}
	return fmt.Sprintf(columnsQueryTemplate, placeholder)
}
