// Package executor runs extracted statements against the session store and
// collects read results into a Report.
package executor

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/sqlask/sqlask/internal/observability"
	"github.com/sqlask/sqlask/internal/statement"
)

// ErrStatementRejected marks a statement refused by the read-only policy.
var ErrStatementRejected = errors.New("executor: statement rejected by read-only policy")

const reportHeading = "Execution Results in JSON format:"

type Policy struct {
	// ReadOnly refuses statements that parse as writes, and unparsable
	// statements that do not start with SELECT.
	ReadOnly bool
}

// Allows reports whether stmt may reach the store.
func (p Policy) Allows(stmt string) bool {
	if !p.ReadOnly {
		return true
	}
	switch statement.KindOf(stmt) {
	case statement.KindRead:
		return true
	case statement.KindWrite:
		return false
	default:
		return statement.IsRead(stmt)
	}
}

type Executor struct {
	DB               *sql.DB
	Policy           Policy
	StatementTimeout time.Duration
	// Out receives the JSON rendering of every report. Nil disables it.
	Out    io.Writer
	Logger *slog.Logger
}

// Execute runs statements in order. A failing statement is logged, recorded
// in Report.Failures and skipped; the rest still run.
func (e *Executor) Execute(ctx context.Context, statements []string) Report {
	logger := observability.LoggerFromContext(ctx, e.Logger)
	report := Report{Statements: len(statements)}

	if len(statements) == 0 {
		logger.Info("no statements to execute")
	}
	for index, stmt := range statements {
		e.run(ctx, logger, &report, index, stmt)
	}
	if report.AllFailed() {
		logger.Warn("all statements failed", slog.Int("statements", report.Statements))
	}

	if err := e.writeReport(report); err != nil {
		logger.Error("write execution report failed", slog.Any("error", err))
	}
	return report
}

func (e *Executor) run(ctx context.Context, logger *slog.Logger, report *Report, index int, stmt string) {
	logger = logger.With(slog.Int("statement_index", index), slog.String("statement", stmt))

	if !e.Policy.Allows(stmt) {
		err := fmt.Errorf("%w: %s", ErrStatementRejected, statement.KindOf(stmt))
		report.Failures = append(report.Failures, Failure{Statement: stmt, Err: err})
		observability.ObserveStatement(observability.StatementRejected, 0)
		logger.Warn("statement rejected", slog.Any("error", err))
		return
	}

	stmtCtx := ctx
	if e.StatementTimeout > 0 {
		var cancel context.CancelFunc
		stmtCtx, cancel = context.WithTimeout(ctx, e.StatementTimeout)
		defer cancel()
	}

	start := time.Now()
	if statement.IsRead(stmt) {
		rows, err := e.query(stmtCtx, stmt)
		elapsed := time.Since(start)
		if err != nil {
			e.fail(logger, report, stmt, err, elapsed)
			return
		}
		report.Set(stmt, rows)
		observability.ObserveStatement(observability.StatementRows, elapsed)
		logger.Debug("statement returned rows", slog.Int("rows", len(rows)), slog.String("duration", elapsed.String()))
		return
	}

	result, err := e.DB.ExecContext(stmtCtx, executableText(stmt))
	elapsed := time.Since(start)
	if err != nil {
		e.fail(logger, report, stmt, err, elapsed)
		return
	}
	observability.ObserveStatement(observability.StatementNoOutput, elapsed)
	attrs := []any{slog.String("duration", elapsed.String())}
	if affected, err := result.RowsAffected(); err == nil {
		attrs = append(attrs, slog.Int64("rows_affected", affected))
	}
	logger.Info("executed successfully (no output)", attrs...)
}

func (e *Executor) fail(logger *slog.Logger, report *Report, stmt string, err error, elapsed time.Duration) {
	report.Failures = append(report.Failures, Failure{Statement: stmt, Err: err})
	observability.ObserveStatement(observability.StatementFailed, elapsed)
	logger.Error("error executing statement", slog.Any("error", err))
}

func (e *Executor) query(ctx context.Context, stmt string) ([]Row, error) {
	rows, err := e.DB.QueryContext(ctx, executableText(stmt))
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}

	result := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(Row, len(columns))
		for i, name := range columns {
			row[i] = Column{Name: name, Value: normalizeValue(values[i])}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

func (e *Executor) writeReport(report Report) error {
	if e.Out == nil {
		return nil
	}
	encoder := json.NewEncoder(e.Out)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")
	if _, err := fmt.Fprintln(e.Out, reportHeading); err != nil {
		return err
	}
	return encoder.Encode(report)
}

// normalizeValue maps driver values onto what encoding/json can print.
// Non-finite floats use the Python json spellings. Driver types without a
// JSON form, such as duckdb.Decimal, fall back to their String method.
func normalizeValue(value any) any {
	switch typed := value.(type) {
	case nil:
		return nil
	case []byte:
		return string(typed)
	case float64:
		return finiteOrString(typed)
	case float32:
		return finiteOrString(float64(typed))
	case json.Marshaler:
		return typed
	case fmt.Stringer:
		return typed.String()
	default:
		return typed
	}
}

func finiteOrString(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return f
	}
}

// executableText drops trailing semicolons; the report keeps the original
// text as its key.
func executableText(stmt string) string {
	trimmed := strings.TrimSpace(stmt)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
