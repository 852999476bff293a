// Package sqlask wires configuration, store, language model and pipeline
// into the sqlask command.
package sqlask

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/sqlask/sqlask/internal/archive"
	"github.com/sqlask/sqlask/internal/config"
	"github.com/sqlask/sqlask/internal/executor"
	"github.com/sqlask/sqlask/internal/nl2sql"
	"github.com/sqlask/sqlask/internal/observability"
	"github.com/sqlask/sqlask/internal/pipeline"
	"github.com/sqlask/sqlask/internal/schema"
	"github.com/sqlask/sqlask/internal/storage"
	"github.com/sqlask/sqlask/internal/store"
	s3store "github.com/sqlask/sqlask/internal/storage/s3"
)

const (
	exitOK     = 0
	exitFatal  = 1
	exitUsage  = 2
	exitFailed = 3
)

type Options struct {
	Config     config.Config
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
	Logger     *slog.Logger
	HTTPClient *http.Client
	// ObjectStore replaces the S3 archive store built from Config.Archive.
	ObjectStore storage.ObjectStore
	// SessionID names archived reports; a random UUID when empty.
	SessionID string
}

// Run executes the command and returns the process exit code.
func Run(ctx context.Context, args []string, opts Options) int {
	stdout := opts.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	stdin := opts.Stdin
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg := opts.Config

	fs := flag.NewFlagSet("sqlask", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { writeUsage(fs, stderr) }

	question := fs.String("question", "", "answer one question and exit instead of prompting")
	readOnly := fs.Bool("read-only", cfg.Exec.ReadOnly, "reject statements that modify the database")
	printSchema := fs.Bool("print-schema", cfg.Service.Verbose, "print the rendered schema and a column listing before the first question")
	archiveReports := fs.Bool("archive", cfg.Archive.Enabled, "upload each report as parquet to the archive bucket")
	showArchive := fs.String("show-archive", "", "print an archived report by object key and exit")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() > 0 {
		_, _ = fmt.Fprintf(stderr, "unexpected argument %q\n\n", fs.Arg(0))
		writeUsage(fs, stderr)
		return exitUsage
	}

	if key := strings.TrimSpace(*showArchive); key != "" {
		return printArchivedReport(ctx, key, cfg, opts.ObjectStore, stdout, stderr, logger)
	}

	if strings.TrimSpace(cfg.AI.APIKey) == "" {
		logger.Error("language model api key is not set")
		_, _ = fmt.Fprintln(stderr, color.RedString("OPENAI_API_KEY (or SQLASK_AI_API_KEY) must be set."))
		return exitFatal
	}

	db, err := store.Open(ctx, store.FromConfig(cfg.Database))
	if err != nil {
		logger.Error("failed to connect to database", slog.String("driver", cfg.Database.Driver), slog.Any("error", err))
		_, _ = fmt.Fprintln(stderr, color.RedString("Error connecting to database: %v", err))
		return exitFatal
	}
	defer func() { _ = db.Close() }()

	introspector := &schema.Introspector{DB: db, Driver: cfg.Database.Driver, Schema: cfg.Database.Schema, Logger: logger}
	schemaMap, err := introspector.Describe(ctx)
	if err != nil {
		logger.Error("failed to read schema", slog.Any("error", err))
		_, _ = fmt.Fprintln(stderr, color.RedString("Error reading database schema: %v", err))
		return exitFatal
	}
	schemaText := schema.Render(schemaMap)
	logger.Debug("schema rendered", slog.String("schema_info", schemaText))
	if *printSchema {
		if err := printSchemaTo(stdout, schemaText, schemaMap); err != nil {
			logger.Warn("print schema failed", slog.Any("error", err))
		}
	}

	if addr := strings.TrimSpace(cfg.Observability.MetricsAddr); addr != "" {
		metrics, err := observability.StartMetricsServer(addr, logger)
		if err != nil {
			logger.Error("failed to start metrics server", slog.String("addr", addr), slog.Any("error", err))
			return exitFatal
		}
		defer func() { _ = metrics.Close() }()
	}

	client, err := nl2sql.NewOpenAIClient(nl2sql.OpenAIConfig{
		BaseURL:               cfg.AI.BaseURL,
		APIKey:                cfg.AI.APIKey,
		Model:                 cfg.AI.Model,
		Dialect:               dialectName(cfg.Database.Driver),
		ClassifyTemperature:   cfg.AI.ClassifyTemperature,
		SynthesizeTemperature: cfg.AI.SynthesizeTemperature,
		MaxTokens:             cfg.AI.MaxTokens,
		Timeout:               cfg.AI.Timeout,
		HTTPClient:            opts.HTTPClient,
		Logger:                logger,
	})
	if err != nil {
		logger.Error("failed to initialize language model client", slog.Any("error", err))
		return exitFatal
	}

	sessionID := strings.TrimSpace(opts.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	p := &pipeline.Pipeline{
		Classifier:  client,
		Synthesizer: client,
		Executor: &executor.Executor{
			DB:               db,
			Policy:           executor.Policy{ReadOnly: *readOnly},
			StatementTimeout: cfg.Exec.StatementTimeout,
			Out:              stdout,
			Logger:           logger,
		},
		SchemaText: schemaText,
		SessionID:  sessionID,
		Out:        stdout,
		Logger:     logger,
	}
	if *archiveReports {
		objectStore, err := archiveStore(ctx, cfg, opts.ObjectStore)
		if err != nil {
			logger.Error("failed to initialize report archive", slog.Any("error", err))
			return exitFatal
		}
		p.Archiver = &archive.Archiver{Store: objectStore, Logger: logger}
	}
	logger.Info("session started",
		slog.String("session_id", sessionID),
		slog.Int("tables", schemaMap.Len()),
		slog.Bool("read_only", *readOnly),
		slog.Bool("archive", *archiveReports),
	)

	if strings.TrimSpace(*question) != "" {
		return askOnce(ctx, p, strings.TrimSpace(*question), stdout, stderr, logger)
	}

	session := &pipeline.Session{Asker: p, Out: stdout, Logger: logger}
	if err := session.Run(ctx, stdin); err != nil {
		if errors.Is(err, context.Canceled) {
			return exitOK
		}
		logger.Error("session ended", slog.Any("error", err))
		return exitFatal
	}
	return exitOK
}

func askOnce(ctx context.Context, p *pipeline.Pipeline, question string, stdout, stderr io.Writer, logger *slog.Logger) int {
	answer, err := p.Ask(ctx, question)
	if err != nil {
		logger.Error("question failed", slog.Any("error", err))
		_, _ = fmt.Fprintln(stderr, color.RedString("Could not answer the question: %v", err))
		return exitFailed
	}
	if answer.Unanswerable != "" {
		_, _ = fmt.Fprintln(stdout, color.YellowString("Cannot answer with this database: %s", answer.Unanswerable))
	}
	if answer.ArchiveKey != "" {
		_, _ = fmt.Fprintf(stdout, "Report archived: %s\n", answer.ArchiveKey)
	}
	return exitOK
}

func archiveStore(ctx context.Context, cfg config.Config, override storage.ObjectStore) (storage.ObjectStore, error) {
	if override != nil {
		return override, nil
	}
	return s3store.New(ctx, s3store.FromConfig(cfg.Archive))
}

func printArchivedReport(ctx context.Context, key string, cfg config.Config, override storage.ObjectStore, stdout, stderr io.Writer, logger *slog.Logger) int {
	objectStore, err := archiveStore(ctx, cfg, override)
	if err != nil {
		logger.Error("failed to initialize report archive", slog.Any("error", err))
		_, _ = fmt.Fprintln(stderr, color.RedString("Error opening report archive: %v", err))
		return exitFatal
	}
	archiver := &archive.Archiver{Store: objectStore, Logger: logger}
	rows, err := archiver.Load(ctx, key)
	if err != nil {
		logger.Error("failed to load archived report", slog.String("key", key), slog.Any("error", err))
		if errors.Is(err, storage.ErrObjectNotFound) {
			_, _ = fmt.Fprintln(stderr, color.RedString("No archived report at %s", key))
		} else {
			_, _ = fmt.Fprintln(stderr, color.RedString("Error reading archived report: %v", err))
		}
		return exitFailed
	}
	if len(rows) > 0 {
		_, _ = fmt.Fprintf(stdout, "Question %d of session %s: %s\n", rows[0].QuestionSeq, rows[0].SessionID, rows[0].Question)
	}
	if err := archive.WriteJSON(stdout, rows); err != nil {
		logger.Error("failed to print archived report", slog.String("key", key), slog.Any("error", err))
		return exitFailed
	}
	return exitOK
}

func printSchemaTo(w io.Writer, schemaText string, schemaMap schema.Map) error {
	if _, err := fmt.Fprintln(w, schemaText); err != nil {
		return err
	}
	return schema.PrintTo(w, schemaMap)
}

func dialectName(driver string) string {
	switch driver {
	case config.DriverPostgres:
		return "PostgreSQL"
	case config.DriverMySQL:
		return "MariaDB/MySQL"
	case config.DriverDuckDB:
		return "DuckDB"
	default:
		return ""
	}
}

func writeUsage(fs *flag.FlagSet, w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: sqlask [flags]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Asks questions about a relational database in plain language.")
	_, _ = fmt.Fprintln(w, "Without -question, questions are read from stdin until 'exit'.")
	_, _ = fmt.Fprintln(w, "Exit status is 1 for startup failures, 2 for usage errors and 3 when a")
	_, _ = fmt.Fprintln(w, "-question or -show-archive request fails.")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "flags:")
	fs.PrintDefaults()
}
