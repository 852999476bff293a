// Package archive exports execution reports as parquet objects.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/sqlask/sqlask/internal/executor"
	"github.com/sqlask/sqlask/internal/observability"
	"github.com/sqlask/sqlask/internal/storage"
)

var ErrEmptyReport = errors.New("archive: report has no entries")

// Meta identifies the question a report answers.
type Meta struct {
	SessionID   string
	QuestionSeq int
	Question    string
}

type Archiver struct {
	Store  storage.ObjectStore
	Now    func() time.Time
	Logger *slog.Logger
}

// Archive uploads report and returns the object key. Reports without
// entries are skipped with ErrEmptyReport.
func (a *Archiver) Archive(ctx context.Context, meta Meta, report executor.Report) (string, error) {
	if a.Store == nil {
		return "", fmt.Errorf("object store is required")
	}
	encoded, err := EncodeReport(meta, report)
	if err != nil {
		return "", err
	}

	key, err := storage.BuildReportPath(meta.SessionID, meta.QuestionSeq, a.now())
	if err != nil {
		return "", err
	}
	_, err = a.Store.Put(ctx, key, bytes.NewReader(encoded.Data), int64(len(encoded.Data)), storage.PutOptions{
		Metadata: map[string]string{
			"session-id":   meta.SessionID,
			"question-seq": strconv.Itoa(meta.QuestionSeq),
			"record-count": strconv.FormatInt(encoded.RecordCount, 10),
		},
	})
	observability.ObserveArchiveUpload(err)
	if err != nil {
		return "", fmt.Errorf("upload report: %w", err)
	}

	observability.LoggerFromContext(ctx, a.Logger).Info("report archived",
		slog.String("key", key),
		slog.Int64("rows", encoded.RecordCount),
		slog.Int("bytes", len(encoded.Data)),
	)
	return key, nil
}

// Load reads an archived report back in statement then row order.
func (a *Archiver) Load(ctx context.Context, key string) ([]ReportRow, error) {
	if a.Store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	reader, err := a.Store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read report %q: %w", key, err)
	}
	rows, err := DecodeReport(data)
	if err != nil {
		return nil, fmt.Errorf("decode report %q: %w", key, err)
	}
	sortRows(rows)
	return rows, nil
}

func (a *Archiver) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}
