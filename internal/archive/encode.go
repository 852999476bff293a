package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/sqlask/sqlask/internal/executor"
)

// ReportRow is one archived result row. A read that returned no rows is
// kept as a single row with RowIndex -1 and an empty RowJSON.
type ReportRow struct {
	SessionID      string `parquet:"session_id"`
	QuestionSeq    int64  `parquet:"question_seq"`
	Question       string `parquet:"question"`
	Statement      string `parquet:"statement"`
	StatementIndex int64  `parquet:"statement_index"`
	RowIndex       int64  `parquet:"row_index"`
	RowJSON        string `parquet:"row_json"`
}

type EncodeResult struct {
	Data        []byte
	RecordCount int64
}

func EncodeReport(meta Meta, report executor.Report) (EncodeResult, error) {
	entries := report.Entries()
	if len(entries) == 0 {
		return EncodeResult{}, ErrEmptyReport
	}

	rows := make([]ReportRow, 0, len(entries))
	for statementIndex, entry := range entries {
		base := ReportRow{
			SessionID:      meta.SessionID,
			QuestionSeq:    int64(meta.QuestionSeq),
			Question:       meta.Question,
			Statement:      entry.Statement,
			StatementIndex: int64(statementIndex),
			RowIndex:       -1,
		}
		if len(entry.Rows) == 0 {
			rows = append(rows, base)
			continue
		}
		for rowIndex, row := range entry.Rows {
			rowJSON, err := json.Marshal(row)
			if err != nil {
				return EncodeResult{}, fmt.Errorf("encode row %d of statement %d: %w", rowIndex, statementIndex, err)
			}
			archived := base
			archived.RowIndex = int64(rowIndex)
			archived.RowJSON = string(rowJSON)
			rows = append(rows, archived)
		}
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[ReportRow](buf)
	if _, err := writer.Write(rows); err != nil {
		return EncodeResult{}, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return EncodeResult{}, fmt.Errorf("close parquet writer: %w", err)
	}
	return EncodeResult{Data: buf.Bytes(), RecordCount: int64(len(rows))}, nil
}

func DecodeReport(data []byte) ([]ReportRow, error) {
	reader := parquet.NewGenericReader[ReportRow](bytes.NewReader(data))
	defer func() { _ = reader.Close() }()

	rows := make([]ReportRow, reader.NumRows())
	count, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read parquet rows: %w", err)
	}
	return rows[:count], nil
}
