package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// WriteJSON prints archived rows in the layout of the live report: one key
// per statement in statement order, each holding its rows as stored.
func WriteJSON(w io.Writer, rows []ReportRow) error {
	sorted := make([]ReportRow, len(rows))
	copy(sorted, rows)
	sortRows(sorted)

	var compact bytes.Buffer
	compact.WriteByte('{')
	current := int64(-1)
	rowsInStatement := 0
	for _, row := range sorted {
		if current < 0 || row.StatementIndex != current {
			if current >= 0 {
				compact.WriteString("],")
			}
			key, err := marshalString(row.Statement)
			if err != nil {
				return err
			}
			compact.Write(key)
			compact.WriteString(":[")
			current = row.StatementIndex
			rowsInStatement = 0
		}
		if row.RowIndex < 0 {
			continue
		}
		if !json.Valid([]byte(row.RowJSON)) {
			return fmt.Errorf("row %d of statement %d is not valid JSON", row.RowIndex, row.StatementIndex)
		}
		if rowsInStatement > 0 {
			compact.WriteByte(',')
		}
		compact.WriteString(row.RowJSON)
		rowsInStatement++
	}
	if current >= 0 {
		compact.WriteByte(']')
	}
	compact.WriteByte('}')

	var indented bytes.Buffer
	if err := json.Indent(&indented, compact.Bytes(), "", "    "); err != nil {
		return fmt.Errorf("format archived report: %w", err)
	}
	indented.WriteByte('\n')
	_, err := w.Write(indented.Bytes())
	return err
}

func sortRows(rows []ReportRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].StatementIndex != rows[j].StatementIndex {
			return rows[i].StatementIndex < rows[j].StatementIndex
		}
		return rows[i].RowIndex < rows[j].RowIndex
	})
}

func marshalString(value string) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}
