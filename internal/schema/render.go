package schema

import (
	"fmt"
	"io"
	"strings"
)

const renderHeader = "The following is the schema of the database:\n"

// Render describes m in prose, one sentence per table. Output depends only
// on m, so equal maps render byte-identical text.
func Render(m Map) string {
	var sb strings.Builder
	sb.WriteString(renderHeader)
	for _, table := range m.tables {
		sb.WriteString("Table ")
		sb.WriteString(table.Name)
		sb.WriteString(" has columns: ")
		for i, col := range table.Columns {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(col.Name)
			sb.WriteString(" (type: ")
			sb.WriteString(col.DataType)
			sb.WriteString(")")
		}
		sb.WriteString(".\n")
	}
	return sb.String()
}

// PrintTo writes an operator listing of every table and column.
func PrintTo(w io.Writer, m Map) error {
	for _, table := range m.tables {
		if _, err := fmt.Fprintf(w, "Table: %s\n", table.Name); err != nil {
			return err
		}
		for _, col := range table.Columns {
			if _, err := fmt.Fprintf(w, "  Column: %s, Data Type: %s\n", col.Name, col.DataType); err != nil {
				return err
			}
		}
	}
	return nil
}
