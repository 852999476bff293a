// Package schema discovers tables and columns from a live store and renders
// them as the text that grounds SQL synthesis.
package schema

// ColumnInfo is one introspected column.
type ColumnInfo struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
}

// Table is a table name and its columns in declaration order.
type Table struct {
	Name    string       `json:"name"`
	Columns []ColumnInfo `json:"columns"`
}

// Map keeps tables in introspection order. The zero value is empty and ready
// to use.
type Map struct {
	tables []Table
	index  map[string]int
}

// Append adds col to table, creating the table on first sight.
func (m *Map) Append(table string, col ColumnInfo) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	i, ok := m.index[table]
	if !ok {
		i = len(m.tables)
		m.index[table] = i
		m.tables = append(m.tables, Table{Name: table})
	}
	m.tables[i].Columns = append(m.tables[i].Columns, col)
}

func (m Map) Tables() []Table {
	out := make([]Table, len(m.tables))
	copy(out, m.tables)
	return out
}

func (m Map) Lookup(name string) (Table, bool) {
	i, ok := m.index[name]
	if !ok {
		return Table{}, false
	}
	return m.tables[i], true
}

func (m Map) Len() int {
	return len(m.tables)
}
