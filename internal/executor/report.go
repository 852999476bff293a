package executor

import (
	"bytes"
	"encoding/json"
)

// Column is one value of a result row under its column name.
type Column struct {
	Name  string
	Value any
}

// Row keeps the column order of the result set metadata.
type Row []Column

func (r Row) Get(name string) (any, bool) {
	for _, column := range r {
		if column.Name == name {
			return column.Value, true
		}
	}
	return nil, false
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, column := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(&buf, column.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSON(&buf, column.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Entry is the outcome of one read statement.
type Entry struct {
	Statement string
	Rows      []Row
}

// Failure records a statement that was rejected or failed in the store.
type Failure struct {
	Statement string
	Err       error
}

// Report maps statement text to its rows in execution order. Non-read
// statements and failures have no entry.
type Report struct {
	entries  []Entry
	index    map[string]int
	Failures []Failure
	// Statements counts every statement handed to the executor.
	Statements int
}

// Set records rows for stmt; a repeated statement replaces its earlier
// entry in place.
func (r *Report) Set(stmt string, rows []Row) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if pos, ok := r.index[stmt]; ok {
		r.entries[pos].Rows = rows
		return
	}
	r.index[stmt] = len(r.entries)
	r.entries = append(r.entries, Entry{Statement: stmt, Rows: rows})
}

func (r Report) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r Report) Lookup(stmt string) ([]Row, bool) {
	pos, ok := r.index[stmt]
	if !ok {
		return nil, false
	}
	return r.entries[pos].Rows, true
}

func (r Report) Len() int {
	return len(r.entries)
}

// AllFailed is true when there was at least one statement and none of them
// succeeded.
func (r Report) AllFailed() bool {
	return r.Statements > 0 && len(r.Failures) == r.Statements
}

func (r Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range r.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(&buf, entry.Statement); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		rows := entry.Rows
		if rows == nil {
			rows = []Row{}
		}
		if err := writeJSON(&buf, rows); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeJSON encodes value without HTML escaping or a trailing newline.
func writeJSON(buf *bytes.Buffer, value any) error {
	encoder := json.NewEncoder(buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}
