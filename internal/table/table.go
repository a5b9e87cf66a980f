// Package table holds the in-memory tabular model shared by every flow:
// ordered rows of string cells over a fixed, ordered column set.
package table

import (
	"fmt"
	"slices"
)

// Row is one record. Cells are positional and line up with Table.Columns.
type Row []string

// Table is a rectangular dataset. Every row has exactly len(Columns) cells.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// New builds a table and rejects rows whose width differs from the header.
func New(columns []string, rows ...Row) (*Table, error) {
	t := &Table{Columns: slices.Clone(columns)}
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidInput, i, len(r), len(columns))
		}
		t.Rows = append(t.Rows, slices.Clone(r))
	}
	return t, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Width returns the number of columns.
func (t *Table) Width() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// Clone returns a deep copy; mutating the copy never touches t.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{
		Columns: slices.Clone(t.Columns),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = slices.Clone(r)
	}
	return out
}

// Equal reports whether both tables have the same columns and rows in the same order.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if !slices.Equal(t.Columns, o.Columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Rows {
		if !slices.Equal(t.Rows[i], o.Rows[i]) {
			return false
		}
	}
	return true
}

// Column returns the index of the first column named name.
func (t *Table) Column(name string) (int, bool) {
	i := slices.Index(t.Columns, name)
	return i, i >= 0
}

// Values returns a copy of one column's cells.
func (t *Table) Values(col int) []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[col]
	}
	return out
}

// Head returns a copy limited to the first n rows.
func (t *Table) Head(n int) *Table {
	out := t.Clone()
	if n >= 0 && n < len(out.Rows) {
		out.Rows = out.Rows[:n]
	}
	return out
}

// Append adds copies of rows to t, padding or truncating each one to the table width.
func (t *Table) Append(rows ...Row) {
	for _, r := range rows {
		t.Rows = append(t.Rows, fit(r, len(t.Columns)))
	}
}

// Concat appends b's rows after a's rows into a new table. Column sets must match.
func Concat(a, b *Table) (*Table, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: nil table", ErrInvalidInput)
	}
	if !slices.Equal(a.Columns, b.Columns) {
		return nil, fmt.Errorf("%w: column mismatch %v vs %v", ErrInvalidInput, a.Columns, b.Columns)
	}
	out := a.Clone()
	for _, r := range b.Rows {
		out.Rows = append(out.Rows, slices.Clone(r))
	}
	return out, nil
}

// fit pads r with empty cells or truncates it so it has exactly width cells.
func fit(r []string, width int) Row {
	out := make(Row, width)
	copy(out, r)
	return out
}
