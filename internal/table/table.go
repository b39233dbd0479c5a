// Package table holds the in-memory tabular rows produced by the parser and
// the row-wise concatenation used to consolidate a run.
package table

import (
	"errors"
	"fmt"
)

// ErrNoData is returned when there is nothing to consolidate.
var ErrNoData = errors.New("no valid data was processed")

// Table is an ordered set of named columns and string rows.
// Every row has exactly len(Columns) cells and column names are unique.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New returns an empty table with the given columns. Repeated names are
// renamed with UniqueNames.
func New(columns ...string) *Table {
	return &Table{Columns: UniqueNames(columns)}
}

// UniqueNames returns a copy of names where each repeat of a name X becomes
// X.1, X.2, … in order of appearance. A suffix that also occurs as a name in
// the input is skipped, so ["a", "a", "a.1"] yields ["a", "a.2", "a.1"].
func UniqueNames(names []string) []string {
	taken := make(map[string]bool, len(names))
	for _, n := range names {
		taken[n] = true
	}
	out := make([]string, len(names))
	used := make(map[string]bool, len(names))
	next := make(map[string]int, len(names))
	for i, n := range names {
		if !used[n] {
			used[n] = true
			out[i] = n
			continue
		}
		k := next[n]
		cand := n
		for {
			k++
			cand = fmt.Sprintf("%s.%d", n, k)
			if !used[cand] && !taken[cand] {
				break
			}
		}
		next[n] = k
		used[cand] = true
		out[i] = cand
	}
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// AppendRow adds a row. Short rows are padded with empty cells; long rows are rejected.
func (t *Table) AppendRow(cells []string) error {
	if len(cells) > len(t.Columns) {
		return fmt.Errorf("row has %d fields, expected at most %d", len(cells), len(t.Columns))
	}
	row := make([]string, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
	return nil
}

// AddConstColumn appends a column holding value on every row.
// An existing column with the same name is overwritten instead.
func (t *Table) AddConstColumn(name, value string) {
	if idx := t.ColumnIndex(name); idx >= 0 {
		for _, r := range t.Rows {
			r[idx] = value
		}
		return
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], value)
	}
}

// Records maps every row to a column → value map, preserving row order.
func (t *Table) Records() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		m := make(map[string]string, len(t.Columns))
		for i, c := range t.Columns {
			m[c] = r[i]
		}
		out = append(out, m)
	}
	return out
}

// Concat joins tables row-wise, skipping nil entries. Rows keep table order,
// then row order within each table.
//
// The resulting columns are the union of all input columns in first-seen
// order; cells for columns a source table lacks are left empty.
func Concat(tables ...*Table) (*Table, error) {
	var present []*Table
	for _, t := range tables {
		if t != nil {
			present = append(present, t)
		}
	}
	if len(present) == 0 {
		return nil, ErrNoData
	}

	out := &Table{}
	pos := map[string]int{}
	total := 0
	for _, t := range present {
		for _, c := range t.Columns {
			if _, ok := pos[c]; !ok {
				pos[c] = len(out.Columns)
				out.Columns = append(out.Columns, c)
			}
		}
		total += len(t.Rows)
	}

	out.Rows = make([][]string, 0, total)
	for _, t := range present {
		idx := make([]int, len(t.Columns))
		for i, c := range t.Columns {
			idx[i] = pos[c]
		}
		for _, r := range t.Rows {
			row := make([]string, len(out.Columns))
			for i, v := range r {
				row[idx[i]] = v
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}
