package dataframe

import (
	"fmt"
)

// DefaultName is used for tables that were never given a name.
const DefaultName = "dataframe"

/*
Table stores accumulated rows column by column:
  - columns are kept in the order they were first seen
  - every Series has exactly RowCount() entries
  - cells a row did not provide hold Null

A Table is not safe for concurrent use. Owners that share one across goroutines
serialize access and hand out Clones to readers.
*/
type Table struct {
	name    string
	order   []string
	columns map[string]*Series
}

func NewTable(name string) *Table {
	return &Table{
		name:    name,
		columns: make(map[string]*Series),
	}
}

func (t *Table) Name() string {
	if t.name == "" {
		return DefaultName
	}
	return t.name
}

func (t *Table) SetName(name string) { t.name = name }

// RowCount returns the length of the columns, 0 for a table without columns.
func (t *Table) RowCount() int {
	if len(t.order) == 0 {
		return 0
	}
	return t.columns[t.order[0]].Len()
}

func (t *Table) ColumnCount() int { return len(t.order) }

// Columns returns the column names in table order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// Column returns the live Series for name. Callers must not change its length.
func (t *Table) Column(name string) (*Series, bool) {
	s, ok := t.columns[name]
	return s, ok
}

// AppendRow adds row at the end of the table and returns its index. Columns the
// table has not seen before are created and backfilled with Null, and columns the
// row lacks get Null for this row. An empty row is dropped and -1 is returned.
func (t *Table) AppendRow(row *Row) int {
	if row.Len() == 0 {
		return -1
	}
	n := t.RowCount()
	row.Range(func(name string, _ Value) bool {
		if _, ok := t.columns[name]; !ok {
			s := NewSeries()
			s.fill(n)
			t.columns[name] = s
			t.order = append(t.order, name)
		}
		return true
	})
	for _, name := range t.order {
		v, ok := row.Get(name)
		if !ok {
			v = Null
		}
		t.columns[name].Append(v)
	}
	return n
}

// Row returns a copy of the row at index i, or nil if i is out of range.
func (t *Table) Row(i int) *Row {
	if i < 0 || i >= t.RowCount() {
		return nil
	}
	r := NewRow()
	for _, name := range t.order {
		v, _ := t.columns[name].At(i)
		r.Set(name, v)
	}
	return r
}

// PopRow removes the row at index i from every column and returns it.
// It returns nil if i is out of range.
func (t *Table) PopRow(i int) *Row {
	if i < 0 || i >= t.RowCount() {
		return nil
	}
	r := NewRow()
	for _, name := range t.order {
		v, _ := t.columns[name].Remove(i)
		r.Set(name, v)
	}
	return r
}

func (t *Table) PopFirstRow() *Row { return t.PopRow(0) }

func (t *Table) PopLastRow() *Row { return t.PopRow(t.RowCount() - 1) }

// DropFirst removes up to n rows from the front of the table and returns how
// many were removed.
func (t *Table) DropFirst(n int) int {
	if rc := t.RowCount(); n > rc {
		n = rc
	}
	if n <= 0 {
		return 0
	}
	for _, name := range t.order {
		s := t.columns[name]
		for i := 0; i < n; i++ {
			s.values.PopFront()
		}
	}
	return n
}

// Clear drops all columns and rows. The name is kept.
func (t *Table) Clear() {
	t.order = nil
	t.columns = make(map[string]*Series)
}

// Clone copies the table structure. Values are immutable and shared.
func (t *Table) Clone() *Table {
	c := &Table{
		name:    t.name,
		order:   make([]string, len(t.order)),
		columns: make(map[string]*Series, len(t.columns)),
	}
	copy(c.order, t.order)
	for name, s := range t.columns {
		c.columns[name] = s.Clone()
	}
	return c
}

// OrderColumns moves the named columns to the front, in the given order. Unknown
// names are ignored; the remaining columns follow in their current relative order.
func (t *Table) OrderColumns(names ...string) {
	seen := make(map[string]bool, len(t.order))
	order := make([]string, 0, len(t.order))
	for _, name := range names {
		if _, ok := t.columns[name]; ok && !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	for _, name := range t.order {
		if !seen[name] {
			order = append(order, name)
		}
	}
	t.order = order
}

// Verify checks that every column holds RowCount() values.
func (t *Table) Verify() error {
	n := t.RowCount()
	for _, name := range t.order {
		if l := t.columns[name].Len(); l != n {
			return fmt.Errorf("%w: column %q has %d values, expected %d", ErrLengthMismatch, name, l, n)
		}
	}
	return nil
}

// Mean returns a single-row table holding the mean of each column.
func (t *Table) Mean() *Table {
	return t.aggregate(func(s *Series) Value { return Float(s.Mean()) })
}

// Std returns a single-row table holding the population standard deviation of each column.
func (t *Table) Std() *Table {
	return t.aggregate(func(s *Series) Value { return Float(s.Std()) })
}

// Min returns a single-row table holding the minimum of each column. Columns
// without numeric values get Null.
func (t *Table) Min() *Table {
	return t.aggregate(func(s *Series) Value {
		if m, ok := s.Min(); ok {
			return Float(m)
		}
		return Null
	})
}

// Max returns a single-row table holding the maximum of each column. Columns
// without numeric values get Null.
func (t *Table) Max() *Table {
	return t.aggregate(func(s *Series) Value {
		if m, ok := s.Max(); ok {
			return Float(m)
		}
		return Null
	})
}

func (t *Table) aggregate(fn func(*Series) Value) *Table {
	out := NewTable(t.name)
	if len(t.order) == 0 {
		return out
	}
	r := NewRow()
	for _, name := range t.order {
		r.Set(name, fn(t.columns[name]))
	}
	out.AppendRow(r)
	return out
}

func (t *Table) ColumnMean(name string) (float64, error) {
	s, err := t.mustColumn(name)
	if err != nil {
		return 0, err
	}
	return s.Mean(), nil
}

func (t *Table) ColumnStd(name string) (float64, error) {
	s, err := t.mustColumn(name)
	if err != nil {
		return 0, err
	}
	return s.Std(), nil
}

// ColumnMin returns the minimum of a column, or ok=false if it holds no numbers.
func (t *Table) ColumnMin(name string) (min float64, ok bool, err error) {
	s, err := t.mustColumn(name)
	if err != nil {
		return 0, false, err
	}
	min, ok = s.Min()
	return min, ok, nil
}

// ColumnMax returns the maximum of a column, or ok=false if it holds no numbers.
func (t *Table) ColumnMax(name string) (max float64, ok bool, err error) {
	s, err := t.mustColumn(name)
	if err != nil {
		return 0, false, err
	}
	max, ok = s.Max()
	return max, ok, nil
}

func (t *Table) mustColumn(name string) (*Series, error) {
	s, ok := t.columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q in table %q", ErrColumnNotFound, name, t.Name())
	}
	return s, nil
}
