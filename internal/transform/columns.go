package transform

import (
	"sync/atomic"

	"github.com/sanspareilsmyn/sensorlens/internal/dataframe"
)

// SelectColumns drops every column that is not in names.
func SelectColumns[T any](names ...string) Step[T] {
	keep := make(map[string]struct{}, len(names))
	for _, n := range names {
		keep[n] = struct{}{}
	}
	return StepFunc[T](func(_ T, row *dataframe.Row) {
		for _, k := range row.Keys() {
			if _, ok := keep[k]; !ok {
				row.Delete(k)
			}
		}
	})
}

// RenameColumns renames columns according to mapping (old -> new). The renamed
// column moves to the end of the row.
func RenameColumns[T any](mapping map[string]string) Step[T] {
	m := make(map[string]string, len(mapping))
	for k, v := range mapping {
		m[k] = v
	}
	return StepFunc[T](func(_ T, row *dataframe.Row) {
		for _, k := range row.Keys() {
			to, ok := m[k]
			if !ok || to == k {
				continue
			}
			v, _ := row.Get(k)
			row.Delete(k)
			row.Set(to, v)
		}
	})
}

// Constant writes the given columns into every row, overwriting earlier values.
func Constant[T any](values *dataframe.Row) Step[T] {
	if values == nil {
		values = dataframe.NewRow()
	}
	values = values.Clone()
	return StepFunc[T](func(_ T, row *dataframe.Row) {
		values.Range(func(name string, v dataframe.Value) bool {
			row.Set(name, v)
			return true
		})
	})
}

// CopyRow copies every column of an event row into the output row.
func CopyRow() Step[*dataframe.Row] {
	return StepFunc[*dataframe.Row](func(event *dataframe.Row, row *dataframe.Row) {
		if event == nil {
			return
		}
		event.Range(func(name string, v dataframe.Value) bool {
			row.Set(name, v)
			return true
		})
	})
}

// Label stamps a caller-controlled value into every row. The value can be
// changed from any goroutine while the chain is running; rows built while no
// value is set get no label column.
type Label[T any] struct {
	column string
	value  atomic.Pointer[dataframe.Value]
}

func NewLabel[T any](column string) *Label[T] {
	return &Label[T]{column: column}
}

func (l *Label[T]) Column() string { return l.column }

func (l *Label[T]) Set(v dataframe.Value) { l.value.Store(&v) }

func (l *Label[T]) Clear() { l.value.Store(nil) }

// Get returns the current label, or false when none is set.
func (l *Label[T]) Get() (dataframe.Value, bool) {
	p := l.value.Load()
	if p == nil {
		return dataframe.Null, false
	}
	return *p, true
}

func (l *Label[T]) Apply(_ T, row *dataframe.Row) {
	if v, ok := l.Get(); ok {
		row.Set(l.column, v)
	}
}
