package dataframe

import (
	"fmt"
	"strings"
)

// Row is a single record: column names mapped to values, in insertion order.
// The zero Row is empty and ready to use. A Row is not safe for concurrent use.
type Row struct {
	keys   []string
	values map[string]Value
}

// NewRow returns an empty row.
func NewRow() *Row {
	return &Row{values: make(map[string]Value)}
}

// RowOf builds a row from alternating name/value pairs, e.g. RowOf("x", 1, "y", "a").
// Pairs whose value cannot be converted are skipped.
func RowOf(pairs ...any) *Row {
	r := NewRow()
	for i := 0; i+1 < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			continue
		}
		if v, ok := ValueOf(pairs[i+1]); ok {
			r.Set(name, v)
		}
	}
	return r
}

// Set stores v under name. An existing column keeps its position.
func (r *Row) Set(name string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[name]; !ok {
		r.keys = append(r.keys, name)
	}
	r.values[name] = v
}

func (r *Row) Get(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

func (r *Row) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Delete removes name from the row. Missing names are ignored.
func (r *Row) Delete(name string) {
	if _, ok := r.values[name]; !ok {
		return
	}
	delete(r.values, name)
	for i, k := range r.keys {
		if k == name {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

func (r *Row) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Keys returns the column names in insertion order. The slice is a copy.
func (r *Row) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Range calls fn for each column in insertion order until fn returns false.
func (r *Row) Range(fn func(name string, v Value) bool) {
	for _, k := range r.keys {
		if !fn(k, r.values[k]) {
			return
		}
	}
}

func (r *Row) Clone() *Row {
	c := &Row{
		keys:   make([]string, len(r.keys)),
		values: make(map[string]Value, len(r.values)),
	}
	copy(c.keys, r.keys)
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}

func (r *Row) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", k, r.values[k])
	}
	b.WriteByte('}')
	return b.String()
}
