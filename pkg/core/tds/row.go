package tds

import (
	"bytes"
	"encoding/json"
)

// Row is a decoded record: field name to value, in descriptor order.
// Rows are immutable once produced.
type Row struct {
	names  []string
	values []Value
}

// NewRow pairs names with values. Both slices are owned by the row afterwards.
func NewRow(names []string, values []Value) Row {
	return Row{names: names, values: values}
}

func (r Row) Len() int { return len(r.values) }

// Names returns the column names in order.
func (r Row) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Values returns the column values in order.
func (r Row) Values() []Value {
	out := make([]Value, len(r.values))
	copy(out, r.values)
	return out
}

// At returns the value at column i.
func (r Row) At(i int) Value {
	return r.values[i]
}

// Get looks a value up by column name.
func (r Row) Get(name string) (Value, bool) {
	for i, n := range r.names {
		if n == name {
			return r.values[i], true
		}
	}
	return Value{}, false
}

// Map returns the row as a plain map with Interface() values.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for i, n := range r.names {
		m[n] = r.values[i].Interface()
	}
	return m
}

// Equal reports whether both rows hold the same names and values in the same order.
func (r Row) Equal(o Row) bool {
	if len(r.values) != len(o.values) || len(r.names) != len(o.names) {
		return false
	}
	for i := range r.values {
		if r.names[i] != o.names[i] || r.values[i] != o.values[i] {
			return false
		}
	}
	return true
}

// MarshalJSON writes an object whose keys keep descriptor order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := r.values[i].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
