package tds

import "fmt"

// Field describes one column of a result set.
// Descriptors are fixed once the result set is opened; their order defines
// both the decode order and the key order of the produced rows.
type Field struct {
	Name      string
	Type      WireType
	Scale     int // fractional digits for DECIMAL/NUMERIC
	Precision int // total significant digits for DECIMAL/NUMERIC, 0 = unbounded
	Length    int // declared max length on the wire, informational
}

// String renders the descriptor in a SQL-ish form, e.g. "price NUMERIC(10,2)".
func (f Field) String() string {
	if f.Type.IsNumeric() {
		return fmt.Sprintf("%s %s(%d,%d)", f.Name, f.Type, f.Precision, f.Scale)
	}
	return fmt.Sprintf("%s %s", f.Name, f.Type)
}

// Fields is the ordered descriptor list of a result set.
type Fields []Field

// Names returns the column names in descriptor order.
func (fs Fields) Names() []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	return names
}

// Index returns the position of the named column or -1.
func (fs Fields) Index(name string) int {
	for i, f := range fs {
		if f.Name == name {
			return i
		}
	}
	return -1
}
