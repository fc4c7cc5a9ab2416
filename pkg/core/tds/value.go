package tds

import (
	"encoding/json"
	"math"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInteger
	KindFloat
	KindDecimal // exact decimal (or out-of-range integer) kept as its string form
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindDecimal:
		return "decimal"
	case KindText:
		return "text"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a decoded column value. The zero Value is NULL.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// Null returns the SQL NULL value.
func Null() Value { return Value{} }

// Int returns an Integer value.
func Int(v int64) Value { return Value{kind: KindInteger, i: v} }

// Float returns a Float value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Decimal returns an exact decimal value from its canonical string form.
func Decimal(s string) Value { return Value{kind: KindDecimal, s: s} }

// Text returns a Text value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Int() (int64, bool) {
	return v.i, v.kind == KindInteger
}

func (v Value) Float() (float64, bool) {
	return v.f, v.kind == KindFloat
}

func (v Value) Decimal() (string, bool) {
	return v.s, v.kind == KindDecimal
}

func (v Value) Text() (string, bool) {
	return v.s, v.kind == KindText
}

// String renders the value for display. NULL renders as "NULL".
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindDecimal, KindText:
		return v.s
	default:
		return ""
	}
}

// Interface returns the value as nil, int64, float64 or string.
func (v Value) Interface() any {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	case KindDecimal, KindText:
		return v.s
	default:
		return nil
	}
}

// MarshalJSON keeps decimals as JSON strings so no precision is lost downstream.
// NaN and infinities have no JSON number form and are written as "NaN",
// "+Inf" and "-Inf".
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindInteger:
		return strconv.AppendInt(nil, v.i, 10), nil
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return strconv.AppendQuote(nil, strconv.FormatFloat(v.f, 'f', -1, 64)), nil
		}
		return json.Marshal(v.f)
	case KindDecimal, KindText:
		return json.Marshal(v.s)
	default:
		return []byte("null"), nil
	}
}
