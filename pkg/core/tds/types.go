package tds

import (
	"fmt"
	"strings"
)

// WireType is the TDS type token that tells how a column is laid out on the wire.
//
// TDS Token      Value   Row layout
// ─────────────────────────────────────────────────────────────
// INT1           0x30    1 byte
// BIT            0x32    1 byte
// INT2           0x34    2 bytes LE
// INT4           0x38    4 bytes LE
// INT8           0x7F    8 bytes LE
// FLT4           0x3B    4 bytes IEEE 754
// FLT8           0x3E    8 bytes IEEE 754
// MONEY          0x3C    hi int32 LE, lo uint32 LE (scaled by 10000)
// MONEY4         0x7A    int32 LE (scaled by 10000)
// INTN/BITN/FLTN/MONEYN  1-byte length, 0 = NULL
// DECIMAL/NUMERIC(N)     1-byte length, sign byte, magnitude LE
// CHAR/VARCHAR   0x2F/0x27  1-byte length
// BIGCHAR/BIGVARCHAR, NCHAR/NVARCHAR  2-byte length, 0xFFFF = NULL
// TEXT           0x23    text pointer, timestamp, 4-byte length
type WireType byte

const (
	TypeText       WireType = 0x23
	TypeIntN       WireType = 0x26
	TypeVarchar    WireType = 0x27
	TypeChar       WireType = 0x2F
	TypeInt1       WireType = 0x30
	TypeBit        WireType = 0x32
	TypeInt2       WireType = 0x34
	TypeDecimal    WireType = 0x37
	TypeInt4       WireType = 0x38
	TypeFlt4       WireType = 0x3B
	TypeMoney      WireType = 0x3C
	TypeFlt8       WireType = 0x3E
	TypeNumeric    WireType = 0x3F
	TypeBitN       WireType = 0x68
	TypeDecimalN   WireType = 0x6A
	TypeNumericN   WireType = 0x6C
	TypeFltN       WireType = 0x6D
	TypeMoneyN     WireType = 0x6E
	TypeMoney4     WireType = 0x7A
	TypeInt8       WireType = 0x7F
	TypeBigVarchar WireType = 0xA7
	TypeBigChar    WireType = 0xAF
	TypeNVarchar   WireType = 0xE7
	TypeNChar      WireType = 0xEF
)

var typeNames = map[WireType]string{
	TypeText:       "TEXT",
	TypeIntN:       "INTN",
	TypeVarchar:    "VARCHAR",
	TypeChar:       "CHAR",
	TypeInt1:       "INT1",
	TypeBit:        "BIT",
	TypeInt2:       "INT2",
	TypeDecimal:    "DECIMAL",
	TypeInt4:       "INT4",
	TypeFlt4:       "FLT4",
	TypeMoney:      "MONEY",
	TypeFlt8:       "FLT8",
	TypeNumeric:    "NUMERIC",
	TypeBitN:       "BITN",
	TypeDecimalN:   "DECIMALN",
	TypeNumericN:   "NUMERICN",
	TypeFltN:       "FLTN",
	TypeMoneyN:     "MONEYN",
	TypeMoney4:     "MONEY4",
	TypeInt8:       "INT8",
	TypeBigVarchar: "BIGVARCHAR",
	TypeBigChar:    "BIGCHAR",
	TypeNVarchar:   "NVARCHAR",
	TypeNChar:      "NCHAR",
}

var typesByName = func() map[string]WireType {
	m := make(map[string]WireType, len(typeNames))
	for t, name := range typeNames {
		m[name] = t
	}
	return m
}()

// String returns the token name, e.g. "INT4".
func (t WireType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("WireType(0x%02X)", byte(t))
}

// Known reports whether the decoder understands the type token.
func (t WireType) Known() bool {
	_, ok := typeNames[t]
	return ok
}

// ParseWireType resolves a token name (case-insensitive) to its WireType.
func ParseWireType(name string) (WireType, error) {
	t, ok := typesByName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown wire type: %s", name)
	}
	return t, nil
}

// IsInteger reports whether values of the type decode to Integer.
func (t WireType) IsInteger() bool {
	switch t {
	case TypeInt1, TypeInt2, TypeInt4, TypeInt8, TypeIntN, TypeBit, TypeBitN:
		return true
	default:
		return false
	}
}

// IsMoney reports whether the type carries a fixed-point money value.
func (t WireType) IsMoney() bool {
	return t == TypeMoney || t == TypeMoney4 || t == TypeMoneyN
}

// IsNumeric reports whether the type carries a scaled decimal/numeric value.
func (t WireType) IsNumeric() bool {
	switch t {
	case TypeDecimal, TypeNumeric, TypeDecimalN, TypeNumericN:
		return true
	default:
		return false
	}
}

// IsFloat reports whether the type carries an IEEE 754 value.
func (t WireType) IsFloat() bool {
	return t == TypeFlt4 || t == TypeFlt8 || t == TypeFltN
}

// IsText reports whether the type carries character data.
func (t WireType) IsText() bool {
	switch t {
	case TypeText, TypeVarchar, TypeChar, TypeBigVarchar, TypeBigChar, TypeNVarchar, TypeNChar:
		return true
	default:
		return false
	}
}

// IsUnicode reports whether character data is UTF-16LE on the wire.
func (t WireType) IsUnicode() bool {
	return t == TypeNVarchar || t == TypeNChar
}

// FixedSize returns the row width of fixed-length types, 0 for variable ones.
func (t WireType) FixedSize() int {
	switch t {
	case TypeInt1, TypeBit:
		return 1
	case TypeInt2:
		return 2
	case TypeInt4, TypeFlt4, TypeMoney4:
		return 4
	case TypeInt8, TypeFlt8, TypeMoney:
		return 8
	default:
		return 0
	}
}
