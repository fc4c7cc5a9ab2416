package tds

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// RawRecord is one record as delivered by the transport: the raw wire form
// of each column, in descriptor order. nil stands for SQL NULL.
type RawRecord []any

// DecodeRecord decodes every column of rec with its descriptor.
func DecodeRecord(fields Fields, rec RawRecord) (Row, error) {
	if len(rec) != len(fields) {
		return Row{}, &DecodeError{
			Err:    ErrMalformedValue,
			Detail: fmt.Sprintf("record has %d columns, expected %d", len(rec), len(fields)),
		}
	}
	values := make([]Value, len(fields))
	for i, f := range fields {
		v, err := DecodeField(f, rec[i])
		if err != nil {
			return Row{}, err
		}
		values[i] = v
	}
	return NewRow(fields.Names(), values), nil
}

// DecodeField converts one raw column value according to its descriptor.
func DecodeField(f Field, raw any) (Value, error) {
	if !f.Type.Known() {
		return Value{}, Unsupported(f)
	}
	if raw == nil {
		return Null(), nil
	}

	var (
		v   Value
		err error
	)
	switch {
	case f.Type.IsInteger():
		v, err = decodeInteger(f, raw)
	case f.Type.IsText():
		v, err = decodeText(f, raw)
	case f.Type.IsMoney():
		v, err = decodeMoneyField(f, raw)
	case f.Type.IsNumeric():
		v, err = DecodeNumeric(raw, f.Scale, f.Precision)
	case f.Type.IsFloat():
		v, err = decodeFloat(f, raw)
	default:
		return Value{}, Unsupported(f)
	}
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) && de.Field == "" {
			de.Field, de.Type = f.Name, f.Type
		}
		return Value{}, err
	}
	return v, nil
}

func decodeInteger(f Field, raw any) (Value, error) {
	switch v := raw.(type) {
	case int:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint8:
		return Int(int64(v)), nil
	case uint16:
		return Int(int64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case uint64:
		if v > math.MaxInt64 {
			return Value{}, Malformed(f, "integer %d overflows int64", v)
		}
		return Int(int64(v)), nil
	case bool:
		if v {
			return Int(1), nil
		}
		return Int(0), nil
	case []byte:
		return decodeIntegerBytes(f, v)
	default:
		return Value{}, Malformed(f, "unexpected raw type %T", raw)
	}
}

// decodeIntegerBytes reads a little-endian integer. TINYINT and BIT are unsigned.
func decodeIntegerBytes(f Field, b []byte) (Value, error) {
	if size := f.Type.FixedSize(); size != 0 && len(b) != size {
		return Value{}, Malformed(f, "expected %d bytes, got %d", size, len(b))
	}
	switch len(b) {
	case 1:
		return Int(int64(b[0])), nil
	case 2:
		return Int(int64(int16(binary.LittleEndian.Uint16(b)))), nil
	case 4:
		return Int(int64(int32(binary.LittleEndian.Uint32(b)))), nil
	case 8:
		return Int(int64(binary.LittleEndian.Uint64(b))), nil
	default:
		return Value{}, Malformed(f, "invalid integer length %d", len(b))
	}
}

func decodeText(f Field, raw any) (Value, error) {
	switch v := raw.(type) {
	case string:
		return Text(v), nil
	case []byte:
		return Text(string(v)), nil
	default:
		return Value{}, Malformed(f, "unexpected raw type %T", raw)
	}
}

func decodeMoneyField(f Field, raw any) (Value, error) {
	switch v := raw.(type) {
	case MoneyWords:
		if f.Type == TypeMoney4 {
			return Value{}, Malformed(f, "SMALLMONEY carries a single word")
		}
		return Decimal(DecodeMoney(v.Lo, v.Hi)), nil
	case int64:
		if f.Type == TypeMoney4 {
			if v < math.MinInt32 || v > math.MaxInt32 {
				return Value{}, Malformed(f, "smallmoney %d overflows int32", v)
			}
			return Decimal(DecodeSmallMoney(int32(v))), nil
		}
		w := MoneyFromInt64(v)
		return Decimal(DecodeMoney(w.Lo, w.Hi)), nil
	case int32:
		return Decimal(DecodeSmallMoney(v)), nil
	case []byte:
		switch {
		case len(v) == 8 && f.Type != TypeMoney4:
			hi := binary.LittleEndian.Uint32(v[0:4])
			lo := binary.LittleEndian.Uint32(v[4:8])
			return Decimal(DecodeMoney(lo, hi)), nil
		case len(v) == 4 && f.Type != TypeMoney:
			return Decimal(DecodeSmallMoney(int32(binary.LittleEndian.Uint32(v)))), nil
		default:
			return Value{}, Malformed(f, "invalid money length %d", len(v))
		}
	default:
		return Value{}, Malformed(f, "unexpected raw type %T", raw)
	}
}

func decodeFloat(f Field, raw any) (Value, error) {
	switch v := raw.(type) {
	case float64:
		return Float(v), nil
	case float32:
		return Float(float64(v)), nil
	case []byte:
		switch {
		case len(v) == 4 && f.Type != TypeFlt8:
			return Float(float64(math.Float32frombits(binary.LittleEndian.Uint32(v)))), nil
		case len(v) == 8 && f.Type != TypeFlt4:
			return Float(math.Float64frombits(binary.LittleEndian.Uint64(v))), nil
		default:
			return Value{}, Malformed(f, "invalid float length %d", len(v))
		}
	default:
		return Value{}, Malformed(f, "unexpected raw type %T", raw)
	}
}
