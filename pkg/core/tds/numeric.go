package tds

import (
	"math"
	"math/big"
	"strconv"
)

// float64 carries a 53-bit significand.
const float64Mantissa = 53

// floatDigits is the number of decimal significant digits a float64 holds
// exactly (DBL_DIG). It is computed once and never changes afterwards.
var floatDigits = int(math.Floor(float64Mantissa * math.Log10(2)))

// FloatDigits returns the decimal digit count above which scaled numerics
// are returned as exact Decimal strings instead of Float values.
func FloatDigits() int {
	return floatDigits
}

// DecodeNumeric converts the unscaled integer of a DECIMAL/NUMERIC column.
//
// With scale 0 the result is an Integer, or a Decimal holding the exact
// digits when the value does not fit into int64. With scale > 0 the value is
// divided by 10^scale exactly; the quotient is truncated so it carries no
// more than precision significant digits (precision 0 means unbounded), and
// it is returned as Decimal when its digit count exceeds FloatDigits(),
// otherwise as Float.
//
// raw may be a digit string (string or []byte, optional sign), any Go
// integer, or *big.Int.
func DecodeNumeric(raw any, scale, precision int) (Value, error) {
	if scale < 0 {
		return Value{}, malformedf("negative scale %d", scale)
	}
	n, err := unscaledInt(raw)
	if err != nil {
		return Value{}, err
	}

	if scale == 0 {
		if n.IsInt64() {
			return Int(n.Int64()), nil
		}
		return Decimal(n.String()), nil
	}

	negative := n.Sign() < 0
	abs := new(big.Int).Abs(n)
	keep := scale
	if precision > 0 {
		if excess := len(abs.String()) - precision; excess > 0 {
			keep = max(scale-excess, 0)
		}
	}
	if keep < scale {
		abs.Quo(abs, pow10(scale-keep))
	}
	if abs.Sign() == 0 {
		negative = false
	}
	s := formatScaled(abs, keep, negative)

	if countDigits(s) > floatDigits {
		return Decimal(s), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, malformedf("%v", err)
	}
	return Float(f), nil
}

// unscaledInt reads the raw wire form of a numeric into a big integer.
func unscaledInt(raw any) (*big.Int, error) {
	switch v := raw.(type) {
	case string:
		return parseDigits(v)
	case []byte:
		return parseDigits(string(v))
	case *big.Int:
		if v == nil {
			return nil, malformedf("nil big.Int")
		}
		return new(big.Int).Set(v), nil
	case int:
		return big.NewInt(int64(v)), nil
	case int8:
		return big.NewInt(int64(v)), nil
	case int16:
		return big.NewInt(int64(v)), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, malformedf("unexpected numeric raw type %T", raw)
	}
}

func parseDigits(s string) (*big.Int, error) {
	digits := s
	if len(digits) > 0 && (digits[0] == '-' || digits[0] == '+') {
		digits = digits[1:]
	}
	if digits == "" {
		return nil, malformedf("empty numeric %q", s)
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return nil, malformedf("invalid numeric digits %q", s)
		}
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, malformedf("invalid numeric digits %q", s)
	}
	return n, nil
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}
