package base

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

// Column - колонка результата и способ приведения значений драйвера
type Column struct {
	Field tds.Field

	// Binary - []byte выводится как hex строка 0x...
	Binary bool

	// Convert - предварительное приведение специфичных типов драйвера
	// (UUID, JSON, pgtype.Numeric). nil результат означает NULL.
	Convert func(v any) (any, error)
}

// moneyScale - MONEY хранится как целое, умноженное на 10^4
const moneyScale = 4

// EncodeValue приводит значение драйвера к сырой форме для tds.DecodeField:
//
//	INTN, BITN         int64
//	FLTN               float64
//	MONEYN (8 / 4)     tds.MoneyWords / int32
//	NUMERICN, DECIMALN строка цифр немасштабированного значения
//	NVARCHAR и др.     string
func EncodeValue(c Column, v any) (any, error) {
	if c.Convert != nil && v != nil {
		var err error
		if v, err = c.Convert(v); err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Field.Name, err)
		}
	}
	if v == nil {
		return nil, nil
	}

	f := c.Field
	switch {
	case f.Type.IsInteger():
		return encodeInteger(f, v)
	case f.Type.IsFloat():
		return encodeFloat(f, v)
	case f.Type.IsMoney():
		return encodeMoney(f, v)
	case f.Type.IsNumeric():
		n, err := scaledValue(v, f.Scale)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", f.Name, err)
		}
		return n.String(), nil
	case f.Type.IsText():
		return encodeText(c, v), nil
	default:
		return nil, tds.Unsupported(f)
	}
}

func encodeInteger(f tds.Field, v any) (any, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return nil, fmt.Errorf("column %s: %d overflows int64", f.Name, x)
		}
		return int64(x), nil
	case bool:
		return x, nil
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return nil, fmt.Errorf("column %s: %v is not an integer", f.Name, x)
		}
		return int64(x), nil
	case []byte:
		return parseInteger(f, string(x))
	case string:
		return parseInteger(f, x)
	default:
		return nil, fmt.Errorf("column %s: cannot convert %T to integer", f.Name, v)
	}
}

func parseInteger(f tds.Field, s string) (any, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("column %s: invalid integer %q", f.Name, s)
	}
	return n, nil
}

func encodeFloat(f tds.Field, v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case []byte:
		return parseFloat(f, string(x))
	case string:
		return parseFloat(f, x)
	default:
		return nil, fmt.Errorf("column %s: cannot convert %T to float", f.Name, v)
	}
}

func parseFloat(f tds.Field, s string) (any, error) {
	x, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("column %s: invalid float %q", f.Name, s)
	}
	return x, nil
}

func encodeMoney(f tds.Field, v any) (any, error) {
	n, err := scaledValue(v, moneyScale)
	if err != nil {
		return nil, fmt.Errorf("column %s: %w", f.Name, err)
	}
	if !n.IsInt64() {
		return nil, fmt.Errorf("column %s: %s overflows money", f.Name, n)
	}
	scaled := n.Int64()

	if f.Type == tds.TypeMoney4 || (f.Type == tds.TypeMoneyN && f.Length == 4) {
		if scaled < math.MinInt32 || scaled > math.MaxInt32 {
			return nil, fmt.Errorf("column %s: %s overflows smallmoney", f.Name, n)
		}
		return int32(scaled), nil
	}
	return tds.MoneyFromInt64(scaled), nil
}

// scaledValue возвращает v * 10^scale, отбрасывая лишние дробные цифры.
func scaledValue(v any, scale int) (*big.Int, error) {
	switch x := v.(type) {
	case int64:
		return scaleInt(big.NewInt(x), scale), nil
	case int:
		return scaleInt(big.NewInt(int64(x)), scale), nil
	case int32:
		return scaleInt(big.NewInt(int64(x)), scale), nil
	case uint64:
		return scaleInt(new(big.Int).SetUint64(x), scale), nil
	case *big.Int:
		return scaleInt(x, scale), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("non-finite value %v", x)
		}
		return ScaleDecimal(strconv.FormatFloat(x, 'f', -1, 64), scale)
	case float32:
		return ScaleDecimal(strconv.FormatFloat(float64(x), 'f', -1, 32), scale)
	case []byte:
		return ScaleDecimal(string(x), scale)
	case string:
		return ScaleDecimal(x, scale)
	default:
		return nil, fmt.Errorf("cannot convert %T to decimal", v)
	}
}

func scaleInt(n *big.Int, scale int) *big.Int {
	p := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil)
	return p.Mul(p, n)
}

// ScaleDecimal разбирает десятичный текст ("-123.45", "1e3") и возвращает
// значение, умноженное на 10^scale, с усечением к нулю.
func ScaleDecimal(s string, scale int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty decimal")
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("invalid decimal %q", s)
	}
	p := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil)
	r.Mul(r, new(big.Rat).SetInt(p))
	return new(big.Int).Quo(r.Num(), r.Denom()), nil
}

// TimeLayout - формат даты и времени в текстовых колонках
const TimeLayout = "2006-01-02 15:04:05.9999999"

func encodeText(c Column, v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		if c.Binary {
			return HexString(x)
		}
		return string(x)
	case time.Time:
		if _, offset := x.Zone(); offset != 0 {
			return x.Format(TimeLayout + " -07:00")
		}
		return x.Format(TimeLayout)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}

// HexString форматирует двоичные данные как 0x-литерал T-SQL
func HexString(b []byte) string {
	return "0x" + strings.ToUpper(hex.EncodeToString(b))
}
