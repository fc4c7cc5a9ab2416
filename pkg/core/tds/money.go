package tds

import (
	"math/big"
	"strings"
)

// moneyScale is the implied divisor of MONEY and SMALLMONEY values.
const moneyScale = 10000

// moneyDigits is the number of fractional digits money values are rendered with.
const moneyDigits = 5

// MoneyWords is the raw form of a MONEY column: a 64-bit two's-complement
// fixed-point value split into its high and low 32-bit words.
type MoneyWords struct {
	Lo uint32
	Hi uint32
}

// MoneyFromInt64 splits a scaled 64-bit money value into its words.
func MoneyFromInt64(v int64) MoneyWords {
	u := uint64(v)
	return MoneyWords{Lo: uint32(u), Hi: uint32(u >> 32)}
}

// Int64 joins the words back into the scaled 64-bit value.
func (m MoneyWords) Int64() int64 {
	return int64(uint64(m.Hi)<<32 | uint64(m.Lo))
}

// DecodeMoney converts the two words of a MONEY value to its exact decimal
// string with five fractional digits, e.g. (41000000, 0) -> "4100.00000".
//
// Negative values (sign bit of hi set) are negated word by word with wrapping
// uint32 arithmetic: hi is complemented, lo is complemented and incremented,
// and the increment carries into hi when lo was zero. The divisor takes the
// sign instead of the magnitude.
func DecodeMoney(lo, hi uint32) string {
	div := int64(moneyScale)
	if hi&0x80000000 != 0 {
		hi = ^hi
		lo = ^lo + 1
		if lo == 0 {
			hi++
		}
		div = -moneyScale
	}

	magnitude := new(big.Int).SetUint64(uint64(hi))
	magnitude.Lsh(magnitude, 32)
	magnitude.Or(magnitude, new(big.Int).SetUint64(uint64(lo)))

	return divScaled(magnitude, big.NewInt(div), moneyDigits)
}

// DecodeSmallMoney converts a SMALLMONEY (MONEY4) value to its exact decimal string.
func DecodeSmallMoney(v int32) string {
	return divScaled(big.NewInt(int64(v)), big.NewInt(moneyScale), moneyDigits)
}

// divScaled divides n by d and renders the quotient truncated toward zero
// to exactly digits fractional digits.
func divScaled(n, d *big.Int, digits int) string {
	if d.Sign() == 0 {
		panic("tds: division by zero")
	}
	negative := (n.Sign() < 0) != (d.Sign() < 0)

	num := new(big.Int).Abs(n)
	den := new(big.Int).Abs(d)
	num.Mul(num, pow10(digits))

	q := new(big.Int).Quo(num, den)
	if q.Sign() == 0 {
		negative = false
	}
	return formatScaled(q, digits, negative)
}

// formatScaled renders an unsigned integer q as q / 10^digits.
func formatScaled(q *big.Int, digits int, negative bool) string {
	s := q.String()
	if digits > 0 {
		if len(s) <= digits {
			s = strings.Repeat("0", digits-len(s)+1) + s
		}
		s = s[:len(s)-digits] + "." + s[len(s)-digits:]
	}
	if negative {
		s = "-" + s
	}
	return s
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
