// Package tds decodes the column values of a TDS result set into typed Go values.
//
// A result set is described by an ordered list of Field descriptors (name,
// wire type, optional scale and precision). The transport hands over every
// record as a RawRecord holding each column in its primitive wire form; the
// decoder turns it into a Row of Values.
//
// # Values
//
// Value is a tagged union with the variants Null, Integer, Float, Decimal
// and Text. Consumers switch on Kind():
//
//	switch v.Kind() {
//	case tds.KindInteger:
//	    n, _ := v.Int()
//	case tds.KindDecimal:
//	    s, _ := v.Decimal() // exact, e.g. "4100.00000"
//	...
//	}
//
// # Money and numerics
//
// MONEY and SMALLMONEY always decode to exact Decimal strings with five
// fractional digits. DECIMAL/NUMERIC with scale 0 decode to Integer, or to
// Decimal when the value exceeds int64. Scaled numerics decode to Float as
// long as their digit count fits FloatDigits(), otherwise to Decimal so no
// precision is silently lost.
//
// # Errors
//
// Every failure is a *DecodeError wrapping ErrMalformedValue or
// ErrUnsupportedType. Decode errors are never retried or logged here.
package tds
