package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/big"
	"strings"

	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

// Writer encodes result sets as a TDS token stream readable by Reader.
// Values are accepted in the raw forms tds.DecodeField understands.
type Writer struct {
	w      *bufio.Writer
	opts   options
	fields tds.Fields
	rows   uint64
}

// NewWriter wraps w. Call Flush when done.
func NewWriter(w io.Writer, opts ...Option) *Writer {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &Writer{w: bufio.NewWriter(w), opts: o}
}

// WriteColMetadata starts a result set.
func (w *Writer) WriteColMetadata(fields tds.Fields) error {
	if len(fields) >= int(noMetadata) {
		return fmt.Errorf("too many columns: %d", len(fields))
	}
	buf := []byte{TokenColMetadata}
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(fields)))
	for _, f := range fields {
		flags := uint16(0)
		if f.Type.FixedSize() == 0 {
			flags |= flagNullable
		}
		buf = binary.LittleEndian.AppendUint32(buf, 0)
		buf = binary.LittleEndian.AppendUint16(buf, flags)
		buf = append(buf, byte(f.Type))

		info, err := typeInfo(f)
		if err != nil {
			return err
		}
		buf = append(buf, info...)

		name, err := encodeUCS2(f.Name)
		if err != nil {
			return fmt.Errorf("failed to encode column name %q: %w", f.Name, err)
		}
		if len(name)/2 > math.MaxUint8 {
			return fmt.Errorf("column name too long: %q", f.Name)
		}
		buf = append(buf, byte(len(name)/2))
		buf = append(buf, name...)
	}
	w.fields = fields
	w.rows = 0
	_, err := w.w.Write(buf)
	return err
}

// WriteRow writes one ROW token for the current result set.
func (w *Writer) WriteRow(rec tds.RawRecord) error {
	if w.fields == nil {
		return fmt.Errorf("no result set started")
	}
	if len(rec) != len(w.fields) {
		return fmt.Errorf("record has %d columns, expected %d", len(rec), len(w.fields))
	}
	buf := []byte{TokenRow}
	for i, f := range w.fields {
		var err error
		buf, err = w.appendValue(buf, f, rec[i])
		if err != nil {
			return err
		}
	}
	w.rows++
	_, err := w.w.Write(buf)
	return err
}

// WriteDone ends the current result set. more signals that another follows.
func (w *Writer) WriteDone(more bool) error {
	status := DoneCount
	if more {
		status |= DoneMore
	}
	buf := []byte{TokenDone}
	buf = binary.LittleEndian.AppendUint16(buf, status)
	buf = binary.LittleEndian.AppendUint16(buf, 0xC1) // SELECT
	buf = binary.LittleEndian.AppendUint64(buf, w.rows)
	w.fields = nil
	_, err := w.w.Write(buf)
	return err
}

// WriteError writes an ERROR token.
func (w *Writer) WriteError(e *ServerError) error {
	var p []byte
	p = binary.LittleEndian.AppendUint32(p, uint32(e.Number))
	p = append(p, e.State, e.Class)
	for i, s := range []string{e.Message, e.ServerName, e.ProcName} {
		b, err := encodeUCS2(s)
		if err != nil {
			return err
		}
		if i == 0 {
			p = binary.LittleEndian.AppendUint16(p, uint16(len(b)/2))
		} else {
			p = append(p, byte(len(b)/2))
		}
		p = append(p, b...)
	}
	p = binary.LittleEndian.AppendUint32(p, uint32(e.LineNumber))

	buf := []byte{TokenError}
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(p)))
	buf = append(buf, p...)
	_, err := w.w.Write(buf)
	return err
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

func typeInfo(f tds.Field) ([]byte, error) {
	t := f.Type
	switch {
	case t.FixedSize() > 0:
		return nil, nil
	case t == tds.TypeIntN, t == tds.TypeFltN, t == tds.TypeMoneyN:
		return []byte{byte(nullableWidth(f))}, nil
	case t == tds.TypeBitN:
		return []byte{1}, nil
	case t == tds.TypeVarchar, t == tds.TypeChar:
		n := f.Length
		if n <= 0 || n > 255 {
			n = 255
		}
		return []byte{byte(n)}, nil
	case t.IsNumeric():
		if f.Precision < 0 || f.Precision > 38 || f.Scale < 0 || f.Scale > 38 {
			return nil, fmt.Errorf("invalid numeric precision/scale (%d,%d) for %s", f.Precision, f.Scale, f.Name)
		}
		return []byte{byte(1 + numericWidth(f.Precision)), byte(f.Precision), byte(f.Scale)}, nil
	case t == tds.TypeBigVarchar, t == tds.TypeBigChar, t == tds.TypeNVarchar, t == tds.TypeNChar:
		n := f.Length
		if n <= 0 || n > 8000 {
			n = 8000
		}
		b := binary.LittleEndian.AppendUint16(nil, uint16(n))
		return append(b, defaultCollation[:]...), nil
	case t == tds.TypeText:
		n := f.Length
		if n <= 0 {
			n = math.MaxInt32
		}
		b := binary.LittleEndian.AppendUint32(nil, uint32(n))
		b = append(b, defaultCollation[:]...)
		return binary.LittleEndian.AppendUint16(b, 0), nil
	default:
		return nil, tds.Unsupported(f)
	}
}

// nullableWidth is the data width of INTN, FLTN and MONEYN columns.
func nullableWidth(f tds.Field) int {
	switch f.Length {
	case 1, 2, 4, 8:
		if f.Type == tds.TypeFltN || f.Type == tds.TypeMoneyN {
			if f.Length == 4 {
				return 4
			}
			return 8
		}
		return f.Length
	default:
		return 8
	}
}

// numericWidth is the magnitude width for a declared precision.
func numericWidth(precision int) int {
	switch {
	case precision == 0:
		return 16
	case precision <= 9:
		return 4
	case precision <= 19:
		return 8
	case precision <= 28:
		return 12
	default:
		return 16
	}
}

func (w *Writer) appendValue(buf []byte, f tds.Field, raw any) ([]byte, error) {
	t := f.Type
	if raw == nil {
		switch {
		case t.FixedSize() > 0:
			return nil, fmt.Errorf("column %s (%s) is not nullable", f.Name, t)
		case t == tds.TypeBigVarchar, t == tds.TypeBigChar, t == tds.TypeNVarchar, t == tds.TypeNChar:
			return binary.LittleEndian.AppendUint16(buf, nullLength), nil
		default:
			return append(buf, 0), nil
		}
	}

	switch {
	case t.FixedSize() > 0:
		return appendFixed(buf, f, t.FixedSize(), raw)

	case t == tds.TypeIntN, t == tds.TypeBitN, t == tds.TypeFltN, t == tds.TypeMoneyN:
		width := nullableWidth(f)
		if t == tds.TypeBitN {
			width = 1
		}
		buf = append(buf, byte(width))
		return appendFixed(buf, f, width, raw)

	case t.IsNumeric():
		digits, err := numericBytes(f, raw)
		if err != nil {
			return nil, err
		}
		buf = append(buf, byte(len(digits)))
		return append(buf, digits...), nil

	case t.IsText():
		s, err := rawText(f, raw)
		if err != nil {
			return nil, err
		}
		var b []byte
		if t.IsUnicode() {
			b, err = encodeUCS2(s)
		} else {
			b, err = encodeSingleByte(w.opts.charset, s)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to encode column %s: %w", f.Name, err)
		}
		switch t {
		case tds.TypeVarchar, tds.TypeChar:
			if len(b) == 0 || len(b) > 255 {
				return nil, fmt.Errorf("column %s: length %d does not fit a %s", f.Name, len(b), t)
			}
			buf = append(buf, byte(len(b)))
		case tds.TypeText:
			buf = append(buf, 16)
			buf = append(buf, make([]byte, 16+8)...)
			buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b)))
		default:
			if len(b) >= int(nullLength) {
				return nil, fmt.Errorf("column %s: length %d too long", f.Name, len(b))
			}
			buf = binary.LittleEndian.AppendUint16(buf, uint16(len(b)))
		}
		return append(buf, b...), nil

	default:
		return nil, tds.Unsupported(f)
	}
}

// appendFixed encodes integers, floats and money in width bytes.
func appendFixed(buf []byte, f tds.Field, width int, raw any) ([]byte, error) {
	t := f.Type
	switch {
	case t.IsFloat():
		v, ok := toFloat(raw)
		if !ok {
			return nil, fmt.Errorf("column %s: cannot encode %T as float", f.Name, raw)
		}
		if width == 4 {
			return binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v))), nil
		}
		return binary.LittleEndian.AppendUint64(buf, math.Float64bits(v)), nil

	case t.IsMoney():
		scaled, err := moneyScaled(f, raw)
		if err != nil {
			return nil, err
		}
		if width == 4 {
			if scaled < math.MinInt32 || scaled > math.MaxInt32 {
				return nil, fmt.Errorf("column %s: %d overflows smallmoney", f.Name, scaled)
			}
			return binary.LittleEndian.AppendUint32(buf, uint32(int32(scaled))), nil
		}
		m := tds.MoneyFromInt64(scaled)
		buf = binary.LittleEndian.AppendUint32(buf, m.Hi)
		return binary.LittleEndian.AppendUint32(buf, m.Lo), nil

	default:
		v, err := toInt(f, raw)
		if err != nil {
			return nil, err
		}
		switch width {
		case 1:
			if v < 0 || v > math.MaxUint8 {
				return nil, fmt.Errorf("column %s: %d overflows 1 byte", f.Name, v)
			}
			return append(buf, byte(v)), nil
		case 2:
			if v < math.MinInt16 || v > math.MaxInt16 {
				return nil, fmt.Errorf("column %s: %d overflows 2 bytes", f.Name, v)
			}
			return binary.LittleEndian.AppendUint16(buf, uint16(int16(v))), nil
		case 4:
			if v < math.MinInt32 || v > math.MaxInt32 {
				return nil, fmt.Errorf("column %s: %d overflows 4 bytes", f.Name, v)
			}
			return binary.LittleEndian.AppendUint32(buf, uint32(int32(v))), nil
		default:
			return binary.LittleEndian.AppendUint64(buf, uint64(v)), nil
		}
	}
}

func toInt(f tds.Field, raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("column %s: cannot encode %T as integer", f.Name, raw)
	}
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	default:
		return 0, false
	}
}

// moneyScaled returns the value scaled by 10000.
func moneyScaled(f tds.Field, raw any) (int64, error) {
	switch v := raw.(type) {
	case tds.MoneyWords:
		return v.Int64(), nil
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("column %s: cannot encode %T as money", f.Name, raw)
	}
}

// numericBytes encodes an unscaled numeric as sign byte plus magnitude.
func numericBytes(f tds.Field, raw any) ([]byte, error) {
	var n *big.Int
	switch v := raw.(type) {
	case string:
		var ok bool
		n, ok = new(big.Int).SetString(strings.TrimSpace(v), 10)
		if !ok {
			return nil, fmt.Errorf("column %s: invalid numeric digits %q", f.Name, v)
		}
	case *big.Int:
		n = v
	default:
		i, err := toInt(f, raw)
		if err != nil {
			return nil, err
		}
		n = big.NewInt(i)
	}

	width := numericWidth(f.Precision)
	mag := new(big.Int).Abs(n).Bytes()
	if len(mag) > width {
		return nil, fmt.Errorf("column %s: value %s overflows precision %d", f.Name, n, f.Precision)
	}
	out := make([]byte, 1+width)
	if n.Sign() >= 0 {
		out[0] = 1
	}
	for i, b := range mag {
		out[len(mag)-i] = b
	}
	return out, nil
}

func rawText(f tds.Field, raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("column %s: cannot encode %T as text", f.Name, raw)
	}
}
