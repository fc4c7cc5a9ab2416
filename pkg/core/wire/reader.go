package wire

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/text/encoding"

	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

// Option configures a Reader or Writer.
type Option func(*options)

type options struct {
	charset encoding.Encoding
}

// WithCharset sets the code page of single-byte character data
// (CHAR, VARCHAR, BIGCHAR, BIGVARCHAR, TEXT), e.g. charmap.Windows1252.
// Without it the bytes are taken as UTF-8.
func WithCharset(enc encoding.Encoding) Option {
	return func(o *options) { o.charset = enc }
}

// Reader decodes a TDS token stream into field descriptors and raw records.
// It is not safe for concurrent use.
type Reader struct {
	r        *bufio.Reader
	opts     options
	fields   tds.Fields
	inResult bool
	done     Done
	rows     uint64
}

// NewReader wraps r.
func NewReader(r io.Reader, opts ...Option) *Reader {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &Reader{r: bufio.NewReader(r), opts: o}
}

// Fields returns the descriptors of the current result set.
func (r *Reader) Fields() tds.Fields { return r.fields }

// LastDone returns the most recent DONE token.
func (r *Reader) LastDone() Done { return r.done }

// RowsRead returns the number of ROW tokens read in the current result set.
func (r *Reader) RowsRead() uint64 { return r.rows }

// NextResult advances to the next COLMETADATA token and returns its
// descriptors. Rows left in the current result set are skipped. It returns
// io.EOF once the stream ends.
func (r *Reader) NextResult() (tds.Fields, error) {
	for r.inResult {
		if _, err := r.Fetch(r.fields); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
	}

	for {
		token, err := r.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("failed to read token: %w", err)
		}

		switch token {
		case TokenColMetadata:
			fields, err := r.readColMetadata()
			if err != nil {
				return nil, err
			}
			if fields == nil {
				continue
			}
			r.fields = fields
			r.inResult = true
			r.rows = 0
			return fields, nil
		case TokenDone, TokenDoneProc, TokenDoneInProc:
			if err := r.readDone(token); err != nil {
				return nil, err
			}
		case TokenRow:
			return nil, malformedStream("ROW token outside of a result set")
		default:
			if err := r.handleAux(token); err != nil {
				return nil, err
			}
		}
	}
}

// Fetch implements resultset.Source: it returns the next ROW of the current
// result set, or io.EOF at its DONE token.
func (r *Reader) Fetch(fields tds.Fields) (tds.RawRecord, error) {
	if !r.inResult {
		return nil, io.EOF
	}
	for {
		token, err := r.r.ReadByte()
		if err != nil {
			r.inResult = false
			if errors.Is(err, io.EOF) {
				return nil, malformedStream("stream ended inside a result set")
			}
			return nil, fmt.Errorf("failed to read token: %w", err)
		}

		switch token {
		case TokenRow:
			rec, err := r.readRow(fields)
			if err != nil {
				return nil, err
			}
			r.rows++
			return rec, nil
		case TokenDone, TokenDoneProc, TokenDoneInProc:
			r.inResult = false
			if err := r.readDone(token); err != nil {
				return nil, err
			}
			return nil, io.EOF
		case TokenColMetadata:
			return nil, malformedStream("COLMETADATA before DONE of the previous result set")
		default:
			if err := r.handleAux(token); err != nil {
				return nil, err
			}
		}
	}
}

// handleAux consumes tokens that carry no row data.
func (r *Reader) handleAux(token byte) error {
	switch token {
	case TokenError:
		payload, err := r.readUShortPayload()
		if err != nil {
			return err
		}
		return parseServerError(payload)
	case TokenInfo, TokenEnvChange, TokenOrder, TokenLoginAck:
		_, err := r.readUShortPayload()
		return err
	case TokenReturnStatus:
		_, err := r.readN(4)
		return err
	default:
		return &tds.DecodeError{Err: tds.ErrUnsupportedType, Detail: fmt.Sprintf("token 0x%02X", token)}
	}
}

func (r *Reader) readDone(token byte) error {
	b, err := r.readN(12)
	if err != nil {
		return err
	}
	r.done = Done{
		Token:    token,
		Status:   binary.LittleEndian.Uint16(b[0:2]),
		CurCmd:   binary.LittleEndian.Uint16(b[2:4]),
		RowCount: binary.LittleEndian.Uint64(b[4:12]),
	}
	if r.done.Status&DoneError != 0 && r.done.Status&DoneAttn != 0 {
		return fmt.Errorf("tds: statement cancelled (status 0x%04X)", r.done.Status)
	}
	return nil
}

func (r *Reader) readColMetadata() (tds.Fields, error) {
	count, err := r.readU16()
	if err != nil {
		return nil, err
	}
	if count == noMetadata {
		return nil, nil
	}

	fields := make(tds.Fields, count)
	for i := range fields {
		// usertype and flags carry nothing the decoder needs
		if _, err := r.readN(6); err != nil {
			return nil, err
		}
		typ, err := r.r.ReadByte()
		if err != nil {
			return nil, truncated(err)
		}
		f := tds.Field{Type: tds.WireType(typ)}
		if err := r.readTypeInfo(&f); err != nil {
			return nil, err
		}
		name, err := r.readBVarchar()
		if err != nil {
			return nil, err
		}
		f.Name = name
		fields[i] = f
	}
	return fields, nil
}

func (r *Reader) readTypeInfo(f *tds.Field) error {
	t := f.Type
	switch {
	case t.FixedSize() > 0:
		f.Length = t.FixedSize()
	case t == tds.TypeIntN, t == tds.TypeBitN, t == tds.TypeFltN, t == tds.TypeMoneyN,
		t == tds.TypeVarchar, t == tds.TypeChar:
		n, err := r.r.ReadByte()
		if err != nil {
			return truncated(err)
		}
		f.Length = int(n)
	case t.IsNumeric():
		b, err := r.readN(3)
		if err != nil {
			return err
		}
		f.Length, f.Precision, f.Scale = int(b[0]), int(b[1]), int(b[2])
	case t == tds.TypeBigVarchar, t == tds.TypeBigChar, t == tds.TypeNVarchar, t == tds.TypeNChar:
		n, err := r.readU16()
		if err != nil {
			return err
		}
		f.Length = int(n)
		if _, err := r.readN(len(defaultCollation)); err != nil {
			return err
		}
	case t == tds.TypeText:
		n, err := r.readU32()
		if err != nil {
			return err
		}
		f.Length = int(n)
		if _, err := r.readN(len(defaultCollation)); err != nil {
			return err
		}
		if _, err := r.readUSVarchar(); err != nil { // table name
			return err
		}
	default:
		return tds.Unsupported(*f)
	}
	return nil
}

func (r *Reader) readRow(fields tds.Fields) (tds.RawRecord, error) {
	rec := make(tds.RawRecord, len(fields))
	for i, f := range fields {
		v, err := r.readValue(f)
		if err != nil {
			return nil, err
		}
		rec[i] = v
	}
	return rec, nil
}

// readValue reads one column and returns its raw form.
func (r *Reader) readValue(f tds.Field) (any, error) {
	t := f.Type
	switch {
	case t.FixedSize() > 0:
		b, err := r.readColumn(f, t.FixedSize())
		if err != nil {
			return nil, err
		}
		return fixedValue(f, b)

	case t == tds.TypeIntN, t == tds.TypeBitN, t == tds.TypeFltN, t == tds.TypeMoneyN:
		n, err := r.r.ReadByte()
		if err != nil {
			return nil, truncated(err)
		}
		if n == 0 {
			return nil, nil
		}
		b, err := r.readColumn(f, int(n))
		if err != nil {
			return nil, err
		}
		return nullableValue(f, b)

	case t.IsNumeric():
		n, err := r.r.ReadByte()
		if err != nil {
			return nil, truncated(err)
		}
		if n == 0 {
			return nil, nil
		}
		b, err := r.readColumn(f, int(n))
		if err != nil {
			return nil, err
		}
		return numericDigits(f, b)

	case t == tds.TypeVarchar, t == tds.TypeChar:
		n, err := r.r.ReadByte()
		if err != nil {
			return nil, truncated(err)
		}
		if n == 0 {
			return nil, nil
		}
		b, err := r.readColumn(f, int(n))
		if err != nil {
			return nil, err
		}
		return r.text(f, b)

	case t == tds.TypeBigVarchar, t == tds.TypeBigChar, t == tds.TypeNVarchar, t == tds.TypeNChar:
		n, err := r.readU16()
		if err != nil {
			return nil, err
		}
		if n == nullLength {
			return nil, nil
		}
		b, err := r.readColumn(f, int(n))
		if err != nil {
			return nil, err
		}
		return r.text(f, b)

	case t == tds.TypeText:
		ptrLen, err := r.r.ReadByte()
		if err != nil {
			return nil, truncated(err)
		}
		if ptrLen == 0 {
			return nil, nil
		}
		// text pointer and 8-byte timestamp
		if _, err := r.readN(int(ptrLen) + 8); err != nil {
			return nil, err
		}
		n, err := r.readU32()
		if err != nil {
			return nil, err
		}
		b, err := r.readColumn(f, int(n))
		if err != nil {
			return nil, err
		}
		return r.text(f, b)

	default:
		return nil, tds.Unsupported(f)
	}
}

func (r *Reader) text(f tds.Field, b []byte) (string, error) {
	var (
		s   string
		err error
	)
	if f.Type.IsUnicode() {
		if len(b)%2 != 0 {
			return "", tds.Malformed(f, "odd UTF-16 byte length %d", len(b))
		}
		s, err = decodeUCS2(b)
	} else {
		s, err = decodeSingleByte(r.opts.charset, b)
	}
	if err != nil {
		return "", tds.Malformed(f, "%v", err)
	}
	return s, nil
}

// fixedValue converts a fixed-width column to its native Go form.
func fixedValue(f tds.Field, b []byte) (any, error) {
	switch f.Type {
	case tds.TypeInt1, tds.TypeBit:
		return b[0], nil
	case tds.TypeInt2:
		return int16(binary.LittleEndian.Uint16(b)), nil
	case tds.TypeInt4:
		return int32(binary.LittleEndian.Uint32(b)), nil
	case tds.TypeInt8:
		return int64(binary.LittleEndian.Uint64(b)), nil
	case tds.TypeFlt4, tds.TypeFlt8:
		return append([]byte(nil), b...), nil
	case tds.TypeMoney:
		return tds.MoneyWords{
			Hi: binary.LittleEndian.Uint32(b[0:4]),
			Lo: binary.LittleEndian.Uint32(b[4:8]),
		}, nil
	case tds.TypeMoney4:
		return int32(binary.LittleEndian.Uint32(b)), nil
	default:
		return nil, tds.Unsupported(f)
	}
}

// nullableValue converts the data of INTN, BITN, FLTN and MONEYN columns.
func nullableValue(f tds.Field, b []byte) (any, error) {
	switch f.Type {
	case tds.TypeIntN:
		switch len(b) {
		case 1:
			return b[0], nil
		case 2:
			return int16(binary.LittleEndian.Uint16(b)), nil
		case 4:
			return int32(binary.LittleEndian.Uint32(b)), nil
		case 8:
			return int64(binary.LittleEndian.Uint64(b)), nil
		}
	case tds.TypeBitN:
		if len(b) == 1 {
			return b[0], nil
		}
	case tds.TypeFltN:
		if len(b) == 4 || len(b) == 8 {
			return append([]byte(nil), b...), nil
		}
	case tds.TypeMoneyN:
		switch len(b) {
		case 4:
			return int32(binary.LittleEndian.Uint32(b)), nil
		case 8:
			return tds.MoneyWords{
				Hi: binary.LittleEndian.Uint32(b[0:4]),
				Lo: binary.LittleEndian.Uint32(b[4:8]),
			}, nil
		}
	}
	return nil, tds.Malformed(f, "invalid data length %d", len(b))
}

// numericDigits turns sign byte plus little-endian magnitude into the
// signed digit string of the unscaled value.
func numericDigits(f tds.Field, b []byte) (string, error) {
	switch len(b) {
	case 5, 9, 13, 17:
	default:
		return "", tds.Malformed(f, "invalid numeric length %d", len(b))
	}
	sign := b[0]
	if sign > 1 {
		return "", tds.Malformed(f, "invalid numeric sign byte 0x%02X", sign)
	}
	mag := make([]byte, len(b)-1)
	for i := range mag {
		mag[i] = b[len(b)-1-i]
	}
	n := new(big.Int).SetBytes(mag)
	if sign == 0 {
		n.Neg(n)
	}
	return n.String(), nil
}

func parseServerError(p []byte) error {
	d := payloadReader{b: p}
	e := &ServerError{
		Number: int32(d.u32()),
		State:  d.u8(),
		Class:  d.u8(),
	}
	e.Message = d.ucs2(int(d.u16()))
	e.ServerName = d.ucs2(int(d.u8()))
	e.ProcName = d.ucs2(int(d.u8()))
	e.LineNumber = int32(d.u32())
	if d.err != nil {
		return malformedStream("truncated ERROR token")
	}
	return e
}

// columnChunk bounds the up-front allocation for column data.
const columnChunk = 64 << 10

// readColumn reads n bytes of column data. The buffer grows with the bytes
// actually received, so a corrupt length cannot force a huge allocation.
func (r *Reader) readColumn(f tds.Field, n int) ([]byte, error) {
	if n <= columnChunk {
		b := make([]byte, n)
		if _, err := io.ReadFull(r.r, b); err != nil {
			return nil, tds.Malformed(f, "truncated column data: %v", err)
		}
		return b, nil
	}
	var buf bytes.Buffer
	buf.Grow(columnChunk)
	got, err := io.CopyN(&buf, r.r, int64(n))
	if err != nil {
		if errors.Is(err, io.EOF) && got > 0 {
			err = io.ErrUnexpectedEOF
		}
		return nil, tds.Malformed(f, "truncated column data: %v", err)
	}
	return buf.Bytes(), nil
}

func (r *Reader) readN(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r.r, b); err != nil {
		return nil, truncated(err)
	}
	return b, nil
}

func (r *Reader) readU16() (uint16, error) {
	b, err := r.readN(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) readU32() (uint32, error) {
	b, err := r.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) readUShortPayload() ([]byte, error) {
	n, err := r.readU16()
	if err != nil {
		return nil, err
	}
	return r.readN(int(n))
}

// readBVarchar reads a byte-counted UTF-16 string.
func (r *Reader) readBVarchar() (string, error) {
	n, err := r.r.ReadByte()
	if err != nil {
		return "", truncated(err)
	}
	b, err := r.readN(int(n) * 2)
	if err != nil {
		return "", err
	}
	s, err := decodeUCS2(b)
	if err != nil {
		return "", malformedStream(err.Error())
	}
	return s, nil
}

// readUSVarchar reads a ushort-counted UTF-16 string.
func (r *Reader) readUSVarchar() (string, error) {
	n, err := r.readU16()
	if err != nil {
		return "", err
	}
	b, err := r.readN(int(n) * 2)
	if err != nil {
		return "", err
	}
	s, err := decodeUCS2(b)
	if err != nil {
		return "", malformedStream(err.Error())
	}
	return s, nil
}

func malformedStream(detail string) error {
	return &tds.DecodeError{Err: tds.ErrMalformedValue, Detail: detail}
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return malformedStream("truncated stream")
	}
	return fmt.Errorf("failed to read stream: %w", err)
}

// payloadReader walks a length-bounded token payload.
type payloadReader struct {
	b   []byte
	off int
	err error
}

func (d *payloadReader) take(n int) []byte {
	if d.err != nil || d.off+n > len(d.b) {
		d.err = io.ErrUnexpectedEOF
		return make([]byte, n)
	}
	out := d.b[d.off : d.off+n]
	d.off += n
	return out
}

func (d *payloadReader) u8() uint8   { return d.take(1)[0] }
func (d *payloadReader) u16() uint16 { return binary.LittleEndian.Uint16(d.take(2)) }
func (d *payloadReader) u32() uint32 { return binary.LittleEndian.Uint32(d.take(4)) }

func (d *payloadReader) ucs2(chars int) string {
	s, err := decodeUCS2(d.take(chars * 2))
	if err != nil && d.err == nil {
		d.err = err
	}
	return s
}
