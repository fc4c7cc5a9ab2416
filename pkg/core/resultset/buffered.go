package resultset

import (
	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

// Buffered is a seekable cursor over a lazily read source.
//
// Every row pulled from the source is appended to an in-memory buffer and
// never evicted; replaying buffered rows never touches the source, so the
// source is read exactly once per distinct record requested. The buffer
// grows for the lifetime of the cursor.
//
// A Buffered is not safe for concurrent use.
type Buffered struct {
	src    Source
	fields tds.Fields

	buf       []tds.Row
	pos       int // index of the last returned row, -1 before the first
	exhausted bool
	err       error // sticky decode or fetch failure
	closed    bool

	// Rows and end of data seen by a failed Seek. They join buf and
	// exhausted only when a later Next or Seek reaches them.
	pending    []tds.Row
	pendingEOF bool
}

var _ ResultSet = (*Buffered)(nil)

// NewBuffered creates a cursor positioned before the first row.
func NewBuffered(src Source, fields tds.Fields) *Buffered {
	return &Buffered{
		src:    src,
		fields: fields,
		pos:    -1,
	}
}

func (b *Buffered) Fields() tds.Fields { return b.fields }

// Len returns the number of rows buffered so far.
func (b *Buffered) Len() int { return len(b.buf) }

// Position returns the index of the last row returned by Next, -1 before the first.
func (b *Buffered) Position() int { return b.pos }

// Exhausted reports whether the source has signalled end of data.
func (b *Buffered) Exhausted() bool { return b.exhausted }

// Next returns the row after the current position, pulling it from the
// source when it is not buffered yet.
func (b *Buffered) Next() (tds.Row, bool, error) {
	if b.closed {
		return tds.Row{}, false, ErrClosed
	}
	if b.pos+1 < len(b.buf) {
		b.pos++
		return b.buf[b.pos], true, nil
	}
	ok, err := b.fetch()
	if err != nil || !ok {
		return tds.Row{}, false, err
	}
	b.pos++
	return b.buf[b.pos], true, nil
}

// Seek positions the cursor right before row index, pulling rows one at a
// time until index is buffered. A negative or unreachable index yields a
// *SeekError and leaves the cursor exactly as it was: rows pulled while
// probing are held back, so the source is still read only once per record.
func (b *Buffered) Seek(index int) error {
	if b.closed {
		return ErrClosed
	}
	if index < 0 {
		return &SeekError{Offset: index}
	}
	for len(b.buf)+len(b.pending) <= index {
		if b.exhausted || b.pendingEOF {
			return &SeekError{Offset: index}
		}
		if b.err != nil {
			return b.err
		}
		row, ok, err := pull(b.src, b.fields)
		if err != nil {
			b.err = err
			return err
		}
		if !ok {
			b.pendingEOF = true
			return &SeekError{Offset: index}
		}
		b.pending = append(b.pending, row)
	}
	for len(b.buf) <= index {
		b.fetch()
	}
	b.pos = index - 1
	return nil
}

// Close drops the source. Buffered rows are released with the cursor.
func (b *Buffered) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	return closeSource(b.src)
}

// fetch appends one row, held back or from the source. It reports false once exhausted.
func (b *Buffered) fetch() (bool, error) {
	if len(b.pending) > 0 {
		b.buf = append(b.buf, b.pending[0])
		b.pending = b.pending[1:]
		return true, nil
	}
	if b.pendingEOF {
		b.pendingEOF = false
		b.exhausted = true
		return false, nil
	}
	if b.err != nil {
		return false, b.err
	}
	if b.exhausted {
		return false, nil
	}
	row, ok, err := pull(b.src, b.fields)
	if err != nil {
		b.err = err
		return false, err
	}
	if !ok {
		b.exhausted = true
		return false, nil
	}
	b.buf = append(b.buf, row)
	return true, nil
}
