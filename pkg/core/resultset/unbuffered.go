package resultset

import (
	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

// Unbuffered streams rows forward without keeping them.
type Unbuffered struct {
	src       Source
	fields    tds.Fields
	exhausted bool
	err       error
	closed    bool
}

var _ ResultSet = (*Unbuffered)(nil)

// NewUnbuffered creates a forward-only cursor.
func NewUnbuffered(src Source, fields tds.Fields) *Unbuffered {
	return &Unbuffered{src: src, fields: fields}
}

func (u *Unbuffered) Fields() tds.Fields { return u.fields }

func (u *Unbuffered) Next() (tds.Row, bool, error) {
	switch {
	case u.closed:
		return tds.Row{}, false, ErrClosed
	case u.err != nil:
		return tds.Row{}, false, u.err
	case u.exhausted:
		return tds.Row{}, false, nil
	}
	row, ok, err := pull(u.src, u.fields)
	if err != nil {
		u.err = err
		return tds.Row{}, false, err
	}
	if !ok {
		u.exhausted = true
	}
	return row, ok, nil
}

// Seek always fails: rows are not retained.
func (u *Unbuffered) Seek(index int) error {
	return ErrSeekUnsupported
}

func (u *Unbuffered) Close() error {
	if u.closed {
		return nil
	}
	u.closed = true
	return closeSource(u.src)
}
