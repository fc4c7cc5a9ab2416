// Package resultset exposes decoded TDS records through cursors.
//
// Buffered keeps every record it has pulled so the caller can seek back
// and forth without the source being read twice. Unbuffered streams
// records forward only.
package resultset

import (
	"errors"
	"fmt"
	"io"

	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

// Source delivers raw records of one result set.
// Fetch returns io.EOF once no more records exist; it may block until the
// transport delivers the next record.
type Source interface {
	Fetch(fields tds.Fields) (tds.RawRecord, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(fields tds.Fields) (tds.RawRecord, error)

func (f SourceFunc) Fetch(fields tds.Fields) (tds.RawRecord, error) {
	return f(fields)
}

// ResultSet is the common cursor surface.
type ResultSet interface {
	// Fields returns the descriptors of the result set.
	Fields() tds.Fields

	// Next returns the next row. ok is false once the result set is
	// consumed; that state is terminal and repeated calls stay there.
	Next() (row tds.Row, ok bool, err error)

	// Seek positions the cursor so that the following Next returns row index.
	Seek(index int) error

	// Close releases the underlying source.
	Close() error
}

var (
	// ErrSeekOutOfBounds matches every *SeekError.
	ErrSeekOutOfBounds = errors.New("seek out of bounds")

	// ErrSeekUnsupported is returned by cursors that cannot reposition.
	ErrSeekUnsupported = errors.New("seek not supported on unbuffered result set")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("result set is closed")
)

// SeekError reports an unreachable seek offset. The cursor is left where it was.
type SeekError struct {
	Offset int
}

func (e *SeekError) Error() string {
	return fmt.Sprintf("cannot seek to offset %d, out of bounds", e.Offset)
}

func (e *SeekError) Is(target error) bool {
	return target == ErrSeekOutOfBounds
}

// pull fetches and decodes one record. ok is false at end of data.
func pull(src Source, fields tds.Fields) (tds.Row, bool, error) {
	rec, err := src.Fetch(fields)
	if errors.Is(err, io.EOF) {
		return tds.Row{}, false, nil
	}
	if err != nil {
		return tds.Row{}, false, fmt.Errorf("failed to fetch record: %w", err)
	}
	row, err := tds.DecodeRecord(fields, rec)
	if err != nil {
		return tds.Row{}, false, err
	}
	return row, true, nil
}

func closeSource(src Source) error {
	if c, ok := src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
