package resultset

import (
	"io"

	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

// Collect drains rs from its current position into a slice.
func Collect(rs ResultSet) ([]tds.Row, error) {
	var rows []tds.Row
	for {
		row, ok, err := rs.Next()
		if err != nil {
			return rows, err
		}
		if !ok {
			return rows, nil
		}
		rows = append(rows, row)
	}
}

// SliceSource serves pre-built raw records, e.g. records replayed from a capture.
type SliceSource struct {
	Records []tds.RawRecord
	Reads   int // number of Fetch calls that returned a record
}

func (s *SliceSource) Fetch(tds.Fields) (tds.RawRecord, error) {
	if s.Reads >= len(s.Records) {
		return nil, io.EOF
	}
	rec := s.Records[s.Reads]
	s.Reads++
	return rec, nil
}
