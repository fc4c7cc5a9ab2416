package resultset

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/ruslano69/tdtp-tds/pkg/core/tds"
)

type product struct {
	id   int
	name string
}

var productFields = tds.Fields{
	{Name: "id", Type: tds.TypeInt4},
	{Name: "name", Type: tds.TypeVarchar},
}

func newResultSet(products ...product) (*Buffered, *SliceSource) {
	src := &SliceSource{}
	for _, p := range products {
		src.Records = append(src.Records, tds.RawRecord{int32(p.id), p.name})
	}
	return NewBuffered(src, productFields), src
}

func expectedRow(p product) tds.Row {
	return tds.NewRow(productFields.Names(), []tds.Value{tds.Int(int64(p.id)), tds.Text(p.name)})
}

func assertNext(t *testing.T, rs ResultSet, p product) {
	t.Helper()
	row, ok, err := rs.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if !ok {
		t.Fatalf("Next returned end of data, expected %v", p)
	}
	if !row.Equal(expectedRow(p)) {
		t.Fatalf("Next = %v, want %v", row.Map(), expectedRow(p).Map())
	}
}

func assertEnd(t *testing.T, rs ResultSet) {
	t.Helper()
	row, ok, err := rs.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if ok {
		t.Fatalf("Expected end of data, got %v", row.Map())
	}
}

func assertSeekOutOfBounds(t *testing.T, rs ResultSet, offset int) {
	t.Helper()
	err := rs.Seek(offset)
	if !errors.Is(err, ErrSeekOutOfBounds) {
		t.Fatalf("Seek(%d): expected ErrSeekOutOfBounds, got %v", offset, err)
	}
	expected := fmt.Sprintf("cannot seek to offset %d, out of bounds", offset)
	if err.Error() != expected {
		t.Errorf("Seek(%d) error = %q, want %q", offset, err.Error(), expected)
	}
	var se *SeekError
	if !errors.As(err, &se) || se.Offset != offset {
		t.Errorf("Seek(%d) error carries offset %v", offset, se)
	}
}

var (
	lawnmower  = product{id: 6100, name: "Binford Lawnmower"}
	moonrocket = product{id: 61000, name: "Binford Moonrocket"}
)

func TestBuffered_CreateEmpty(t *testing.T) {
	rs, _ := newResultSet()
	if rs.Position() != -1 || rs.Len() != 0 || rs.Exhausted() {
		t.Errorf("fresh cursor: position=%d len=%d exhausted=%v", rs.Position(), rs.Len(), rs.Exhausted())
	}
}

func TestBuffered_NextOnEmpty(t *testing.T) {
	rs, _ := newResultSet()
	assertEnd(t, rs)
	assertEnd(t, rs)
	if !rs.Exhausted() {
		t.Error("cursor should be exhausted")
	}
}

func TestBuffered_NextOnce(t *testing.T) {
	rs, _ := newResultSet(product{id: 6100, name: "Binford"})
	assertNext(t, rs, product{id: 6100, name: "Binford"})
}

func TestBuffered_NextTwice(t *testing.T) {
	rs, _ := newResultSet(lawnmower, moonrocket)
	assertNext(t, rs, lawnmower)
	assertNext(t, rs, moonrocket)
}

func TestBuffered_NextReturnsFalseAtEnd(t *testing.T) {
	rs, _ := newResultSet(lawnmower)
	assertNext(t, rs, lawnmower)
	assertEnd(t, rs)
	assertEnd(t, rs)
}

func TestBuffered_SeekTo0BeforeStart(t *testing.T) {
	rs, _ := newResultSet(lawnmower)
	if err := rs.Seek(0); err != nil {
		t.Fatalf("Seek(0) failed: %v", err)
	}
	assertNext(t, rs, lawnmower)
}

func TestBuffered_SeekTo0AfterStart(t *testing.T) {
	rs, _ := newResultSet(lawnmower)
	assertNext(t, rs, lawnmower)
	if err := rs.Seek(0); err != nil {
		t.Fatalf("Seek(0) failed: %v", err)
	}
	assertNext(t, rs, lawnmower)
}

func TestBuffered_SeekTo1(t *testing.T) {
	rs, _ := newResultSet(lawnmower, moonrocket)
	if err := rs.Seek(1); err != nil {
		t.Fatalf("Seek(1) failed: %v", err)
	}
	assertNext(t, rs, moonrocket)
	assertEnd(t, rs)
}

func TestBuffered_SeekOutOfBounds(t *testing.T) {
	t.Run("Exceeding length on empty", func(t *testing.T) {
		rs, _ := newResultSet()
		assertSeekOutOfBounds(t, rs, 1)
	})
	t.Run("Negative offset", func(t *testing.T) {
		rs, _ := newResultSet()
		assertSeekOutOfBounds(t, rs, -1)
	})
	t.Run("Zero offset on empty", func(t *testing.T) {
		rs, _ := newResultSet()
		assertSeekOutOfBounds(t, rs, 0)
	})
	t.Run("Exceeding single record", func(t *testing.T) {
		rs, _ := newResultSet(lawnmower)
		assertSeekOutOfBounds(t, rs, 1)
	})
}

func TestBuffered_FailedSeekKeepsPosition(t *testing.T) {
	rs, src := newResultSet(lawnmower, moonrocket)
	assertNext(t, rs, lawnmower)

	assertSeekOutOfBounds(t, rs, 5)
	assertSeekOutOfBounds(t, rs, -3)
	assertSeekOutOfBounds(t, rs, 2)
	if rs.Position() != 0 {
		t.Errorf("Position after failed seek = %d, want 0", rs.Position())
	}
	if rs.Len() != 1 {
		t.Errorf("Len after failed seek = %d, want 1", rs.Len())
	}
	if rs.Exhausted() {
		t.Error("Exhausted after failed seek, want false")
	}

	assertNext(t, rs, moonrocket)
	if rs.Exhausted() {
		t.Error("Exhausted before end of data was returned")
	}
	assertEnd(t, rs)
	if !rs.Exhausted() {
		t.Error("Expected exhausted after end of data")
	}
	if src.Reads != 2 {
		t.Errorf("Source reads = %d, want 2", src.Reads)
	}
}

func TestBuffered_SeekAfterFailedSeek(t *testing.T) {
	rs, src := newResultSet(lawnmower, moonrocket)

	assertSeekOutOfBounds(t, rs, 4)
	if rs.Len() != 0 || rs.Exhausted() || rs.Position() != -1 {
		t.Fatalf("State after failed seek: len=%d exhausted=%v pos=%d", rs.Len(), rs.Exhausted(), rs.Position())
	}

	// rows pulled by the failed seek are not read again
	if err := rs.Seek(1); err != nil {
		t.Fatalf("Seek(1) failed: %v", err)
	}
	if rs.Len() != 2 || rs.Exhausted() {
		t.Errorf("State after Seek(1): len=%d exhausted=%v", rs.Len(), rs.Exhausted())
	}
	assertNext(t, rs, moonrocket)
	assertEnd(t, rs)

	if err := rs.Seek(0); err != nil {
		t.Fatalf("Seek(0) failed: %v", err)
	}
	assertNext(t, rs, lawnmower)
	if src.Reads != 2 {
		t.Errorf("Source reads = %d, want 2", src.Reads)
	}
}

func TestBuffered_SeekReplayMatchesLinearPass(t *testing.T) {
	const n = 12
	products := make([]product, n)
	for i := range products {
		products[i] = product{id: 6100 + i, name: fmt.Sprintf("Binford %d", i)}
	}

	linear, _ := newResultSet(products...)
	expected, err := Collect(linear)
	if err != nil {
		t.Fatalf("linear pass failed: %v", err)
	}
	if len(expected) != n {
		t.Fatalf("linear pass returned %d rows, want %d", len(expected), n)
	}

	rs, src := newResultSet(products...)
	for _, k := range []int{5, 0, n - 1, 3, 3, 7, 1} {
		if err := rs.Seek(k); err != nil {
			t.Fatalf("Seek(%d) failed: %v", k, err)
		}
		rows, err := Collect(rs)
		if err != nil {
			t.Fatalf("Collect after Seek(%d) failed: %v", k, err)
		}
		if len(rows) != n-k {
			t.Fatalf("Seek(%d) replayed %d rows, want %d", k, len(rows), n-k)
		}
		for i, row := range rows {
			if !row.Equal(expected[k+i]) {
				t.Fatalf("Seek(%d) row %d = %v, want %v", k, i, row.Map(), expected[k+i].Map())
			}
		}
	}
	if src.Reads != n {
		t.Errorf("Source reads = %d, want %d", src.Reads, n)
	}
}

func TestBuffered_ReadsEachRecordOnce(t *testing.T) {
	products := []product{lawnmower, moonrocket, {id: 3, name: "c"}, {id: 4, name: "d"}, {id: 5, name: "e"}}
	rs, src := newResultSet(products...)

	assertNext(t, rs, products[0])
	if err := rs.Seek(2); err != nil {
		t.Fatalf("Seek(2) failed: %v", err)
	}
	if src.Reads != 3 {
		t.Fatalf("Reads after Seek(2) = %d, want 3", src.Reads)
	}
	for i := 0; i < 5; i++ {
		if err := rs.Seek(0); err != nil {
			t.Fatalf("Seek(0) failed: %v", err)
		}
		assertNext(t, rs, products[0])
		assertNext(t, rs, products[1])
		assertNext(t, rs, products[2])
	}
	if src.Reads != 3 {
		t.Errorf("Reads after rewinds = %d, want 3", src.Reads)
	}

	// Seeking to the first unbuffered index pulls exactly one record.
	if err := rs.Seek(3); err != nil {
		t.Fatalf("Seek(3) failed: %v", err)
	}
	if src.Reads != 4 {
		t.Errorf("Reads after Seek(3) = %d, want 4", src.Reads)
	}
}

func TestBuffered_SeekToLastReachesEnd(t *testing.T) {
	rs, _ := newResultSet(lawnmower, moonrocket)
	if err := rs.Seek(1); err != nil {
		t.Fatalf("Seek(1) failed: %v", err)
	}
	assertNext(t, rs, moonrocket)
	assertEnd(t, rs)

	if err := rs.Seek(0); err != nil {
		t.Fatalf("Seek(0) after end failed: %v", err)
	}
	assertNext(t, rs, lawnmower)
}

func TestBuffered_DecodeErrorIsSticky(t *testing.T) {
	src := &SliceSource{Records: []tds.RawRecord{
		{int32(6100), "Binford Lawnmower"},
		{[]byte{1, 2, 3}, "broken"},
		{int32(61000), "Binford Moonrocket"},
	}}
	rs := NewBuffered(src, productFields)

	assertNext(t, rs, lawnmower)
	_, _, err := rs.Next()
	if !errors.Is(err, tds.ErrMalformedValue) {
		t.Fatalf("expected ErrMalformedValue, got %v", err)
	}
	if _, _, again := rs.Next(); !errors.Is(again, tds.ErrMalformedValue) {
		t.Errorf("expected sticky error, got %v", again)
	}
	if err := rs.Seek(2); !errors.Is(err, tds.ErrMalformedValue) {
		t.Errorf("Seek past failure: expected decode error, got %v", err)
	}
	if src.Reads != 2 {
		t.Errorf("Source reads = %d, want 2", src.Reads)
	}

	// Rows buffered before the failure stay replayable.
	if err := rs.Seek(0); err != nil {
		t.Fatalf("Seek(0) failed: %v", err)
	}
	assertNext(t, rs, lawnmower)
}

func TestBuffered_FetchError(t *testing.T) {
	boom := errors.New("connection reset")
	rs := NewBuffered(SourceFunc(func(tds.Fields) (tds.RawRecord, error) {
		return nil, boom
	}), productFields)

	if _, _, err := rs.Next(); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
}

type closingSource struct {
	SliceSource
	closed bool
}

func (c *closingSource) Close() error {
	c.closed = true
	return nil
}

func TestBuffered_Close(t *testing.T) {
	src := &closingSource{}
	rs := NewBuffered(src, productFields)
	if err := rs.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !src.closed {
		t.Error("Close should close the source")
	}
	if _, _, err := rs.Next(); !errors.Is(err, ErrClosed) {
		t.Errorf("Next after Close: expected ErrClosed, got %v", err)
	}
	if err := rs.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestUnbuffered(t *testing.T) {
	src := &SliceSource{Records: []tds.RawRecord{{int32(6100), "Binford Lawnmower"}, {int32(61000), "Binford Moonrocket"}}}
	rs := NewUnbuffered(src, productFields)

	assertNext(t, rs, lawnmower)
	if err := rs.Seek(0); !errors.Is(err, ErrSeekUnsupported) {
		t.Errorf("expected ErrSeekUnsupported, got %v", err)
	}
	assertNext(t, rs, moonrocket)
	assertEnd(t, rs)
	assertEnd(t, rs)
}

func TestSourceFunc_EOF(t *testing.T) {
	calls := 0
	rs := NewBuffered(SourceFunc(func(tds.Fields) (tds.RawRecord, error) {
		calls++
		return nil, io.EOF
	}), productFields)
	assertEnd(t, rs)
	assertEnd(t, rs)
	if calls != 1 {
		t.Errorf("source called %d times after exhaustion, want 1", calls)
	}
}
